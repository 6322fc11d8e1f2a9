package domain

// EmailTemplate 邮件模板，Subject 和 Content 都用 liquid 语法渲染
type EmailTemplate struct {
	ID      int64
	Code    string
	Name    string
	Subject string
	Content string
	IsHTML  bool
	Enabled bool
}

// DedupStats 去重缓存的统计信息
type DedupStats struct {
	TotalKeys     int
	ActiveKeys    int
	ExpiredKeys   int
	WindowMinutes float64
}

package dao

import (
	"context"
	"errors"
	"fmt"

	"gitee.com/flycash/msgpulse/internal/errs"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type EmailTemplateDAO interface {
	GetByCode(ctx context.Context, code string) (EmailTemplate, error)
}

// EmailTemplate 邮件模板表
type EmailTemplate struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	Code    string `gorm:"type:VARCHAR(128);NOT NULL;uniqueIndex:uk_code"`
	Name    string `gorm:"type:VARCHAR(128);NOT NULL"`
	Subject string `gorm:"type:VARCHAR(512);NOT NULL"`
	Content string `gorm:"type:TEXT;NOT NULL"`
	IsHTML  bool   `gorm:"column:is_html;NOT NULL;DEFAULT:true"`
	Enabled bool   `gorm:"NOT NULL;DEFAULT:true"`
	Ctime   int64
	Utime   int64
}

type emailTemplateDAO struct {
	db *egorm.Component
}

func NewEmailTemplateDAO(db *egorm.Component) EmailTemplateDAO {
	return &emailTemplateDAO{db: db}
}

func (d *emailTemplateDAO) GetByCode(ctx context.Context, code string) (EmailTemplate, error) {
	var res EmailTemplate
	err := d.db.WithContext(ctx).Where("code = ? AND enabled = ?", code, true).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EmailTemplate{}, fmt.Errorf("%w: code = %s", errs.ErrTemplateNotFound, code)
	}
	return res, err
}

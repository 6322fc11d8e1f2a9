package repository

import (
	"context"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/repository/dao"
)

type EmailTemplateRepository interface {
	GetByCode(ctx context.Context, code string) (domain.EmailTemplate, error)
}

type emailTemplateRepository struct {
	dao dao.EmailTemplateDAO
}

func NewEmailTemplateRepository(d dao.EmailTemplateDAO) EmailTemplateRepository {
	return &emailTemplateRepository{dao: d}
}

func (r *emailTemplateRepository) GetByCode(ctx context.Context, code string) (domain.EmailTemplate, error) {
	e, err := r.dao.GetByCode(ctx, code)
	if err != nil {
		return domain.EmailTemplate{}, err
	}
	return domain.EmailTemplate{
		ID:      e.ID,
		Code:    e.Code,
		Name:    e.Name,
		Subject: e.Subject,
		Content: e.Content,
		IsHTML:  e.IsHTML,
		Enabled: e.Enabled,
	}, nil
}

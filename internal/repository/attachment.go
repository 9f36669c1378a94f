package repository

import (
	"context"
	"errors"
	"tush00nka/coachly_messaging/internal/model"

	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, att *model.Attachment) error
	GetByID(ctx context.Context, id string) (*model.Attachment, error)
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, att *model.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*model.Attachment, error) {
	var att model.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

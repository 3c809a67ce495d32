// Package store holds the gorm repositories. Nothing here makes
// authorization decisions, that all lives in the authz package.
package store

import (
	"context"

	"securedocs/docs-api/model"

	"gorm.io/gorm"
)

type Documents struct {
	db *gorm.DB
}

func NewDocuments(db *gorm.DB) *Documents {
	return &Documents{db: db}
}

// WithTx returns a view of the store bound to an open transaction.
func (d *Documents) WithTx(tx *gorm.DB) *Documents {
	return &Documents{db: tx}
}

func (d *Documents) Create(ctx context.Context, doc *model.Document) error {
	return d.db.WithContext(ctx).Create(doc).Error
}

func (d *Documents) GetByID(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document

	err := d.db.WithContext(ctx).
		Where("id = ?", id).
		First(&doc).
		Error
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

func (d *Documents) ListByOwner(ctx context.Context, userID string) ([]model.Document, error) {
	var docs []model.Document

	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&docs).
		Error
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (d *Documents) ListByVerification(ctx context.Context, verificationID uint) ([]model.Document, error) {
	var docs []model.Document

	err := d.db.WithContext(ctx).
		Where("verification_request_id = ?", verificationID).
		Order("created_at desc").
		Find(&docs).
		Error
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (d *Documents) ListBySession(ctx context.Context, sessionID string) ([]model.Document, error) {
	var docs []model.Document

	err := d.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at desc").
		Find(&docs).
		Error
	if err != nil {
		return nil, err
	}

	return docs, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"securedocs/docs-api/model"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Sessions holds the QR upload sessions. Unlike verification requests
// these are short-lived and upload-only.
type Sessions struct {
	db *gorm.DB
}

func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db}
}

func (s *Sessions) WithTx(tx *gorm.DB) *Sessions {
	return &Sessions{db: tx}
}

func (s *Sessions) Create(ctx context.Context, verifierName string) (*model.UploadSession, error) {
	ttl := time.Duration(viper.GetInt("session.ttl_minutes")) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	session := &model.UploadSession{
		ID:           uuid.NewString(),
		VerifierName: verifierName,
		ExpiresAt:    time.Now().Add(ttl),
		CreatedAt:    time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to persist upload session, %w", err)
	}

	return session, nil
}

func (s *Sessions) GetByID(ctx context.Context, id string) (*model.UploadSession, error) {
	var session model.UploadSession

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).
		Error
	if err != nil {
		return nil, err
	}

	return &session, nil
}

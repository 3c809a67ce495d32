package store

import (
	"context"
	"fmt"
	"time"

	"securedocs/docs-api/model"
	"securedocs/docs-api/security"

	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Verifications is the ledger of verification requests. Tokens are
// generated here and nowhere else.
type Verifications struct {
	db *gorm.DB
}

func NewVerifications(db *gorm.DB) *Verifications {
	return &Verifications{db: db}
}

func (v *Verifications) WithTx(tx *gorm.DB) *Verifications {
	return &Verifications{db: tx}
}

// CreateRequest mints a new request with a fresh token. The expiry
// window is fixed policy (24h by default) counted from creation.
func (v *Verifications) CreateRequest(ctx context.Context, verifierName string, requestedTypes []string) (*model.VerificationRequest, error) {
	token, err := security.NewVerificationToken()
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(viper.GetInt("verification.token_ttl_hours")) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	req := &model.VerificationRequest{
		Token:          token,
		VerifierName:   verifierName,
		RequestedTypes: requestedTypes,
		ExpiresAt:      time.Now().Add(ttl),
		CreatedAt:      time.Now(),
	}

	if err := v.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, fmt.Errorf("failed to persist verification request, %w", err)
	}

	return req, nil
}

func (v *Verifications) GetByToken(ctx context.Context, token string) (*model.VerificationRequest, error) {
	var req model.VerificationRequest

	err := v.db.WithContext(ctx).
		Where("token = ?", token).
		First(&req).
		Error
	if err != nil {
		return nil, err
	}

	return &req, nil
}

package model

import "time"

// VerificationRequest is a verifier's standing ask for documents. The
// token is the only credential a verifier ever presents, so it has to
// be treated as a bearer secret everywhere outside the audit log.
type VerificationRequest struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Token          string      `gorm:"uniqueIndex;not null" json:"-"`
	VerifierName   string      `json:"verifier_name"`
	RequestedTypes StringSlice `json:"requested_types"`
	ExpiresAt      time.Time   `json:"expires_at"`
	CreatedAt      time.Time   `json:"created_at"`

	Documents []Document `gorm:"foreignKey:VerificationRequestID" json:"-"`
}

// Expired reports whether the request is past its expiry. Expiry blocks
// new shares only, already consented documents stay downloadable.
func (r *VerificationRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

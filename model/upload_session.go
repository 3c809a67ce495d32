package model

import "time"

// UploadSession is the QR front door for mobile capture. It is a much
// weaker credential than a verification token (short-lived, upload-only)
// and must never be accepted where a token is expected.
type UploadSession struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	VerifierName string    `json:"verifier_name"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`

	Documents []Document `gorm:"foreignKey:SessionID" json:"-"`
}

// Expired reports whether the session is past its time box. Expired
// sessions behave exactly like sessions that never existed.
func (s *UploadSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

package model

import "time"

// Document holds the metadata of one uploaded file. StorageKey always
// points at ciphertext produced by the vault, never at plaintext.
//
// Exactly one of UserID, VerificationRequestID or SessionID is set,
// depending on which flow the document arrived through.
type Document struct {
	ID                    uint    `gorm:"primaryKey;autoIncrement;index" json:"id"`
	UserID                *string `gorm:"index" json:"-"`
	VerificationRequestID *uint   `gorm:"index" json:"-"`
	SessionID             *string `gorm:"index" json:"-"`

	// passport, idcard, drivers_license etc. Free-form tag
	DocType      string `gorm:"not null" json:"doc_type"`
	OriginalName string `gorm:"not null" json:"name"`
	StorageKey   string `gorm:"not null" json:"-"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`

	CreatedAt time.Time `json:"created_at"`
}

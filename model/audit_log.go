package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Actions recorded in the audit log. The authorizer derives the whole
// disclosure state of a (token, document) pair from these entries, so
// the set is deliberately small.
const (
	ActionDocumentUploaded   = "document_uploaded"
	ActionOwnerShared        = "owner_shared"
	ActionVerifierDownloaded = "verifier_downloaded"
)

// AuditLog is an append-only record. Rows are only ever inserted, the
// store exposes no update or delete for them. DocumentID is a real
// column rather than a value buried inside Details so the authorizer
// can query it without parsing strings.
type AuditLog struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                *string   `gorm:"index" json:"user_id,omitempty"`
	VerificationRequestID *uint     `gorm:"index" json:"verification_request_id,omitempty"`
	DocumentID            *uint     `gorm:"index" json:"document_id,omitempty"`
	Action                string    `gorm:"not null;index" json:"action"`
	Details               JSONMap   `json:"details"`
	CreatedAt             time.Time `json:"created_at"`
}

// JSONMap stores free-form structured details as a JSON text column.
type JSONMap map[string]any

// Value implements the driver.Valuer interface.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal details, %w", err)
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("failed to scan JSONMap, %v", value)
	}

	if len(b) == 0 {
		*m = JSONMap{}
		return nil
	}

	return json.Unmarshal(b, m)
}

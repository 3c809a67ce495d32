package store

import (
	"context"
	"fmt"

	"securedocs/docs-api/model"

	"gorm.io/gorm"
)

// Audit is the append-only ledger of record. It exposes inserts and
// reads only. There is deliberately no update or delete here: the
// authorizer reconstructs disclosure state from these rows, so their
// immutability is the system's security boundary.
type Audit struct {
	db *gorm.DB
}

func NewAudit(db *gorm.DB) *Audit {
	return &Audit{db: db}
}

func (a *Audit) WithTx(tx *gorm.DB) *Audit {
	return &Audit{db: tx}
}

// Record appends one entry. Callers must treat a failure here as fatal
// to the operation that produced it.
func (a *Audit) Record(ctx context.Context, entry *model.AuditLog) error {
	if err := a.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry, %w", err)
	}

	return nil
}

// QueryByVerification returns entries for one verification request,
// oldest first, optionally filtered to a single action.
func (a *Audit) QueryByVerification(ctx context.Context, verificationID uint, action string) ([]model.AuditLog, error) {
	q := a.db.WithContext(ctx).
		Where("verification_request_id = ?", verificationID)

	if action != "" {
		q = q.Where("action = ?", action)
	}

	var entries []model.AuditLog
	err := q.Order("created_at asc").
		Order("id asc").
		Find(&entries).
		Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// SharedDocumentIDs derives the set of documents consented to under a
// verification request from its owner_shared entries.
func (a *Audit) SharedDocumentIDs(ctx context.Context, verificationID uint) (map[uint]struct{}, error) {
	var ids []uint

	err := a.db.WithContext(ctx).
		Model(model.AuditLog{}).
		Where("verification_request_id = ? AND action = ? AND document_id IS NOT NULL", verificationID, model.ActionOwnerShared).
		Pluck("document_id", &ids).
		Error
	if err != nil {
		return nil, err
	}

	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set, nil
}

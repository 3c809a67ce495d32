// Package authz implements the disclosure state machine. Every decision
// about who may read which document is made here, derived from the
// audit log, and every decision that grants something is itself logged
// in the same transaction.
package authz

import (
	"context"
	"errors"
	"time"

	"securedocs/docs-api/blobstore"
	"securedocs/docs-api/model"
	"securedocs/docs-api/store"
	"securedocs/docs-api/vault"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Authorizer struct {
	db     *gorm.DB
	vault  *vault.Vault
	blobs  blobstore.Store
	docs   *store.Documents
	ledger *store.Verifications
	audit  *store.Audit
}

func New(db *gorm.DB, v *vault.Vault, blobs blobstore.Store) *Authorizer {
	return &Authorizer{
		db:     db,
		vault:  v,
		blobs:  blobs,
		docs:   store.NewDocuments(db),
		ledger: store.NewVerifications(db),
		audit:  store.NewAudit(db),
	}
}

// Download is the result of a granted download request.
type Download struct {
	Content     []byte
	Filename    string
	ContentType string
}

// RequestShare records the owner's consent to disclose one document
// under one token. The document must belong to the acting user. A
// nonexistent document and a document owned by someone else produce the
// same ErrNotFound, otherwise a 403/404 difference would let any logged
// in user enumerate which ids exist.
//
// Sharing an already shared pair is allowed and logs another consent
// entry, re-affirmation is not an error.
//
// The ownership check and the audit write run in one transaction: if
// the entry can't be appended the share never happened.
func (a *Authorizer) RequestShare(ctx context.Context, token string, docID uint, actingUserID string) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := a.ledger.WithTx(tx).GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		if req.Expired(time.Now()) {
			return ErrExpired
		}

		doc, err := a.docs.WithTx(tx).GetByID(ctx, docID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		if doc.UserID == nil || *doc.UserID != actingUserID {
			return ErrNotFound
		}

		return a.audit.WithTx(tx).Record(ctx, &model.AuditLog{
			UserID:                &actingUserID,
			VerificationRequestID: &req.ID,
			DocumentID:            &doc.ID,
			Action:                model.ActionOwnerShared,
			Details: model.JSONMap{
				"doc_id":   doc.ID,
				"doc_type": doc.DocType,
			},
		})
	})
}

// RequestDownload releases document bytes to a token holder, but only
// if a prior owner_shared entry names exactly this (token, document)
// pair. The membership check, the decrypt and the verifier_downloaded
// entry are a single transaction, so two concurrent downloads can't
// both sneak past a missing share and a failed audit write revokes the
// release.
//
// Expiry is deliberately not checked here: consent was given while the
// request was live and remains honored (see DESIGN.md).
func (a *Authorizer) RequestDownload(ctx context.Context, token string, docID uint) (*Download, error) {
	var dl *Download

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := a.ledger.WithTx(tx).GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		shared, err := a.audit.WithTx(tx).SharedDocumentIDs(ctx, req.ID)
		if err != nil {
			return err
		}

		// Covers both never-shared and shared-under-a-different-token
		if _, ok := shared[docID]; !ok {
			return ErrForbidden
		}

		doc, err := a.docs.WithTx(tx).GetByID(ctx, docID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		blob, err := a.blobs.Load(ctx, doc.StorageKey)
		if err != nil {
			return err
		}

		plain, err := a.vault.Decrypt(blob)
		if err != nil {
			// Either corruption or an attack, never return garbage bytes
			zap.L().Error("Stored ciphertext failed integrity check",
				zap.Uint("docID", doc.ID),
				zap.Error(err))
			return err
		}

		err = a.audit.WithTx(tx).Record(ctx, &model.AuditLog{
			VerificationRequestID: &req.ID,
			DocumentID:            &doc.ID,
			Action:                model.ActionVerifierDownloaded,
			Details: model.JSONMap{
				"doc_id":   doc.ID,
				"doc_type": doc.DocType,
				"filename": doc.OriginalName,
			},
		})
		if err != nil {
			return err
		}

		dl = &Download{
			Content:     plain,
			Filename:    doc.OriginalName,
			ContentType: doc.ContentType,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return dl, nil
}

// SharedDocuments lists which of a verification request's shareable
// documents have consent logged, for rendering the verifier's view.
func (a *Authorizer) SharedDocuments(ctx context.Context, verificationID uint) (map[uint]struct{}, error) {
	return a.audit.SharedDocumentIDs(ctx, verificationID)
}

package authz

import "errors"

var (
	// ErrNotFound covers unknown tokens and unknown document ids. It is
	// also returned on ownership mismatch so a non-owner can't probe
	// which document ids exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the pair exists but no owner consent has been
	// logged for it.
	ErrForbidden = errors.New("forbidden")

	// ErrExpired means the verification request is past its expiry.
	// Only new shares are blocked by it.
	ErrExpired = errors.New("verification request expired")
)

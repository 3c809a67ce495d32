// Package blobstore persists encrypted document blobs. Only ciphertext
// produced by the vault is ever handed to a Store.
package blobstore

import (
	"context"
	"errors"

	"github.com/spf13/viper"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrInvalidFilename = errors.New("invalid filename")
)

// Store is the ciphertext-at-rest backend. Save derives a unique storage
// key from the given filename and returns it, Load is the inverse.
type Store interface {
	Save(ctx context.Context, filename string, data []byte) (key string, err error)
	Load(ctx context.Context, key string) ([]byte, error)
}

// FromConfig builds the configured backend, local disk by default.
func FromConfig() (Store, error) {
	if viper.GetString("storage.type") == "s3" {
		return NewS3()
	}

	return NewLocal(viper.GetString("storage.root"))
}

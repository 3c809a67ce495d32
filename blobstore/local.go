package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"securedocs/docs-api/util"
)

// Local stores blobs as files under a dedicated root directory the
// process has exclusive write access to.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage root, %w", err)
	}

	return &Local{root: root}, nil
}

// Save writes data to a path derived from a sanitized filename. The
// write goes to a temp file first and is renamed into place, so a blob
// either exists completely or not at all.
func (l *Local) Save(_ context.Context, filename string, data []byte) (string, error) {
	safe, err := sanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	// Random prefix keeps equally named uploads from clobbering each other
	key := util.RandStr(10) + "_" + safe

	tmp, err := os.CreateTemp(l.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file, %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write blob, %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file, %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to chmod blob, %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(l.root, key)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize blob, %w", err)
	}

	return key, nil
}

func (l *Local) Load(_ context.Context, key string) ([]byte, error) {
	// Keys are produced by Save, but validate anyway so a corrupted
	// database row can't read outside the storage root
	if _, err := sanitizeFilename(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(l.root, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}

		return nil, fmt.Errorf("failed to read blob, %w", err)
	}

	return data, nil
}

// sanitizeFilename rejects anything that could escape the storage root.
// Returns the name unchanged when it is already safe.
func sanitizeFilename(name string) (string, error) {
	if name == "" || len(name) > 255 {
		return "", ErrInvalidFilename
	}

	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", ErrInvalidFilename
	}

	if name != filepath.Base(filepath.Clean(name)) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidFilename
	}

	return name, nil
}

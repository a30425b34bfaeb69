// Package storage provides blob persistence for commit, manifest, and
// history files, plus reads of external data files by URL.
package storage

import (
	"strings"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
)

// Provider reads and writes immutable blobs by path. Paths are opaque; the
// interface does not interpret scheme prefixes.
type Provider interface {
	// WriteBlob overwrites the blob at location, creating intermediate
	// directories. Readers observe either the previous or the new content.
	WriteBlob(location string, content []byte) error

	// ReadBlob returns the blob at location, or (nil, nil) when absent.
	ReadBlob(location string) ([]byte, error)

	// ListBlobs returns the paths under prefix.
	ListBlobs(prefix string) ([]string, error)
}

// NewProvider returns the provider for a configured backend name
func NewProvider(name string) (Provider, error) {
	switch strings.ToUpper(name) {
	case "LOCAL", "":
		return NewLocalStorage(), nil
	case "GOOGLE", "GCS":
		return NewGoogleStorage()
	case "MEMORY":
		return NewMemoryStorage(), nil
	default:
		return nil, &terrors.InvalidConfigurationError{Setting: "STORAGE_PROVIDER"}
	}
}

// ForPath resolves the provider for a possibly scheme-prefixed data-file
// path and returns the path the provider should be given. Cloud providers
// expect the bucket as the first path segment.
func ForPath(path string) (Provider, string, error) {
	scheme, rest, found := strings.Cut(path, "://")
	if !found {
		return NewLocalStorage(), path, nil
	}
	switch strings.ToLower(scheme) {
	case "gs":
		provider, err := NewGoogleStorage()
		return provider, rest, err
	case "file":
		return NewLocalStorage(), rest, nil
	case "mem":
		return sharedMemory, rest, nil
	default:
		return nil, "", &terrors.InvalidConfigurationError{Setting: "STORAGE_PROVIDER", Source: path}
	}
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists blobs on the local filesystem
type LocalStorage struct{}

// NewLocalStorage creates a filesystem-backed provider
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// WriteBlob writes content to location. The write goes through a temp file
// and rename so readers never observe a partial blob.
func (s *LocalStorage) WriteBlob(location string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", location, err)
	}

	temp, err := os.CreateTemp(filepath.Dir(location), ".blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", location, err)
	}
	if _, err := temp.Write(content); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return os.Rename(temp.Name(), location)
}

// ReadBlob reads the blob at location, returning nil when it does not exist
func (s *LocalStorage) ReadBlob(location string) ([]byte, error) {
	content, err := os.ReadFile(location)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return content, nil
}

// ListBlobs returns files under the prefix. A prefix ending in a separator
// is treated as a directory, otherwise as a directory plus filename prefix.
func (s *LocalStorage) ListBlobs(prefix string) ([]string, error) {
	folder := prefix
	filePrefix := ""
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) && !strings.HasSuffix(prefix, "/") {
		folder = filepath.Dir(prefix)
		filePrefix = filepath.Base(prefix)
	}

	entries, err := os.ReadDir(folder)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filePrefix == "" || strings.HasPrefix(entry.Name(), filePrefix) {
			files = append(files, filepath.Join(folder, entry.Name()))
		}
	}
	return files, nil
}

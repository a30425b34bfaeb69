package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

var (
	googleClient     *gcs.Client
	googleClientOnce sync.Once
	googleClientErr  error
)

// GoogleStorage persists blobs in Google Cloud Storage. The bucket is the
// first segment of the blob path.
type GoogleStorage struct {
	client *gcs.Client
}

// NewGoogleStorage creates a GCS-backed provider, sharing one client
// per process.
func NewGoogleStorage() (*GoogleStorage, error) {
	googleClientOnce.Do(func() {
		googleClient, googleClientErr = gcs.NewClient(context.Background())
	})
	if googleClientErr != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", googleClientErr)
	}
	return &GoogleStorage{client: googleClient}, nil
}

func splitBucket(location string) (string, string) {
	bucket, object, _ := strings.Cut(location, "/")
	return bucket, object
}

func (s *GoogleStorage) WriteBlob(location string, content []byte) error {
	bucket, object := splitBucket(location)
	writer := s.client.Bucket(bucket).Object(object).NewWriter(context.Background())
	if _, err := writer.Write(content); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write gs://%s: %w", location, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to write gs://%s: %w", location, err)
	}
	return nil
}

func (s *GoogleStorage) ReadBlob(location string) ([]byte, error) {
	bucket, object := splitBucket(location)
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(context.Background())
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s: %w", location, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s: %w", location, err)
	}
	return content, nil
}

func (s *GoogleStorage) ListBlobs(prefix string) ([]string, error) {
	bucket, object := splitBucket(prefix)
	it := s.client.Bucket(bucket).Objects(context.Background(), &gcs.Query{Prefix: object})

	var paths []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s: %w", prefix, err)
		}
		paths = append(paths, bucket+"/"+attrs.Name)
	}
	return paths, nil
}

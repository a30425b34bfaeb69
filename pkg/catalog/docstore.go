package catalog

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names, one per collection
	bucketTables = []byte("tables")
	bucketOwners = []byte("owners")
	bucketViews  = []byte("views")
)

// Query is an equality match over a small set of document fields
type Query map[string]string

// DocumentStore is a bbolt-backed store of JSON documents organized into
// collections. Writes are serialized per database, which gives the
// per-document serializability the commit engine requires.
type DocumentStore struct {
	db *bolt.DB
}

// NewDocumentStore opens (or creates) the store at dbPath
func NewDocumentStore(dbPath string) (*DocumentStore, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{bucketTables, bucketOwners, bucketViews}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DocumentStore{db: db}, nil
}

// Close closes the database
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

func bucketFor(collection string) []byte {
	switch collection {
	case "tables":
		return bucketTables
	case "owners":
		return bucketOwners
	case "views":
		return bucketViews
	}
	return nil
}

func matches(document map[string]any, query Query) bool {
	for field, expected := range query {
		value, exists := document[field]
		if !exists {
			return false
		}
		text, ok := value.(string)
		if !ok || text != expected {
			return false
		}
	}
	return true
}

// Find returns the documents in collection matching the equality query
func (s *DocumentStore) Find(collection string, query Query) ([]json.RawMessage, error) {
	bucket := bucketFor(collection)
	if bucket == nil {
		return nil, fmt.Errorf("unknown collection: %s", collection)
	}

	var results []json.RawMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			var document map[string]any
			if err := json.Unmarshal(v, &document); err != nil {
				return err
			}
			if matches(document, query) {
				raw := make(json.RawMessage, len(v))
				copy(raw, v)
				results = append(results, raw)
			}
			return nil
		})
	})
	return results, err
}

// Upsert stores the document under the key named by keyQuery, which must
// hold exactly the primary key field for the collection
func (s *DocumentStore) Upsert(collection string, document any, keyQuery Query) error {
	bucket := bucketFor(collection)
	if bucket == nil {
		return fmt.Errorf("unknown collection: %s", collection)
	}
	key, err := primaryKey(keyQuery)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		content, err := json.Marshal(document)
		if err != nil {
			return err
		}
		return tx.Bucket(bucket).Put([]byte(key), content)
	})
}

// Delete removes the document under the key named by keyQuery
func (s *DocumentStore) Delete(collection string, keyQuery Query) error {
	bucket := bucketFor(collection)
	if bucket == nil {
		return fmt.Errorf("unknown collection: %s", collection)
	}
	key, err := primaryKey(keyQuery)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// update runs fn inside a single write transaction against the collection's
// bucket; used for conditional updates
func (s *DocumentStore) update(collection string, fn func(bucket *bolt.Bucket) error) error {
	bucket := bucketFor(collection)
	if bucket == nil {
		return fmt.Errorf("unknown collection: %s", collection)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucket))
	})
}

func primaryKey(keyQuery Query) (string, error) {
	if len(keyQuery) != 1 {
		return "", fmt.Errorf("key query must name exactly one field")
	}
	for _, value := range keyQuery {
		return value, nil
	}
	return "", nil
}

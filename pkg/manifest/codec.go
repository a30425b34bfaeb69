package manifest

import (
	"bytes"
	"fmt"

	"github.com/hamba/avro/v2/ocf"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/metrics"
	"github.com/mabel-dev/tarchia/pkg/storage"
)

// maxDepth bounds manifest recursion to defend against malformed trees
const maxDepth = 16

// Write serializes the entries as a zstandard-compressed Avro container and
// writes exactly one blob at location.
func Write(location string, provider storage.Provider, entries []Entry) error {
	buffer := &bytes.Buffer{}
	encoder, err := ocf.NewEncoder(Schema, buffer, ocf.WithCodec(ocf.ZStandard))
	if err != nil {
		return fmt.Errorf("failed to create manifest encoder: %w", err)
	}

	for _, entry := range entries {
		if entry.LowerBounds == nil {
			entry.LowerBounds = map[string]int64{}
		}
		if entry.UpperBounds == nil {
			entry.UpperBounds = map[string]int64{}
		}
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode manifest entry: %w", err)
		}
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize manifest: %w", err)
	}

	return provider.WriteBlob(location, buffer.Bytes())
}

// Read returns the data-file entries reachable from the manifest at
// location, descending into child manifests. Filters are applied during
// descent so pruned subtrees are never read.
func Read(location string, provider storage.Provider, filters []Filter) ([]Entry, error) {
	return read(location, provider, filters, 0)
}

func read(location string, provider storage.Provider, filters []Filter, depth int) ([]Entry, error) {
	if location == "" {
		return nil, nil
	}
	if depth >= maxDepth {
		return nil, fmt.Errorf("manifest tree deeper than %d levels at %s", maxDepth, location)
	}

	content, err := provider.ReadBlob(location)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, &terrors.UnableToReadBlobError{Location: location}
	}

	decoder, err := ocf.NewDecoder(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", location, err)
	}

	var entries []Entry
	for decoder.HasNext() {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode manifest entry in %s: %w", location, err)
		}

		if len(filters) > 0 && Prune(entry, filters) {
			metrics.ManifestEntriesPruned.Inc()
			continue
		}

		if entry.FileType == EntryTypeManifest {
			children, err := read(entry.FilePath, provider, filters, depth+1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, children...)
		} else {
			entries = append(entries, entry)
		}
	}
	if err := decoder.Error(); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", location, err)
	}
	return entries, nil
}

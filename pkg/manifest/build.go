package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
	"github.com/mabel-dev/tarchia/pkg/storage"
)

// BuildEntry constructs the manifest entry for a Parquet data file: size,
// checksum, record count, and per-column bounds folded from the row-group
// statistics. Every column of the expected schema must be present in the
// file (by name or alias) or carry a default.
func BuildEntry(path string, expectedSchema models.Schema) (Entry, error) {
	provider, blobPath, err := storage.ForPath(path)
	if err != nil {
		return Entry{}, err
	}

	content, err := provider.ReadBlob(blobPath)
	if err != nil {
		return Entry{}, err
	}
	if content == nil {
		return Entry{}, &terrors.UnableToReadBlobError{Location: blobPath}
	}

	checksum := sha256.Sum256(content)
	entry := Entry{
		FilePath:       path,
		FileFormat:     "parquet",
		FileType:       EntryTypeData,
		FileSize:       int64(len(content)),
		SHA256Checksum: hex.EncodeToString(checksum[:]),
		LowerBounds:    map[string]int64{},
		UpperBounds:    map[string]int64{},
	}

	file, err := parquet.OpenFile(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}

	meta := file.Metadata()
	entry.RecordCount = meta.NumRows

	present := map[string]bool{}
	for _, leaf := range file.Schema().Columns() {
		present[strings.Join(leaf, ".")] = true
	}

	for _, column := range expectedSchema.Columns {
		if column.Default != nil {
			continue
		}
		found := false
		for _, name := range column.AllNames() {
			if present[name] {
				found = true
				break
			}
		}
		if !found {
			return Entry{}, &terrors.DataError{
				Message: fmt.Sprintf("File '%s' is missing column '%s'. To avoid this error, ensure this column has a default value or is present in all files.", path, column.Name),
			}
		}
	}

	elements := leafElements(meta.Schema)

	for _, rowGroup := range meta.RowGroups {
		for _, chunk := range rowGroup.Columns {
			md := chunk.MetaData
			name := strings.Join(md.PathInSchema, ".")
			element := elements[name]

			if low, ok := decodeStatistic(md.Type, statMin(md.Statistics), element); ok {
				if existing, exists := entry.LowerBounds[name]; !exists || low < existing {
					entry.LowerBounds[name] = low
				}
			}
			if high, ok := decodeStatistic(md.Type, statMax(md.Statistics), element); ok {
				if existing, exists := entry.UpperBounds[name]; !exists || high > existing {
					entry.UpperBounds[name] = high
				}
			}
		}
	}

	return entry, nil
}

func statMin(stats format.Statistics) []byte {
	if stats.MinValue != nil {
		return stats.MinValue
	}
	return stats.Min
}

func statMax(stats format.Statistics) []byte {
	if stats.MaxValue != nil {
		return stats.MaxValue
	}
	return stats.Max
}

// leafElements indexes the flattened schema list by leaf name so logical
// type annotations can be recovered per column chunk
func leafElements(schema []format.SchemaElement) map[string]*format.SchemaElement {
	elements := map[string]*format.SchemaElement{}
	for i := range schema {
		if i == 0 {
			continue // root group
		}
		element := &schema[i]
		if element.NumChildren == 0 {
			elements[element.Name] = element
		}
	}
	return elements
}

// decodeStatistic converts a plain-encoded min/max statistic into a packed
// orderable integer, honoring the column's logical type
func decodeStatistic(physical format.Type, raw []byte, element *format.SchemaElement) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	switch physical {
	case format.Boolean:
		if raw[0] != 0 {
			return 1, true
		}
		return 0, true

	case format.Int32:
		if len(raw) < 4 {
			return 0, false
		}
		value := int64(int32(binary.LittleEndian.Uint32(raw)))
		return packLogical(value, element)

	case format.Int64:
		if len(raw) < 8 {
			return 0, false
		}
		value := int64(binary.LittleEndian.Uint64(raw))
		return packLogical(value, element)

	case format.Float:
		if len(raw) < 4 {
			return 0, false
		}
		value := float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
		return clampFloat(math.RoundToEven(value)), true

	case format.Double:
		if len(raw) < 8 {
			return 0, false
		}
		value := math.Float64frombits(binary.LittleEndian.Uint64(raw))
		return clampFloat(math.RoundToEven(value)), true

	case format.ByteArray, format.FixedLenByteArray:
		return packBytes(raw), true
	}

	return 0, false
}

// packLogical maps integer-encoded logical values onto the orderable scale:
// dates and timestamps become UNIX seconds, times become seconds since
// midnight, decimals are rounded to their integer value
func packLogical(value int64, element *format.SchemaElement) (int64, bool) {
	if element == nil || element.LogicalType == nil {
		return value, true
	}
	logical := element.LogicalType

	switch {
	case logical.Date != nil:
		return DateToInt(value), true

	case logical.Timestamp != nil:
		return scaleToSeconds(value, logical.Timestamp.Unit), true

	case logical.Time != nil:
		return scaleToSeconds(value, logical.Time.Unit), true

	case logical.Decimal != nil:
		scale := int(logical.Decimal.Scale)
		if scale == 0 {
			return value, true
		}
		return clampFloat(math.RoundToEven(float64(value) / math.Pow10(scale))), true
	}

	return value, true
}

func scaleToSeconds(value int64, unit format.TimeUnit) int64 {
	divisor := 1.0
	switch {
	case unit.Millis != nil:
		divisor = 1e3
	case unit.Micros != nil:
		divisor = 1e6
	case unit.Nanos != nil:
		divisor = 1e9
	}
	return clampFloat(math.RoundToEven(float64(value) / divisor))
}

package manifest

// EntryType tags a manifest entry as data or a child manifest
type EntryType = string

const (
	// EntryTypeManifest marks an entry whose file_path points at a child
	// manifest, permitting hierarchical manifests
	EntryTypeManifest EntryType = "Manifest"
	// EntryTypeData marks an entry pointing at a data file
	EntryTypeData EntryType = "Data"
)

// Entry describes one data file: identity, checksum, and the per-column
// bounds used for pruning. Bounds are packed 64-bit orderable integers keyed
// by the column name as it appears in the file.
type Entry struct {
	FilePath       string           `json:"file_path" avro:"file_path"`
	FileFormat     string           `json:"file_format" avro:"file_format"`
	FileType       EntryType        `json:"file_type" avro:"file_type"`
	RecordCount    int64            `json:"record_count" avro:"record_count"`
	FileSize       int64            `json:"file_size" avro:"file_size"`
	SHA256Checksum string           `json:"sha256_checksum" avro:"sha256_checksum"`
	LowerBounds    map[string]int64 `json:"lower_bounds" avro:"lower_bounds"`
	UpperBounds    map[string]int64 `json:"upper_bounds" avro:"upper_bounds"`
}

// Schema is the Avro record schema manifests are persisted with
const Schema = `{
	"type": "record",
	"name": "ManifestEntry",
	"fields": [
		{"name": "file_path", "type": "string"},
		{"name": "file_format", "type": "string"},
		{"name": "file_type", "type": "string"},
		{"name": "record_count", "type": "long"},
		{"name": "file_size", "type": "long"},
		{"name": "sha256_checksum", "type": "string"},
		{"name": "lower_bounds", "type": {"type": "map", "values": "long"}},
		{"name": "upper_bounds", "type": {"type": "map", "values": "long"}}
	]
}`

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabel-dev/tarchia/pkg/models"
)

func boundedEntry(lower, upper int64) Entry {
	return Entry{
		FilePath:    "data/file.parquet",
		FileFormat:  "parquet",
		FileType:    EntryTypeData,
		LowerBounds: map[string]int64{"integer": lower},
		UpperBounds: map[string]int64{"integer": upper},
	}
}

// TestPruneCusps tests the boundary behavior of the pruning predicate for
// an entry spanning [-10, 10]
func TestPruneCusps(t *testing.T) {
	entry := boundedEntry(-10, 10)

	tests := []struct {
		name   string
		filter Filter
		pruned bool
	}{
		{name: "equality above range", filter: Filter{"integer", "=", 11}, pruned: true},
		{name: "equality at lower bound", filter: Filter{"integer", "=", -10}, pruned: false},
		{name: "equality inside range", filter: Filter{"integer", "=", 0}, pruned: false},
		{name: "equality at upper bound", filter: Filter{"integer", "=", 10}, pruned: false},
		{name: "equality below range", filter: Filter{"integer", "=", -11}, pruned: true},
		{name: "greater than upper bound retained", filter: Filter{"integer", ">", 10}, pruned: false},
		{name: "greater than above range", filter: Filter{"integer", ">", 11}, pruned: true},
		{name: "greater or equal above range", filter: Filter{"integer", ">=", 11}, pruned: true},
		{name: "less than lower bound retained", filter: Filter{"integer", "<", -10}, pruned: false},
		{name: "less than below range", filter: Filter{"integer", "<", -11}, pruned: true},
		{name: "less or equal below range", filter: Filter{"integer", "<=", -11}, pruned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pruned, Prune(entry, []Filter{tt.filter}))
		})
	}
}

// TestPruneMissingBounds tests that entries without bounds for a column are
// never pruned on that column
func TestPruneMissingBounds(t *testing.T) {
	entry := Entry{
		LowerBounds: map[string]int64{},
		UpperBounds: map[string]int64{},
	}
	assert.False(t, Prune(entry, []Filter{{"integer", "=", 12345}}))
}

// TestPruneConjunction tests that any failing conjunct prunes the entry
func TestPruneConjunction(t *testing.T) {
	entry := boundedEntry(-10, 10)
	filters := []Filter{
		{"integer", "=", 5},  // satisfiable
		{"integer", ">", 50}, // not satisfiable
	}
	assert.True(t, Prune(entry, filters))
}

func testSchema() models.Schema {
	return models.Schema{Columns: []models.Column{
		{Name: "integer", Type: models.TypeInteger},
		{Name: "name", Type: models.TypeVarchar},
		{Name: "score", Type: models.TypeDouble},
	}}
}

// TestParseFilters tests the filter DSL
func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters("integer=10", testSchema())
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, Filter{"integer", "=", 10}, filters[0])

	filters, err = ParseFilters("integer>=5, score<2.4", testSchema())
	require.NoError(t, err)
	require.Len(t, filters, 2)
	assert.Equal(t, Filter{"integer", ">=", 5}, filters[0])
	assert.Equal(t, Filter{"score", "<", 2}, filters[1])

	expected, _ := ToInt("bob")
	filters, err = ParseFilters("name='bob'", testSchema())
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, Filter{"name", "=", expected}, filters[0])
}

// TestParseFiltersEmpty tests that an empty filter string parses to nothing
func TestParseFiltersEmpty(t *testing.T) {
	filters, err := ParseFilters("", testSchema())
	require.NoError(t, err)
	assert.Nil(t, filters)
}

// TestParseFiltersErrors tests rejection of malformed filters
func TestParseFiltersErrors(t *testing.T) {
	_, err := ParseFilters("integer", testSchema())
	assert.Error(t, err)

	_, err = ParseFilters("unknown=1", testSchema())
	assert.Error(t, err)

	_, err = ParseFilters("integer=ten", testSchema())
	assert.Error(t, err)

	_, err = ParseFilters("integer=", testSchema())
	assert.Error(t, err)
}

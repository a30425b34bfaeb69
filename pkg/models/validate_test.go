package models

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
)

// TestIsIdentifier tests the identifier rule over a fixed corpus, and that
// the exported pattern agrees with the checker
func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"tester", true},
		{"_private", true},
		{"Table_01", true},
		{"a", true},
		{"_", true},
		{"CamelCase", true},
		{"", false},
		{"$owner", false},
		{"1table", false},
		{"has space", false},
		{"has-dash", false},
		{"dotted.name", false},
		{"emoji😀", false},
		{"tab\tname", false},
	}

	pattern := regexp.MustCompile(IdentifierPattern)
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsIdentifier(tt.value))
			assert.Equal(t, tt.valid, pattern.MatchString(tt.value))
		})
	}
}

// TestIsShaOrHead tests the commit sha path parameter rule
func TestIsShaOrHead(t *testing.T) {
	assert.True(t, IsShaOrHead("head"))
	assert.True(t, IsShaOrHead("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"))
	assert.False(t, IsShaOrHead("HEAD"))
	assert.False(t, IsShaOrHead("0123"))
	assert.False(t, IsShaOrHead("0123456789ABCDEF0123456789abcdef0123456789abcdef0123456789abcdef"))
}

// TestSchemaValidate tests column and uniqueness checks
func TestSchemaValidate(t *testing.T) {
	valid := Schema{Columns: []Column{
		{Name: "id"},
		{Name: "name", Aliases: []string{"label"}},
	}}
	assert.NoError(t, valid.Validate())

	badName := Schema{Columns: []Column{{Name: "1st"}}}
	var entryErr *terrors.DataEntryError
	require.ErrorAs(t, badName.Validate(), &entryErr)

	duplicateAlias := Schema{Columns: []Column{
		{Name: "id"},
		{Name: "name", Aliases: []string{"id"}},
	}}
	require.ErrorAs(t, duplicateAlias.Validate(), &entryErr)
}

// TestOwnerValidate tests owner entry validation
func TestOwnerValidate(t *testing.T) {
	owner := OwnerEntry{Name: "tester", Type: OwnerTypeIndividual}
	assert.NoError(t, owner.Validate())

	owner.Name = "$owner"
	var entryErr *terrors.DataEntryError
	require.ErrorAs(t, owner.Validate(), &entryErr)
	assert.Equal(t, []string{"name"}, entryErr.Fields)

	owner = OwnerEntry{Name: "tester", Type: OwnerType("CLUB")}
	require.ErrorAs(t, owner.Validate(), &entryErr)
}

// TestTableValidate tests the partitioning-in-schema invariant
func TestTableValidate(t *testing.T) {
	table := TableCatalogEntry{
		Name:          "t1",
		CurrentSchema: Schema{Columns: []Column{{Name: "c"}}},
		Partitioning:  []string{"c"},
	}
	assert.NoError(t, table.Validate())

	table.Partitioning = []string{"missing"}
	var entryErr *terrors.DataEntryError
	require.ErrorAs(t, table.Validate(), &entryErr)
	assert.Equal(t, []string{"partitioning"}, entryErr.Fields)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
)

func baseSchema() Schema {
	return Schema{Columns: []Column{
		{Name: "id", Type: TypeInteger},
		{Name: "name", Type: TypeVarchar},
		{Name: "active", Type: TypeBoolean},
		{Name: "born", Type: TypeDate},
	}}
}

func assertTransitionError(t *testing.T, err error) {
	t.Helper()
	var transition *terrors.InvalidSchemaTransitionError
	require.ErrorAs(t, err, &transition)
}

// TestSchemaUpdateIdentity tests that an unchanged schema is accepted
func TestSchemaUpdateIdentity(t *testing.T) {
	assert.NoError(t, ValidateSchemaUpdate(baseSchema(), baseSchema()))
}

// TestSchemaUpdateAddedColumn tests the added-column rules
func TestSchemaUpdateAddedColumn(t *testing.T) {
	updated := baseSchema()
	updated.Columns = append(updated.Columns, Column{Name: "region", Type: TypeVarchar})
	assertTransitionError(t, ValidateSchemaUpdate(baseSchema(), updated))

	updated.Columns[len(updated.Columns)-1].Default = "emea"
	assert.NoError(t, ValidateSchemaUpdate(baseSchema(), updated))
}

// TestSchemaUpdateAliasCollision tests that duplicate names or aliases fail
func TestSchemaUpdateAliasCollision(t *testing.T) {
	updated := baseSchema()
	updated.Columns[1].Aliases = []string{"id"}
	assertTransitionError(t, ValidateSchemaUpdate(baseSchema(), updated))
}

// TestSchemaUpdateRename tests column renames via aliases
func TestSchemaUpdateRename(t *testing.T) {
	updated := baseSchema()
	updated.Columns[1] = Column{Name: "full_name", Type: TypeVarchar, Default: "", Aliases: []string{"name"}}
	assert.NoError(t, ValidateSchemaUpdate(baseSchema(), updated))
}

// TestSchemaUpdateRenameAmbiguous tests a rename referencing two old
// columns
func TestSchemaUpdateRenameAmbiguous(t *testing.T) {
	current := Schema{Columns: []Column{
		{Name: "first", Type: TypeVarchar},
		{Name: "second", Type: TypeVarchar},
	}}
	updated := Schema{Columns: []Column{
		{Name: "merged", Type: TypeVarchar, Default: "", Aliases: []string{"first", "second"}},
	}}
	assertTransitionError(t, ValidateSchemaUpdate(current, updated))
}

// TestSchemaUpdateTypeChanges tests the safe-transition whitelist
func TestSchemaUpdateTypeChanges(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		newType ColumnType
		allowed bool
	}{
		{name: "integer to double", column: "id", newType: TypeDouble, allowed: true},
		{name: "boolean to integer", column: "active", newType: TypeInteger, allowed: true},
		{name: "date to timestamp", column: "born", newType: TypeTimestamp, allowed: true},
		{name: "integer to varchar", column: "id", newType: TypeVarchar, allowed: false},
		{name: "varchar to integer", column: "name", newType: TypeInteger, allowed: false},
		{name: "integer to blob", column: "id", newType: TypeBlob, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := baseSchema()
			for i := range updated.Columns {
				if updated.Columns[i].Name == tt.column {
					updated.Columns[i].Type = tt.newType
				}
			}

			err := ValidateSchemaUpdate(baseSchema(), updated)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assertTransitionError(t, err)
			}
		})
	}
}

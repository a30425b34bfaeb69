package models

import (
	"regexp"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
)

// IdentifierPattern is the rule for owner, table, view, and column names
const IdentifierPattern = `^[A-Za-z_][A-Za-z0-9_]*$`

// ShaOrHeadPattern matches a full commit sha or the literal "head"
const ShaOrHeadPattern = `^(head|[a-f0-9]{64})$`

var (
	identifierRegex = regexp.MustCompile(IdentifierPattern)
	shaOrHeadRegex  = regexp.MustCompile(ShaOrHeadPattern)
)

// IsIdentifier reports whether name is a valid identifier
func IsIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

// IsShaOrHead reports whether value is a commit sha or "head"
func IsShaOrHead(value string) bool {
	return shaOrHeadRegex.MatchString(value)
}

// Validate checks the column name is a usable identifier
func (c Column) Validate() error {
	if !IsIdentifier(c.Name) {
		return &terrors.DataEntryError{
			Fields:  []string{"name"},
			Message: "Column names cannot start with a digit and can only contain alphanumerics and underscores.",
		}
	}
	return nil
}

// Validate checks every column and that names plus aliases are unique
func (s Schema) Validate() error {
	seen := map[string]bool{}
	for _, column := range s.Columns {
		if err := column.Validate(); err != nil {
			return err
		}
		for _, name := range column.AllNames() {
			if seen[name] {
				return &terrors.DataEntryError{
					Fields:  []string{"columns"},
					Message: "Column names and aliases must be unique across the schema.",
				}
			}
			seen[name] = true
		}
	}
	return nil
}

// Validate checks the owner entry fields
func (o OwnerEntry) Validate() error {
	if !IsIdentifier(o.Name) {
		return &terrors.DataEntryError{
			Fields:  []string{"name"},
			Message: "Owner name cannot start with a digit and can only contain alphanumerics and underscores.",
		}
	}
	if o.Type != OwnerTypeOrganization && o.Type != OwnerTypeIndividual {
		return &terrors.DataEntryError{
			Fields:  []string{"type"},
			Message: "Owner type must be ORGANIZATION or INDIVIDUAL.",
		}
	}
	return nil
}

// Validate checks the table entry invariants that do not need the catalog:
// a valid name, a valid schema, and partitioning columns present in it.
func (t TableCatalogEntry) Validate() error {
	if !IsIdentifier(t.Name) {
		return &terrors.DataEntryError{
			Fields:  []string{"name"},
			Message: "Table name cannot start with a digit and can only contain alphanumerics and underscores.",
		}
	}
	if err := t.CurrentSchema.Validate(); err != nil {
		return err
	}
	known := map[string]bool{}
	for _, column := range t.CurrentSchema.Columns {
		for _, name := range column.AllNames() {
			known[name] = true
		}
	}
	for _, partition := range t.Partitioning {
		if !known[partition] {
			return &terrors.DataEntryError{
				Fields:  []string{"partitioning"},
				Message: "Partitioning columns must appear in the table schema.",
			}
		}
	}
	return nil
}

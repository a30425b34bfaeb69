package models

import (
	"fmt"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
)

// safeTypeTransitions lists the only widening type changes a schema update
// may make. Everything else is rejected.
var safeTypeTransitions = map[ColumnType]map[ColumnType]bool{
	TypeInteger: {TypeDouble: true},
	TypeBoolean: {TypeInteger: true},
	TypeDate:    {TypeTimestamp: true},
}

func allNamesAndAliases(columns []Column) []string {
	names := []string{}
	for _, column := range columns {
		names = append(names, column.AllNames()...)
	}
	return names
}

func allUnique(names []string) bool {
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			return false
		}
		seen[name] = true
	}
	return true
}

func validateAddedColumns(current, updated Schema) error {
	if !allUnique(allNamesAndAliases(updated.Columns)) {
		return &terrors.InvalidSchemaTransitionError{
			Message: "Name or alias collision detected in the updated schema.",
		}
	}

	currentColumns := map[string]bool{}
	for _, column := range current.Columns {
		currentColumns[column.Name] = true
	}

	for _, column := range updated.Columns {
		if !currentColumns[column.Name] && column.Default == nil {
			return &terrors.InvalidSchemaTransitionError{
				Message: fmt.Sprintf("New column '%s' must have a default value.", column.Name),
			}
		}
	}
	return nil
}

func validateColumnRenaming(current, updated Schema) error {
	updatedNames := map[string]bool{}
	for _, column := range updated.Columns {
		updatedNames[column.Name] = true
	}

	// renamed[new] = old; a new column adopts an old name via its aliases
	renamed := map[string]string{}
	for _, old := range current.Columns {
		if updatedNames[old.Name] {
			continue
		}
		for _, column := range updated.Columns {
			aliased := false
			for _, alias := range column.Aliases {
				if alias == old.Name {
					aliased = true
					break
				}
			}
			if aliased {
				if previous, exists := renamed[column.Name]; exists {
					return &terrors.InvalidSchemaTransitionError{
						Message: fmt.Sprintf("Column '%s' cannot alias multiple columns: %s and %s.", column.Name, previous, old.Name),
					}
				}
				renamed[column.Name] = old.Name
				break
			}
		}
	}

	targets := map[string]bool{}
	for _, old := range renamed {
		if targets[old] {
			return &terrors.InvalidSchemaTransitionError{
				Message: "Renamed columns must reference unique columns.",
			}
		}
		targets[old] = true
	}
	return nil
}

func validateTypeChanges(current, updated Schema) error {
	updatedColumns := map[string]Column{}
	for _, column := range updated.Columns {
		updatedColumns[column.Name] = column
	}

	for _, old := range current.Columns {
		column, exists := updatedColumns[old.Name]
		if !exists || old.Type == column.Type {
			continue
		}
		if !safeTypeTransitions[old.Type][column.Type] {
			return &terrors.InvalidSchemaTransitionError{
				Message: fmt.Sprintf("Invalid type change for column '%s' from %s to %s.", old.Name, old.Type, column.Type),
			}
		}
	}
	return nil
}

// ValidateSchemaUpdate checks a proposed schema evolution: added columns need
// defaults, renames must alias unique old columns, and type changes are
// limited to the safe widening transitions.
func ValidateSchemaUpdate(current, updated Schema) error {
	if err := validateAddedColumns(current, updated); err != nil {
		return err
	}
	if err := validateColumnRenaming(current, updated); err != nil {
		return err
	}
	return validateTypeChanges(current, updated)
}

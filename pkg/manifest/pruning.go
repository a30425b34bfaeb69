package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// Filter is one conjunct of a pushdown filter, with the comparison value
// already packed by ToInt
type Filter struct {
	Column string
	Op     string
	Value  int64
}

// Prune reports whether the entry's bounds make it impossible for any record
// to satisfy the filters. Entries with a missing bound for a column are
// never pruned on that column.
func Prune(entry Entry, filters []Filter) bool {
	for _, filter := range filters {
		lower, hasLower := entry.LowerBounds[filter.Column]
		upper, hasUpper := entry.UpperBounds[filter.Column]
		if !hasLower || !hasUpper {
			continue
		}

		switch filter.Op {
		case "=":
			if lower > filter.Value || upper < filter.Value {
				return true
			}
		case ">", ">=":
			if upper < filter.Value {
				return true
			}
		case "<", "<=":
			if lower > filter.Value {
				return true
			}
		}
	}
	return false
}

// ParseFilters parses the filter DSL 'col<op>value[, ...]' with operators
// =, <, <=, >, >=. String literals are single-quoted. Values are packed with
// the same rules used when the manifest was built.
func ParseFilters(filterString string, schema models.Schema) ([]Filter, error) {
	if filterString == "" {
		return nil, nil
	}

	var filters []Filter
	for _, item := range strings.Split(filterString, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		column, op, value, err := splitFilter(item)
		if err != nil {
			return nil, err
		}

		packed, err := parseValue(column, value, schema)
		if err != nil {
			return nil, err
		}
		filters = append(filters, Filter{Column: column, Op: op, Value: packed})
	}
	return filters, nil
}

func splitFilter(item string) (column, op, value string, err error) {
	index := strings.IndexAny(item, "<>=")
	if index <= 0 {
		return "", "", "", &terrors.InvalidFilterError{Message: fmt.Sprintf("filter '%s' has no operator", item)}
	}

	op = string(item[index])
	rest := index + 1
	if (op == "<" || op == ">") && rest < len(item) && item[rest] == '=' {
		op += "="
		rest++
	}

	column = strings.TrimSpace(item[:index])
	value = strings.TrimSpace(item[rest:])
	if value == "" {
		return "", "", "", &terrors.InvalidFilterError{Message: fmt.Sprintf("filter '%s' has no value", item)}
	}
	return column, op, value, nil
}

func parseValue(column, value string, schema models.Schema) (int64, error) {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		value = value[1 : len(value)-1]
	}

	for _, col := range schema.Columns {
		found := false
		for _, name := range col.AllNames() {
			if name == column {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		return packTyped(col.Type, value)
	}
	return 0, &terrors.InvalidFilterError{Message: fmt.Sprintf("filter column '%s' is not in the table schema", column)}
}

func packTyped(columnType models.ColumnType, value string) (int64, error) {
	switch columnType {
	case models.TypeBoolean:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return 0, &terrors.InvalidFilterError{Message: fmt.Sprintf("'%s' is not a boolean", value)}
		}
		packed, _ := ToInt(parsed)
		return packed, nil
	case models.TypeInteger:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, &terrors.InvalidFilterError{Message: fmt.Sprintf("'%s' is not an integer", value)}
		}
		return parsed, nil
	case models.TypeDouble, models.TypeDecimal:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, &terrors.InvalidFilterError{Message: fmt.Sprintf("'%s' is not a number", value)}
		}
		packed, _ := ToInt(parsed)
		return packed, nil
	case models.TypeDate:
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			return 0, &terrors.InvalidFilterError{Message: fmt.Sprintf("'%s' is not a date", value)}
		}
		return parsed.Unix(), nil
	case models.TypeTimestamp:
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			parsed, err = time.Parse("2006-01-02 15:04:05", value)
		}
		if err != nil {
			return 0, &terrors.InvalidFilterError{Message: fmt.Sprintf("'%s' is not a timestamp", value)}
		}
		packed, _ := ToInt(parsed)
		return packed, nil
	case models.TypeTime:
		parsed, err := time.Parse("15:04:05", value)
		if err != nil {
			return 0, &terrors.InvalidFilterError{Message: fmt.Sprintf("'%s' is not a time", value)}
		}
		return TimeToInt(parsed.Hour(), parsed.Minute(), parsed.Second()), nil
	default:
		packed, _ := ToInt(value)
		return packed, nil
	}
}

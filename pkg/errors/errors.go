// Package errors defines the error taxonomy for the catalog service.
//
// Errors here are typed so the API layer can map them to HTTP statuses with
// errors.As; everything unclassified surfaces as a 500 with a correlation id.
package errors

import "fmt"

// DataEntryError reports invalid user input, carrying the offending fields.
type DataEntryError struct {
	Fields  []string
	Message string
}

func (e *DataEntryError) Error() string {
	return e.Message
}

// TableNotFoundError is returned when a table cannot be resolved.
type TableNotFoundError struct {
	Owner string
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table '%s.%s' does not exist", e.Owner, e.Table)
}

func (e *TableNotFoundError) notFound() {}

// OwnerNotFoundError is returned when an owner cannot be resolved.
type OwnerNotFoundError struct {
	Owner string
}

func (e *OwnerNotFoundError) Error() string {
	return fmt.Sprintf("owner '%s' does not exist", e.Owner)
}

func (e *OwnerNotFoundError) notFound() {}

// ViewNotFoundError is returned when a view cannot be resolved.
type ViewNotFoundError struct {
	Owner string
	View  string
}

func (e *ViewNotFoundError) Error() string {
	return fmt.Sprintf("view '%s.%s' does not exist", e.Owner, e.View)
}

func (e *ViewNotFoundError) notFound() {}

// CommitNotFoundError is returned when a commit blob cannot be read.
type CommitNotFoundError struct {
	Root   string
	Commit string
}

func (e *CommitNotFoundError) Error() string {
	return fmt.Sprintf("commit '%s' not found under '%s'", e.Commit, e.Root)
}

func (e *CommitNotFoundError) notFound() {}

// notFounder is implemented by all not-found errors.
type notFounder interface {
	notFound()
}

// IsNotFound reports whether err is any of the not-found error types.
func IsNotFound(err error) bool {
	_, ok := err.(notFounder)
	return ok
}

// AlreadyExistsError is returned on duplicate-name creation attempts and
// other conflicts surfaced as 409.
type AlreadyExistsError struct {
	Entity  string
	Message string
}

func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("'%s' already exists", e.Entity)
}

// TransactionError covers missing, malformed, expired, or stale transactions.
type TransactionError struct {
	Message string
}

func (e *TransactionError) Error() string {
	return e.Message
}

// InvalidSchemaTransitionError reports a disallowed schema evolution.
type InvalidSchemaTransitionError struct {
	Message string
}

func (e *InvalidSchemaTransitionError) Error() string {
	return e.Message
}

// InvalidFilterError reports an unparseable pushdown filter.
type InvalidFilterError struct {
	Message string
}

func (e *InvalidFilterError) Error() string {
	return e.Message
}

// DataError reports a data file that does not satisfy the table schema.
type DataError struct {
	Message string
}

func (e *DataError) Error() string {
	return e.Message
}

// UnableToReadBlobError reports a dependency failure reading a blob.
type UnableToReadBlobError struct {
	Location string
}

func (e *UnableToReadBlobError) Error() string {
	return fmt.Sprintf("unable to read '%s'", e.Location)
}

// MissingDependencyError reports an unavailable backend driver.
type MissingDependencyError struct {
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("dependency '%s' is not available", e.Dependency)
}

// InvalidConfigurationError reports a bad configuration value.
type InvalidConfigurationError struct {
	Setting string
	Source  string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("configuration value for %s in %s does not contain a valid value", e.Setting, e.Source)
	}
	return fmt.Sprintf("configuration value for %s does not contain a valid value", e.Setting)
}

// UnmetRequirementError reports an environment that cannot satisfy a guarantee
// the service relies on, such as a catalog without conditional updates.
type UnmetRequirementError struct {
	Message string
}

func (e *UnmetRequirementError) Error() string {
	return e.Message
}

// Package domain defines the metastore records, notifications, ports and
// errors shared by the sync engine and its collaborators.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input, e.g. a notification missing the
// records its kind requires.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// RenameStep identifies a step of the table rename migration.
type RenameStep string

// Rename migration steps, in execution order.
const (
	RenameStepCreateTable    RenameStep = "create_table"
	RenameStepCopyPartitions RenameStep = "copy_partitions"
	RenameStepDeleteOldTable RenameStep = "delete_old_table"
)

// PartialMigrationError reports a table rename that failed after the new
// table was created. The new table is left in place and must be reconciled
// by an operator.
type PartialMigrationError struct {
	Database string
	OldTable string
	NewTable string
	Step     RenameStep
	Err      error
}

func (e *PartialMigrationError) Error() string {
	return fmt.Sprintf("rename %s.%s -> %s.%s partially applied (failed at %s): %v",
		e.Database, e.OldTable, e.Database, e.NewTable, e.Step, e.Err)
}

func (e *PartialMigrationError) Unwrap() error { return e.Err }

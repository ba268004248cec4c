package models

import (
	"fmt"
	"strings"
)

var (
	// ErrInvalidExtension means the extension is empty after removing a leading dot
	ErrInvalidExtension = fmt.Errorf("Invalid extension")
	// ErrInvalidTimestamp means the timestamp can not be converted to a UTC instant
	ErrInvalidTimestamp = fmt.Errorf("Invalid timestamp")
	// ErrMalformedPath means the path does not have year/month/day/file-name shape
	ErrMalformedPath = fmt.Errorf("Malformed path")
	// ErrInvalidCalendarDate means the numeric fields are not a single valid UTC instant
	ErrInvalidCalendarDate = fmt.Errorf("Ambiguous or invalid calendar date")
)

// InvalidFieldError indicates a path field that is not an integer.
type InvalidFieldError struct {
	Field string
	Value string
}

func (x *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s in the file name: %s", x.Field, x.Value)
}

// StorageError wraps any failure of the key-value backend or data read from it.
type StorageError struct {
	Detail string
	Err    error
}

// NewStorageError wraps err with a formatted detail message.
func NewStorageError(err error, format string, args ...interface{}) *StorageError {
	return &StorageError{
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (x *StorageError) Error() string {
	if x.Err == nil {
		return "Storage error: " + x.Detail
	}
	return "Storage error: " + x.Detail + ": " + x.Err.Error()
}

func (x *StorageError) Unwrap() error { return x.Err }

// Cause is for github.com/pkg/errors.Cause
func (x *StorageError) Cause() error { return x.Err }

// PartialIngestionError is returned when all index levels were merged but
// some collection records could not be written. The index can list keys
// that have no record yet.
type PartialIngestionError struct {
	SucceededLevels []string
	FailedItem      string
	FailedItems     []string
	Err             error
}

func (x *PartialIngestionError) Error() string {
	return fmt.Sprintf("Partial ingestion failure (levels %s written, %d records failed, first %s): %v",
		strings.Join(x.SucceededLevels, ","), len(x.FailedItems), x.FailedItem, x.Err)
}

func (x *PartialIngestionError) Unwrap() error { return x.Err }

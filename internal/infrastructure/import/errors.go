package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeRequiredField     = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidFormat     = "ERR_IMPORT_INVALID_FORMAT"
	ErrCodeInvalidValue      = "ERR_IMPORT_INVALID_VALUE"
	ErrCodeDuplicateInFile   = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeDuplicateInDB     = "ERR_IMPORT_DUPLICATE_IN_DB"
	ErrCodeInconsistentGroup = "ERR_IMPORT_INCONSISTENT_GROUP"
	ErrCodeCreateFailed      = "ERR_IMPORT_CREATE_FAILED"
)

// File level errors
var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrNoDataRows      = errors.New("CSV file contains no data rows")
	ErrTooManyRows     = errors.New("CSV file has too many rows")
)

// RowError is a problem with one field or row of the file
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// NewRowErrorWithValue creates a new RowError carrying the rejected value
func NewRowErrorWithValue(row int, column, code, message, value string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message, Value: value}
}

// ErrorCollection keeps the first maxErrors errors and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection. maxErrors <= 0 means 100.
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records err; nil is ignored
func (ec *ErrorCollection) Add(err *RowError) {
	if err == nil {
		return
	}
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, *err)
	}
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// Count returns every error added, kept or not
func (ec *ErrorCollection) Count() int {
	return ec.totalCount
}

// Truncated reports whether errors were dropped
func (ec *ErrorCollection) Truncated() bool {
	return ec.totalCount > len(ec.errors)
}

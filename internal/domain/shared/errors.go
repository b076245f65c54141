package shared

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so wrapped sentinels match.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_INVENTORY", "Insufficient inventory available")
)

// Validation issue types
const (
	IssueNotFound    = "not_found"
	IssueNotUnique   = "not_unique"
	IssueInvalidData = "invalid_data"
)

// ValidationIssue is a single failure entry of a ValidationError
type ValidationIssue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ValidationError carries every issue found while validating a request.
// Not-found and not-unique lookups are reported through it as well.
type ValidationError struct {
	Issues []ValidationIssue `json:"issues"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// Kind returns the type of the first issue, which decides the HTTP status.
func (e *ValidationError) Kind() string {
	if len(e.Issues) == 0 {
		return IssueInvalidData
	}
	return e.Issues[0].Type
}

// Is lets errors.Is(err, ErrNotFound) match a not-found validation error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrNotFound && e.Kind() == IssueNotFound
}

// NewValidationError creates a validation error from issues
func NewValidationError(issues ...ValidationIssue) *ValidationError {
	return &ValidationError{Issues: issues}
}

// NewInvalidDataError creates a single-issue schema validation error
func NewInvalidDataError(path, message string) *ValidationError {
	return NewValidationError(ValidationIssue{Type: IssueInvalidData, Message: message, Path: path})
}

// NewNotFoundError reports a missing entity
func NewNotFoundError(entity string, id any) *ValidationError {
	return NewValidationError(ValidationIssue{
		Type:    IssueNotFound,
		Message: fmt.Sprintf("%s with id %v was not found", entity, id),
		Path:    "id",
	})
}

// NewNotUniqueError reports a uniqueness violation on field
func NewNotUniqueError(entity, field string, value any) *ValidationError {
	return NewValidationError(ValidationIssue{
		Type:    IssueNotUnique,
		Message: fmt.Sprintf("%s with %s %v already exists", entity, field, value),
		Path:    field,
	})
}

// IsNotFound reports whether err represents a missing resource
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotUnique reports whether err is a uniqueness violation
func IsNotUnique(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Kind() == IssueNotUnique
}

// Validator accumulates issues so a caller can report all of them at once.
type Validator struct {
	issues []ValidationIssue
}

// Check records an invalid_data issue at path when ok is false.
func (v *Validator) Check(ok bool, path, message string) {
	if !ok {
		v.issues = append(v.issues, ValidationIssue{Type: IssueInvalidData, Message: message, Path: path})
	}
}

// Add records an arbitrary issue
func (v *Validator) Add(issue ValidationIssue) {
	v.issues = append(v.issues, issue)
}

// Merge appends the issues of err when it is a ValidationError and reports whether it was one.
func (v *Validator) Merge(err error) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		v.issues = append(v.issues, verr.Issues...)
		return true
	}
	return false
}

// Err returns the accumulated error, or nil when no issue was recorded.
func (v *Validator) Err() error {
	if len(v.issues) == 0 {
		return nil
	}
	return NewValidationError(v.issues...)
}

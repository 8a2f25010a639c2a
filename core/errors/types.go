// ABOUTME: Custom error types for the ingestion core
// ABOUTME: Classifies failures so the pipeline can decide between skipping a source, a URL or a field

package errors

import (
	"errors"
	"fmt"
)

// ErrDuplicateArticle is returned by article stores when the URL already exists.
// It is not a failure: callers treat it as a no-op.
var ErrDuplicateArticle = errors.New("article already exists")

// FieldDate is the field name used for unresolved publication dates.
const FieldDate = "date"

// ConfigInvalidError means a source has no usable list URL or field rules.
// The affected source is skipped for the run.
type ConfigInvalidError struct {
	SourceCode string
	Reason     string
}

// Error implements the error interface
func (e *ConfigInvalidError) Error() string {
	if e.SourceCode == "" {
		return fmt.Sprintf("invalid source config: %s", e.Reason)
	}
	return fmt.Sprintf("invalid source config for %s: %s", e.SourceCode, e.Reason)
}

// FetchFailureError represents a network, timeout or non-2xx failure for one URL
type FetchFailureError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *FetchFailureError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s failed with status %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s failed: %v", e.URL, e.Err)
	}
}

// Unwrap returns the underlying transport error
func (e *FetchFailureError) Unwrap() error {
	return e.Err
}

// FieldUnresolvedError means every strategy for a field was exhausted.
type FieldUnresolvedError struct {
	Field string
	URL   string
}

// Error implements the error interface
func (e *FieldUnresolvedError) Error() string {
	return fmt.Sprintf("field %q unresolved for %s", e.Field, e.URL)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ExternalAPIError represents an error from an external API
type ExternalAPIError struct {
	StatusCode int
	Message    string
	API        string
}

// Error implements the error interface
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("external API error from %s: %d - %s", e.API, e.StatusCode, e.Message)
}

// IsConfigInvalid checks if an error is a ConfigInvalidError
func IsConfigInvalid(err error) bool {
	var cfgErr *ConfigInvalidError
	return errors.As(err, &cfgErr)
}

// IsFetchFailure checks if an error is a FetchFailureError
func IsFetchFailure(err error) bool {
	var fetchErr *FetchFailureError
	return errors.As(err, &fetchErr)
}

// IsFieldUnresolved checks if an error is a FieldUnresolvedError for any field
func IsFieldUnresolved(err error) bool {
	var fieldErr *FieldUnresolvedError
	return errors.As(err, &fieldErr)
}

// IsDateUnresolved checks if an error is a FieldUnresolvedError for the date field
func IsDateUnresolved(err error) bool {
	var fieldErr *FieldUnresolvedError
	return errors.As(err, &fieldErr) && fieldErr.Field == FieldDate
}

// IsDuplicate checks if an error marks an already-stored article
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateArticle)
}

// IsRecoverable reports whether processing may continue past err.
// Only ConfigInvalid stops work, and only for its own source.
func IsRecoverable(err error) bool {
	return err == nil || !IsConfigInvalid(err)
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsExternalAPI checks if an error is an ExternalAPIError
func IsExternalAPI(err error) bool {
	var apiErr *ExternalAPIError
	return errors.As(err, &apiErr)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

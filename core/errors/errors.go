// Package errors provides the typed error taxonomy for schemeta.
//
// Every error type unwraps to a sentinel so callers can branch with
// errors.Is without caring about the concrete struct.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrEncoding indicates text could not be decoded or encoded
	ErrEncoding = errors.New("encoding failure")
	// ErrDuplicateIdentifier indicates a record identifier occurs more than once
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	// ErrEmptyMetadata indicates a metadata table without records
	ErrEmptyMetadata = errors.New("empty metadata")
	// ErrEmptyData indicates a data table without records
	ErrEmptyData = errors.New("empty data")
	// ErrNoDataColumns indicates a data table without fields
	ErrNoDataColumns = errors.New("no data columns")
	// ErrIdentifierMismatch indicates metadata and data disagree on identifiers
	ErrIdentifierMismatch = errors.New("identifier mismatch")
	// ErrRowCountMismatch indicates metadata and data have different record counts
	ErrRowCountMismatch = errors.New("row count mismatch")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents malformed delimited input.
type ParseError struct {
	Format  string // Format being parsed (e.g., "CSV")
	Line    int    // 1-based line number, 0 when unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// EncodingError represents a text decode or encode failure.
type EncodingError struct {
	Encoding string // Encoding label as given by the caller
	Message  string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encoding %s: %s: %v", e.Encoding, e.Message, e.Err)
	}
	return fmt.Sprintf("encoding %s: %s", e.Encoding, e.Message)
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// DuplicateIdentifierError reports the first identifier seen twice.
type DuplicateIdentifierError struct {
	Identifier string
	First      int // position of the first occurrence
	Second     int // position of the repeat
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier %q at positions %d and %d", e.Identifier, e.First, e.Second)
}

func (e *DuplicateIdentifierError) Unwrap() error {
	return ErrDuplicateIdentifier
}

// EmptyMetadataError is returned when a split yields metadata without records.
type EmptyMetadataError struct{}

func (e *EmptyMetadataError) Error() string {
	return "metadata table has no records"
}

func (e *EmptyMetadataError) Unwrap() error {
	return ErrEmptyMetadata
}

// EmptyDataError is returned when a split yields data without records.
type EmptyDataError struct{}

func (e *EmptyDataError) Error() string {
	return "data table has no records"
}

func (e *EmptyDataError) Unwrap() error {
	return ErrEmptyData
}

// NoDataColumnsError is returned when nothing is left after the metadata fields.
type NoDataColumnsError struct {
	Fields        int // total number of fields in the source
	MetadataCount int
}

func (e *NoDataColumnsError) Error() string {
	return fmt.Sprintf("data table has no fields: %d field(s) with metadata count %d", e.Fields, e.MetadataCount)
}

func (e *NoDataColumnsError) Unwrap() error {
	return ErrNoDataColumns
}

// IdentifierMismatchError lists identifiers present on only one side of a pair.
type IdentifierMismatchError struct {
	MissingFromData     []string // in metadata, not in data
	MissingFromMetadata []string // in data, not in metadata
}

func (e *IdentifierMismatchError) Error() string {
	var parts []string
	if len(e.MissingFromData) > 0 {
		parts = append(parts, "missing from data: "+summarize(e.MissingFromData))
	}
	if len(e.MissingFromMetadata) > 0 {
		parts = append(parts, "missing from metadata: "+summarize(e.MissingFromMetadata))
	}
	if len(parts) == 0 {
		return "metadata and data identifiers differ"
	}
	return "metadata and data identifiers differ: " + strings.Join(parts, "; ")
}

func (e *IdentifierMismatchError) Unwrap() error {
	return ErrIdentifierMismatch
}

// RowCountMismatchError reports metadata and data record counts that differ.
type RowCountMismatchError struct {
	MetadataRows int
	DataRows     int
}

func (e *RowCountMismatchError) Error() string {
	return fmt.Sprintf("metadata has %d record(s) but data has %d", e.MetadataRows, e.DataRows)
}

func (e *RowCountMismatchError) Unwrap() error {
	return ErrRowCountMismatch
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

const maxListed = 5

// summarize quotes ids so that empty or space-padded identifiers stay visible.
func summarize(ids []string) string {
	n := min(len(ids), maxListed)
	quoted := make([]string, n)
	for i, id := range ids[:n] {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	list := strings.Join(quoted, ", ")
	if len(ids) > maxListed {
		return fmt.Sprintf("%s (and %d more)", list, len(ids)-maxListed)
	}
	return list
}

// Helper functions for creating common errors

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Line:    line,
		Message: message,
	}
}

// NewEncoding creates an EncodingError
func NewEncoding(encoding, message string, err error) *EncodingError {
	return &EncodingError{
		Encoding: encoding,
		Message:  message,
		Err:      err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

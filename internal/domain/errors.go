package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrEmptyPath indicates an entry path that is blank or resolves to the root
	ErrEmptyPath = errors.New("empty path")

	// ErrPathEscape indicates a path that is absolute or climbs above the root
	ErrPathEscape = errors.New("path escapes base directory")

	// ErrDuplicatePath indicates two entries share the same path
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrUnknownEncoding indicates an encoding outside the supported set
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrInvalidEOL indicates an unrecognized line-ending tag
	ErrInvalidEOL = errors.New("invalid eol style")

	// ErrInvalidChecksum indicates a checksum that is not a SHA-256 hex digest
	ErrInvalidChecksum = errors.New("invalid checksum")

	// ErrBaseDirMissing indicates the extraction base directory does not exist
	ErrBaseDirMissing = errors.New("base directory does not exist")

	// ErrNoEntries indicates an operation that needs at least one entry
	ErrNoEntries = errors.New("no entries")
)

// pathPreviewLimit is how many offending paths a FormatError names
const pathPreviewLimit = 3

// =============================================================================
// Codec Errors
// =============================================================================

// ParseError reports malformed bundle text
type ParseError struct {
	Profile string
	Line    int // 1-based, 0 if unknown
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s parse error at line %d: %s", e.Profile, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s parse error: %s", e.Profile, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(profile string, line int, reason string) *ParseError {
	return &ParseError{
		Profile: profile,
		Line:    line,
		Reason:  reason,
	}
}

// EncodingError reports content that cannot be represented in, or decoded
// from, its declared encoding
type EncodingError struct {
	Path     string
	Encoding string
	Reason   string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("encoding error for %s (%s): %s", e.Path, e.Encoding, e.Reason)
	}
	return fmt.Sprintf("encoding error (%s): %s", e.Encoding, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// NewEncodingError creates a new EncodingError
func NewEncodingError(path, encoding, reason string, err error) *EncodingError {
	return &EncodingError{
		Path:     path,
		Encoding: encoding,
		Reason:   reason,
		Err:      err,
	}
}

// FormatError reports a manifest a profile cannot represent
type FormatError struct {
	Profile string
	Reason  string
	Paths   []string
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s cannot format manifest: %s", e.Profile, e.Reason)
	if len(e.Paths) == 0 {
		return msg
	}
	return msg + ": " + PreviewPaths(e.Paths, pathPreviewLimit)
}

// NewFormatError creates a new FormatError
func NewFormatError(profile, reason string, paths ...string) *FormatError {
	return &FormatError{
		Profile: profile,
		Reason:  reason,
		Paths:   paths,
	}
}

// PreviewPaths joins at most limit paths and summarizes the remainder
func PreviewPaths(paths []string, limit int) string {
	if limit <= 0 || len(paths) <= limit {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:limit], ", "), len(paths)-limit)
}

// ProfileNotFoundError reports a lookup of an unregistered profile
type ProfileNotFoundError struct {
	Name      string
	Available []string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// DetectionError reports that no registered profile recognized the text
type DetectionError struct {
	Attempted []string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("could not detect bundle profile (tried: %s)", strings.Join(e.Attempted, ", "))
}

// =============================================================================
// Filesystem Errors
// =============================================================================

// OverwriteError reports an existing target under the error or prompt policy
type OverwriteError struct {
	Path string
}

func (e *OverwriteError) Error() string {
	return fmt.Sprintf("file already exists: %s", e.Path)
}

// WriteError reports a failure to materialize an entry
type WriteError struct {
	Path   string
	Reason string
	Err    error
}

func (e *WriteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("write failed for %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("write failed for %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewWriteError creates a new WriteError
func NewWriteError(path, reason string, err error) *WriteError {
	return &WriteError{
		Path:   path,
		Reason: reason,
		Err:    err,
	}
}

// ChecksumMismatchError reports decoded bytes that do not hash to the
// declared checksum
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// FileSizeError reports a discovered file over the configured limit
type FileSizeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *FileSizeError) Error() string {
	return fmt.Sprintf("%s is %d bytes, exceeds limit of %d", e.Path, e.Size, e.Limit)
}

// PatternError reports an invalid glob pattern
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsConflict reports whether err is an overwrite conflict a caller may resolve
// by retrying with another policy
func IsConflict(err error) bool {
	var overwrite *OverwriteError
	return errors.As(err, &overwrite)
}

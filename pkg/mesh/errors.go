package mesh

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies a load failure for programmatic handling. The set is
// closed: every error crossing the public Load entry point carries exactly
// one of these codes.
type ErrorCode string

const (
	// ErrCodeEmptyFile indicates a zero-byte input file.
	ErrCodeEmptyFile ErrorCode = "EmptyFile"

	// ErrCodeFileTooLarge indicates the file exceeded the configured
	// maximum byte count before any decode was attempted.
	ErrCodeFileTooLarge ErrorCode = "FileTooLarge"

	// ErrCodeFileReadFailed indicates the file bytes could not be read.
	ErrCodeFileReadFailed ErrorCode = "FileReadFailed"

	// ErrCodeParseFailed indicates decoding failed after the fallback
	// policy was exhausted.
	ErrCodeParseFailed ErrorCode = "ParseFailed"

	// ErrCodeUnsupportedFormat indicates no recognized format could be
	// detected for the input.
	ErrCodeUnsupportedFormat ErrorCode = "UnsupportedFormat"

	// ErrCodeMemoryLimit indicates the foreign decoder module ran out of
	// memory while decoding.
	ErrCodeMemoryLimit ErrorCode = "MemoryLimit"

	// ErrCodeTooManyTriangles indicates the decoded mesh exceeded the
	// configured triangle budget.
	ErrCodeTooManyTriangles ErrorCode = "TooManyTriangles"
)

// Severity indicates how a load failure should be surfaced.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ErrorContext carries the fields relevant to one error kind. Each kind has
// its own context type rather than an open-ended field bag.
type ErrorContext interface {
	errorContext()
}

// SizeContext is attached to FileTooLarge errors.
type SizeContext struct {
	// FileSizeBytes is the actual file size.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// MaxFileBytes is the configured limit that was exceeded.
	MaxFileBytes int64 `json:"max_file_bytes"`
}

// TriangleContext is attached to TooManyTriangles errors.
type TriangleContext struct {
	// Triangles is the decoded triangle count.
	Triangles int `json:"triangles"`

	// MaxTriangles is the configured limit that was exceeded.
	MaxTriangles int `json:"max_triangles"`
}

// ParseContext is attached to ParseFailed errors and references every
// decode attempt that was made for the load.
type ParseContext struct {
	// Format is the detected format variant, if any.
	Format Format `json:"format,omitempty"`

	// Attempts lists the failure reason of each decode attempt in order.
	// A load that exhausted the fallback policy lists exactly two.
	Attempts []string `json:"attempts"`
}

// FileContext is attached to EmptyFile and FileReadFailed errors.
type FileContext struct {
	// FileName is the name of the offending file.
	FileName string `json:"file_name"`
}

// FormatContext is attached to UnsupportedFormat errors.
type FormatContext struct {
	// FileName is the name of the offending file.
	FileName string `json:"file_name"`

	// MimeType is the declared MIME type, if any.
	MimeType string `json:"mime_type,omitempty"`
}

func (SizeContext) errorContext()     {}
func (TriangleContext) errorContext() {}
func (ParseContext) errorContext()    {}
func (FileContext) errorContext()     {}
func (FormatContext) errorContext()   {}

// LoaderError is a classified load failure. It is an immutable value
// constructed by the per-kind factory functions below and returned, never
// panicked, across the public load entry point.
type LoaderError struct {
	// Code is the machine-checkable error kind.
	Code ErrorCode `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Severity indicates how the failure should be surfaced.
	Severity Severity `json:"severity"`

	// Timestamp is when the error was constructed, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Context carries the kind-specific fields, if any.
	Context ErrorContext `json:"context,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *LoaderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *LoaderError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *LoaderError) Is(target error) bool {
	t, ok := target.(*LoaderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newLoaderError(code ErrorCode, severity Severity, message string, ctx ErrorContext, err error) *LoaderError {
	return &LoaderError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
		Context:   ctx,
		Err:       err,
	}
}

// NewEmptyFileError creates an EmptyFile error.
func NewEmptyFileError(fileName string) *LoaderError {
	return newLoaderError(ErrCodeEmptyFile, SeverityError,
		fmt.Sprintf("file %q is empty", fileName),
		FileContext{FileName: fileName}, nil)
}

// NewFileTooLargeError creates a FileTooLarge error.
func NewFileTooLargeError(size, max int64) *LoaderError {
	return newLoaderError(ErrCodeFileTooLarge, SeverityError,
		fmt.Sprintf("file size %d bytes exceeds the %d byte limit", size, max),
		SizeContext{FileSizeBytes: size, MaxFileBytes: max}, nil)
}

// NewFileReadFailedError creates a FileReadFailed error.
func NewFileReadFailedError(fileName string, err error) *LoaderError {
	return newLoaderError(ErrCodeFileReadFailed, SeverityError,
		fmt.Sprintf("failed to read %q", fileName),
		FileContext{FileName: fileName}, err)
}

// NewParseFailedError creates a ParseFailed error referencing the failure
// reason of every decode attempt made for the load.
func NewParseFailedError(format Format, attempts []string, err error) *LoaderError {
	return newLoaderError(ErrCodeParseFailed, SeverityError,
		fmt.Sprintf("mesh decode failed after %d attempt(s)", len(attempts)),
		ParseContext{Format: format, Attempts: attempts}, err)
}

// NewUnsupportedFormatError creates an UnsupportedFormat error.
func NewUnsupportedFormatError(fileName, mimeType string) *LoaderError {
	return newLoaderError(ErrCodeUnsupportedFormat, SeverityError,
		fmt.Sprintf("could not determine a supported mesh format for %q", fileName),
		FormatContext{FileName: fileName, MimeType: mimeType}, nil)
}

// NewMemoryLimitError creates a MemoryLimit error.
func NewMemoryLimitError(err error) *LoaderError {
	return newLoaderError(ErrCodeMemoryLimit, SeverityError,
		"foreign decoder module exhausted its memory", nil, err)
}

// NewTooManyTrianglesError creates a TooManyTriangles error.
func NewTooManyTrianglesError(triangles, max int) *LoaderError {
	return newLoaderError(ErrCodeTooManyTriangles, SeverityError,
		fmt.Sprintf("mesh has %d triangles, exceeding the %d triangle limit", triangles, max),
		TriangleContext{Triangles: triangles, MaxTriangles: max}, nil)
}

func hasCode(err error, code ErrorCode) bool {
	var e *LoaderError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsEmptyFile reports whether err is an EmptyFile error.
func IsEmptyFile(err error) bool { return hasCode(err, ErrCodeEmptyFile) }

// IsFileTooLarge reports whether err is a FileTooLarge error.
func IsFileTooLarge(err error) bool { return hasCode(err, ErrCodeFileTooLarge) }

// IsFileReadFailed reports whether err is a FileReadFailed error.
func IsFileReadFailed(err error) bool { return hasCode(err, ErrCodeFileReadFailed) }

// IsParseFailed reports whether err is a ParseFailed error.
func IsParseFailed(err error) bool { return hasCode(err, ErrCodeParseFailed) }

// IsUnsupportedFormat reports whether err is an UnsupportedFormat error.
func IsUnsupportedFormat(err error) bool { return hasCode(err, ErrCodeUnsupportedFormat) }

// IsMemoryLimit reports whether err is a MemoryLimit error.
func IsMemoryLimit(err error) bool { return hasCode(err, ErrCodeMemoryLimit) }

// IsTooManyTriangles reports whether err is a TooManyTriangles error.
func IsTooManyTriangles(err error) bool { return hasCode(err, ErrCodeTooManyTriangles) }

// Package errors provides the closed set of pipeline errors and their classification.
//
// Every failure that crosses a pipeline boundary is an *Error carrying a Code and a Class.
// The Class tells the failure dispatcher what to do with it:
//
//	ignorable   the event is not ours to process; log and return cleanly
//	reportable  publish a diagnostic message, then return cleanly
//	fatal       publish a diagnostic message, then return the error
//
// Usage:
//
//	if !allowed {
//	    return errors.UnsupportedExtensionf("invalid file extension: %s", key)
//	}
//
//	switch errors.Classify(err) {
//	case errors.ClassIgnorable:
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the pipelines.
const (
	CodeUnsupportedExtension Code = "UNSUPPORTED_EXTENSION"
	CodeUnsupportedFile      Code = "UNSUPPORTED_FILE"
	CodeUnsupportedPayload   Code = "UNSUPPORTED_PAYLOAD"
	CodeFFProbe              Code = "FFPROBE"
	CodeInputFormat          Code = "INPUT_FORMAT"
	CodeMediaInfo            Code = "MEDIAINFO"
	CodeElementalConvert     Code = "ELEMENTAL_CONVERT"
	CodeUnknownStatus        Code = "UNKNOWN_STATUS"
	CodeValidation           Code = "VALIDATION"
	CodeTemplate             Code = "TEMPLATE"
	CodeJobSettings          Code = "JOB_SETTINGS"
	CodeSubmission           Code = "SUBMISSION"
	CodeJobDetails           Code = "JOB_DETAILS"
	CodeNotification         Code = "NOTIFICATION"
	CodeStorage              Code = "STORAGE"
	CodeInternal             Code = "INTERNAL"
)

// Class tells the failure dispatcher how to treat an error.
type Class int

const (
	// ClassFatal errors are reported and returned to the caller.
	ClassFatal Class = iota
	// ClassReportable errors are reported and then swallowed.
	ClassReportable
	// ClassIgnorable errors are logged and swallowed.
	ClassIgnorable
)

// String returns the string representation of a Class.
func (c Class) String() string {
	switch c {
	case ClassIgnorable:
		return "ignorable"
	case ClassReportable:
		return "reportable"
	default:
		return "fatal"
	}
}

// Class returns the default classification for a code.
func (c Code) Class() Class {
	switch c {
	case CodeUnsupportedExtension:
		return ClassIgnorable
	case CodeElementalConvert:
		return ClassReportable
	default:
		return ClassFatal
	}
}

// HTTPStatus returns the status the local ingress answers with for a code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeUnsupportedPayload, CodeUnsupportedFile, CodeUnsupportedExtension:
		return http.StatusBadRequest
	case CodeInputFormat:
		return http.StatusUnprocessableEntity
	case CodeNotification, CodeSubmission, CodeJobDetails, CodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a pipeline error with a code, a class, a message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Class   Class  `json:"-"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Class:   e.Class,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Class:   e.Class,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Classify returns the class of err. Errors that are not *Error are fatal.
func Classify(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassFatal
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnsupportedExtension = New(CodeUnsupportedExtension, "unsupported file extension")
	ErrUnsupportedFile      = New(CodeUnsupportedFile, "unsupported file")
	ErrUnsupportedPayload   = New(CodeUnsupportedPayload, "unsupported payload")
	ErrFFProbe              = New(CodeFFProbe, "ffprobe failed")
	ErrInputFormat          = New(CodeInputFormat, "unsupported input format")
	ErrMediaInfo            = New(CodeMediaInfo, "mediainfo failed")
	ErrElementalConvert     = New(CodeElementalConvert, "transcoding failed")
	ErrUnknownStatus        = New(CodeUnknownStatus, "unknown job status")
	ErrValidation           = New(CodeValidation, "validation error")
	ErrTemplate             = New(CodeTemplate, "job template error")
	ErrJobSettings          = New(CodeJobSettings, "job settings error")
	ErrSubmission           = New(CodeSubmission, "job submission error")
	ErrJobDetails           = New(CodeJobDetails, "job details error")
	ErrNotification         = New(CodeNotification, "notification error")
	ErrStorage              = New(CodeStorage, "storage error")
	ErrInternal             = New(CodeInternal, "internal error")
)

// New creates an error with the default class for its code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Class: code.Class(), Message: msg}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Class: code.Class(), Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Class: code.Class(), Message: fmt.Sprintf(format, args...), cause: err}
}

// UnsupportedExtensionf signals that another pipeline owns this file extension.
func UnsupportedExtensionf(format string, args ...any) *Error {
	return Newf(CodeUnsupportedExtension, format, args...)
}

// UnsupportedFilef signals a key that does not look like a file.
func UnsupportedFilef(format string, args ...any) *Error {
	return Newf(CodeUnsupportedFile, format, args...)
}

// UnsupportedPayloadf signals a request payload that cannot be processed.
func UnsupportedPayloadf(format string, args ...any) *Error {
	return Newf(CodeUnsupportedPayload, format, args...)
}

// FFProbef creates a probing tool failure.
func FFProbef(format string, args ...any) *Error {
	return Newf(CodeFFProbe, format, args...)
}

// InputFormat creates an input content failure.
func InputFormat(msg string) *Error {
	return New(CodeInputFormat, msg)
}

// MediaInfof creates a mediainfo tool failure.
func MediaInfof(format string, args ...any) *Error {
	return Newf(CodeMediaInfo, format, args...)
}

// ElementalConvert creates an engine terminal failure.
func ElementalConvert(msg string) *Error {
	return New(CodeElementalConvert, msg)
}

// ElementalConvertf creates an engine terminal failure with formatted message.
func ElementalConvertf(format string, args ...any) *Error {
	return Newf(CodeElementalConvert, format, args...)
}

// UnknownStatusf creates an unknown job status failure.
func UnknownStatusf(format string, args ...any) *Error {
	return Newf(CodeUnknownStatus, format, args...)
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return New(CodeValidation, msg)
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Class: CodeValidation.Class(), Message: msg, Details: details}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

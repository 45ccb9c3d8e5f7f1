package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the structured error returned across component boundaries.
type AppError struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Context    string `json:"context,omitempty"`
	cause      error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Context != "" {
		msg = e.Context + ": " + msg
	}
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches on code so errors.Is(err, apperror.New(CodeNoQuote)) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Option configures an AppError.
type Option func(*AppError)

// WithMessage overrides the default message for the code.
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext records where the error happened.
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithStatusCode sets the HTTP status associated with the error.
func WithStatusCode(statusCode int) Option {
	return func(e *AppError) {
		e.StatusCode = statusCode
	}
}

// WithCause wraps an underlying error.
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// New creates an AppError with the default message for code.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: defaultStatusCode(code),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// Validation creates a validation error with a specific message.
func Validation(message string) *AppError {
	return New(CodeValidationError, WithMessage(message))
}

// Wrap converts err into an AppError with the given code. Errors that
// already are AppErrors pass through unchanged.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(code, WithContext(context), WithCause(err))
}

// GetCode extracts the code from err.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage returns the text to show an end user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func defaultStatusCode(code Code) int {
	switch code {
	case CodeValidationError, CodeNoQuote, CodeNoSigner:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSwapInProgress:
		return http.StatusConflict
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeQuoteFailed, CodeSwapBuildFailed, CodeBackendError, CodeSubmissionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

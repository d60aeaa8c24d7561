package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrStoreUnavailable  = errors.New("vector store unavailable")
	ErrEmbedding         = errors.New("embedding provider error")
	ErrGeneration        = errors.New("generation provider error")
	ErrIngestionRunning  = errors.New("ingestion already running")
	ErrJobNotFound       = errors.New("job not found")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Validation error codes.
const (
	CodeInvalidBody      = "invalid_body"
	CodeEmptyMessages    = "empty_messages"
	CodeTooManyMessages  = "too_many_messages"
	CodeInvalidMessage   = "invalid_message"
	CodeTextTooLong      = "text_too_long"
	CodeNoUserMessage    = "no_user_message"
	CodeEmptyUserMessage = "empty_user_message"
	CodeInvalidQuery     = "invalid_query"
	CodeInvalidLimit     = "invalid_limit"
	CodeInvalidAction    = "invalid_action"
)

// ValidationError is a malformed request; it is rejected before any side effect.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a ValidationError.
func NewValidationError(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// FetchError means a source could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnsupportedFormatError means the source content type is not handled by the pipeline.
type UnsupportedFormatError struct {
	URL         string
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q for %s", e.ContentType, e.URL)
}

// EmbeddingError wraps a provider failure (rate limit, auth, network).
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrEmbedding) match any EmbeddingError.
func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }

// GenerationError wraps a chat completion failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGeneration) match any GenerationError.
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

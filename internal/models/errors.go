package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type ErrorKind string

const (
	KindUnauthenticated  ErrorKind = "unauthenticated"
	KindForbidden        ErrorKind = "forbidden"
	KindNotFound         ErrorKind = "not_found"
	KindValidationFailed ErrorKind = "validation_failed"
	KindConflict         ErrorKind = "conflict"
	KindUpstreamFailure  ErrorKind = "upstream_failure"
	KindRateLimited      ErrorKind = "rate_limited"
)

// AppError carries a taxonomy kind plus a short message that is safe to show
// to the owner of the request. Err keeps the underlying cause for logging.
type AppError struct {
	Kind       ErrorKind
	Message    string
	Err        error
	RetryAfter time.Duration
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unauthenticated(msg string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func ValidationFailed(msg string) *AppError {
	return &AppError{Kind: KindValidationFailed, Message: msg}
}

func Conflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func Upstream(msg string, err error) *AppError {
	return &AppError{Kind: KindUpstreamFailure, Message: msg, Err: err}
}

func RateLimited(msg string, retryAfter time.Duration) *AppError {
	return &AppError{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

// RetryAfterOf returns the wait attached to a rate limited error.
func RetryAfterOf(err error) time.Duration {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.RetryAfter
	}
	return 0
}

// KindOf resolves the taxonomy kind of err. Anything that is not an AppError
// is an infrastructure failure.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstreamFailure
}

// PublicMessage returns the message an API client may see for err.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func StatusFor(kind ErrorKind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

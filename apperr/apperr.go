// Package apperr defines the error taxonomy shared by every layer of the
// service. Errors are built with oops so they carry a code and structured
// context for logs, and wrap one of the sentinels below so callers classify
// them with errors.Is.
package apperr

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrTimeout      = errors.New("timeout")
	ErrInternal     = errors.New("internal error")
)

// Unauthorized returns an error classified as ErrUnauthorized.
func Unauthorized(code, msg string) error {
	return oops.Code(code).Public(msg).Wrap(ErrUnauthorized)
}

// NotFound returns an error classified as ErrNotFound.
func NotFound(code, msg string) error {
	return oops.Code(code).Public(msg).Wrap(ErrNotFound)
}

// Conflict returns an error classified as ErrConflict.
func Conflict(code, msg string) error {
	return oops.Code(code).Public(msg).Wrap(ErrConflict)
}

// Validation returns an error classified as ErrValidation.
func Validation(code, msg string) error {
	return oops.Code(code).Public(msg).Wrap(ErrValidation)
}

// Storage classifies a raw storage error. Deadline and cancellation become
// ErrTimeout; everything else becomes ErrInternal with the cause kept for logs.
func Storage(builder oops.OopsErrorBuilder, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return builder.Public("the operation timed out").Wrap(errors.Join(ErrTimeout, err))
	}
	return builder.Public("internal server error").Wrap(errors.Join(ErrInternal, err))
}

// Message returns the caller-safe message for err. Internal causes never leak.
func Message(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if msg := oopsErr.Public(); msg != "" {
			return msg
		}
	}
	return "internal server error"
}

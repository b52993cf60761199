// Package apperr holds the sentinel errors shared across Daybook packages.
package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidDate          = errors.New("invalid date")
	ErrCorruptNote          = errors.New("corrupt note")
	ErrImageUnavailable     = errors.New("image unavailable")
	ErrUnsupportedImage     = errors.New("unsupported image")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNotImplemented       = errors.New("not implemented")
)

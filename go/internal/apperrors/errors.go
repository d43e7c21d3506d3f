package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds the boundary layer maps to user-visible statuses. A
// missing entity and an entity outside the caller's auction scope both
// surface as ErrNotFound so cross-tenant existence never leaks.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage failure")
)

func wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// NotFoundf builds an ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return wrapf(ErrNotFound, format, args...)
}

// InvalidArgumentf builds an ErrInvalidArgument with a formatted message.
func InvalidArgumentf(format string, args ...any) error {
	return wrapf(ErrInvalidArgument, format, args...)
}

// Forbiddenf builds an ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return wrapf(ErrForbidden, format, args...)
}

// Conflictf builds an ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return wrapf(ErrConflict, format, args...)
}

// Storagef wraps an underlying persistence error as ErrStorage without
// interpreting it.
func Storagef(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), ErrStorage, err)
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
func IsStorage(err error) bool         { return errors.Is(err, ErrStorage) }

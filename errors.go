package geobatch

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidParameter is returned when a size, overlap, count or other
	// argument is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotConfigured is returned when an operation needs a raster source and
	// none has been set.
	ErrNotConfigured = errors.New("not configured")

	// ErrSourceUnavailable is returned when a raster cannot be opened, locally
	// or remotely.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCrsMismatch is returned when two coordinate reference systems cannot
	// be reconciled.
	ErrCrsMismatch = errors.New("crs mismatch")
)

// InvalidParameter wraps ErrInvalidParameter with a formatted message.
func InvalidParameter(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidParameter, format, args...)
}

// SourceError is returned when reading from a raster source fails.
type SourceError struct {
	Err error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source error: %v", e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// ProcessorError is returned when a preprocessing callback fails.
type ProcessorError struct {
	Name string
	Err  error
}

func (e ProcessorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("processor error: %v", e.Err)
	}
	return fmt.Sprintf("processor error: %s: %v", e.Name, e.Err)
}

func (e ProcessorError) Unwrap() error {
	return e.Err
}

package html2pdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	// ErrEngineUnavailable means the rendering engine could not be started:
	// binary missing, unsupported platform, or no display for engines that
	// need one. It is cached by the engine and not retried until Shutdown.
	ErrEngineUnavailable = errors.New("rendering engine unavailable")

	// ErrInvalidOption is returned for unknown option keys and malformed values.
	ErrInvalidOption = errors.New("invalid option")

	// ErrInvalidInput is returned for malformed URLs and unusable HTML input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConversionFailed wraps rendering errors reported by the engine and
	// empty or non-PDF output.
	ErrConversionFailed = errors.New("conversion failed")

	// Lifecycle errors.
	ErrEngineBusy        = errors.New("engine has conversions in flight")
	ErrEngineInitialized = errors.New("engine already initialized")
	ErrUnknownBackend    = errors.New("unknown engine backend")

	// ErrNoDisplay wraps the init failure of a wkhtmltopdf build that needs
	// an X server when none is reachable.
	ErrNoDisplay = errors.New("wkhtmltopdf cannot connect to an X display")

	// Output errors.
	ErrWritePDF = errors.New("failed to write PDF file")
)

// OptionError describes a rejected option. It matches ErrInvalidOption
// with errors.Is.
type OptionError struct {
	Key    string
	Value  any
	Reason string
}

func (e *OptionError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s %q: %s", ErrInvalidOption, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s (got %v)", ErrInvalidOption, e.Key, e.Reason, e.Value)
}

// Unwrap lets errors.Is(err, ErrInvalidOption) succeed.
func (e *OptionError) Unwrap() error {
	return ErrInvalidOption
}

// conversionError builds an ErrConversionFailed carrying the engine diagnostic.
func conversionError(diagnostic string, cause error) error {
	switch {
	case diagnostic != "" && cause != nil:
		return fmt.Errorf("%w: %s: %w", ErrConversionFailed, diagnostic, cause)
	case cause != nil:
		return fmt.Errorf("%w: %w", ErrConversionFailed, cause)
	case diagnostic != "":
		return fmt.Errorf("%w: %s", ErrConversionFailed, diagnostic)
	default:
		return ErrConversionFailed
	}
}

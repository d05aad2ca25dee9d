package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/hints"
)

// Exit codes for the html2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, options or input
	ExitIO      = 3 // File not found, permission denied, write failure
	ExitEngine  = 4 // Engine start or conversion failure
)

// Sentinel errors for CLI operations.
var (
	ErrUsage     = errors.New("invalid usage")
	ErrNoInput   = errors.New("no input specified")
	ErrReadInput = errors.New("failed to read input")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Engine errors (exit 4)
	if errors.Is(err, html2pdf.ErrEngineUnavailable) ||
		errors.Is(err, html2pdf.ErrConversionFailed) ||
		errors.Is(err, html2pdf.ErrEngineBusy) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, html2pdf.ErrWritePDF) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, html2pdf.ErrInvalidOption) ||
		errors.Is(err, html2pdf.ErrInvalidInput) ||
		errors.Is(err, html2pdf.ErrUnknownBackend) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
// configName is the --config value, used to list the files searched.
func hintFor(err error, backend, configName string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, html2pdf.ErrNoDisplay):
		return hints.ForNoDisplay()
	case errors.Is(err, html2pdf.ErrEngineUnavailable):
		return hints.ForEngineUnavailable(backend)
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, html2pdf.ErrInvalidOption):
		return hints.ForInvalidOption()
	case errors.Is(err, config.ErrConfigNotFound):
		var searched []string
		if configName != "" && !strings.ContainsAny(configName, "/\\") {
			searched = config.SearchPaths(configName)
		}
		return hints.ForConfigNotFound(searched)
	case errors.Is(err, html2pdf.ErrWritePDF):
		return hints.ForOutputDirectory()
	}
	return ""
}

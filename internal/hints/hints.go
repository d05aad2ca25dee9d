// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForEngineUnavailable returns hints for an engine that failed to start.
// Chrome backends get sandbox and binary suggestions; wkhtmltopdf gets an
// install suggestion.
func ForEngineUnavailable(backend string) string {
	if backend == "wkhtmltopdf" {
		return forWkhtmltopdf()
	}
	return forChrome()
}

func forChrome() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN or --browser-path to use an installed Chrome")
	}

	return formatHints(hints)
}

func forWkhtmltopdf() string {
	if os.Getenv("WKHTMLTOPDF_PATH") != "" {
		return format("check that WKHTMLTOPDF_PATH points to a working wkhtmltopdf")
	}
	return format("install wkhtmltopdf or set WKHTMLTOPDF_PATH; --backend rod needs no install")
}

// ForNoDisplay returns hints for a wkhtmltopdf build that needs an X server.
func ForNoDisplay() string {
	return format("run under xvfb-run, set DISPLAY, or install the patched-qt build of wkhtmltopdf")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for slow pages, use --timeout flag")
}

// ForInvalidOption returns a hint pointing at the option listing.
func ForInvalidOption() string {
	return format("run 'html2pdf options' to list keys and values")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-html2pdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-html2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

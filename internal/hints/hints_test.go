package hints

// Notes:
// - Chrome hint tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable

import (
	"strings"
	"testing"
)

func stubContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func clearCIEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		t.Setenv(k, "")
	}
}

// ---------------------------------------------------------------------------
// TestForEngineUnavailable - Chrome backends
// ---------------------------------------------------------------------------

func TestForEngineUnavailable_Chrome(t *testing.T) {
	tests := []struct {
		name        string
		backend     string
		container   bool
		ci          string
		noSandbox   string
		browserBin  string
		wantSandbox bool
		wantBin     bool
	}{
		{name: "rod in CI", backend: "rod", ci: "true", wantSandbox: true, wantBin: true},
		{name: "chromedp in docker", backend: "chromedp", container: true, wantSandbox: true, wantBin: true},
		{name: "sandbox already disabled", backend: "rod", container: true, noSandbox: "1", wantBin: true},
		{name: "browser bin set", backend: "rod", browserBin: "/usr/bin/chrome"},
		{name: "all configured", backend: "rod", ci: "true", noSandbox: "1", browserBin: "/usr/bin/chrome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, tt.container)
			clearCIEnv(t)
			t.Setenv("CI", tt.ci)
			t.Setenv("ROD_NO_SANDBOX", tt.noSandbox)
			t.Setenv("ROD_BROWSER_BIN", tt.browserBin)

			hint := ForEngineUnavailable(tt.backend)

			if got := strings.Contains(hint, "ROD_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("ROD_NO_SANDBOX in %q = %v, want %v", hint, got, tt.wantSandbox)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("ROD_BROWSER_BIN in %q = %v, want %v", hint, got, tt.wantBin)
			}
			if !tt.wantSandbox && !tt.wantBin && hint != "" {
				t.Errorf("expected empty hint, got %q", hint)
			}
		})
	}
}

func TestForEngineUnavailable_Wkhtmltopdf(t *testing.T) {
	t.Run("path unset", func(t *testing.T) {
		t.Setenv("WKHTMLTOPDF_PATH", "")
		hint := ForEngineUnavailable("wkhtmltopdf")
		if !strings.Contains(hint, "install wkhtmltopdf") {
			t.Errorf("expected install suggestion, got %q", hint)
		}
	})

	t.Run("path set", func(t *testing.T) {
		t.Setenv("WKHTMLTOPDF_PATH", "/opt/wk/bin/wkhtmltopdf")
		hint := ForEngineUnavailable("wkhtmltopdf")
		if !strings.Contains(hint, "points to a working") {
			t.Errorf("expected path check suggestion, got %q", hint)
		}
	})
}

func TestForNoDisplay(t *testing.T) {
	t.Parallel()

	hint := ForNoDisplay()
	for _, want := range []string{"xvfb-run", "DISPLAY"} {
		if !strings.Contains(hint, want) {
			t.Errorf("expected %q in %q", want, hint)
		}
	}
}

func TestForTimeout(t *testing.T) {
	t.Parallel()

	if hint := ForTimeout(); !strings.Contains(hint, "--timeout") {
		t.Errorf("expected --timeout flag mention, got %q", hint)
	}
}

func TestForInvalidOption(t *testing.T) {
	t.Parallel()

	if hint := ForInvalidOption(); !strings.Contains(hint, "html2pdf options") {
		t.Errorf("expected options command mention, got %q", hint)
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		paths    []string
		contains string
	}{
		{
			name:     "empty paths",
			paths:    []string{},
			contains: "--config",
		},
		{
			name:     "with paths",
			paths:    []string{"./foo.yaml", "/home/u/.config/go-html2pdf/foo.yaml"},
			contains: "or create /home/u/.config/go-html2pdf/foo.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForConfigNotFound(tt.paths)
			if !strings.Contains(hint, tt.contains) {
				t.Errorf("expected hint to contain %q, got %q", tt.contains, hint)
			}
		})
	}
}

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()

	hints := []string{
		ForNoDisplay(),
		ForTimeout(),
		ForInvalidOption(),
		ForConfigNotFound(nil),
		ForOutputDirectory(),
	}

	for _, h := range hints {
		if !strings.HasPrefix(h, "\n  hint: ") {
			t.Errorf("hint format inconsistent: %q", h)
		}
	}
}

func TestFormat_Empty(t *testing.T) {
	t.Parallel()

	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status      string          `json:"status"` // "ready", "warnings", "errors"
	Chrome      chromeInfo      `json:"chrome"`
	Wkhtmltopdf wkhtmltopdfInfo `json:"wkhtmltopdf"`
	Env         envInfo         `json:"environment"`
	System      systemInfo      `json:"system"`
	Warnings    []string        `json:"warnings,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results (rod, chromedp).
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// wkhtmltopdfInfo holds wkhtmltopdf detection results.
type wkhtmltopdfInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	Container       bool   `json:"container"`
	ContainerHint   string `json:"container_hint,omitempty"`
	CI              bool   `json:"ci"`
	Display         string `json:"display,omitempty"`
	NoSandbox       string `json:"rod_no_sandbox"`
	BrowserBin      string `json:"rod_browser_bin"`
	WkhtmltopdfPath string `json:"wkhtmltopdf_path"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorProbe abstracts the host lookups so checks can be tested.
type doctorProbe struct {
	getenv     func(string) string
	lookChrome func() (string, bool)
	lookPath   func(string) (string, error)
	version    func(path string) (string, error)
	stat       func(string) (os.FileInfo, error)
	tempDir    func() string
}

func defaultProbe() doctorProbe {
	return doctorProbe{
		getenv:     os.Getenv,
		lookChrome: launcher.LookPath,
		lookPath:   exec.LookPath,
		version: func(path string) (string, error) {
			out, err := exec.Command(path, "--version").Output() // #nosec G204 -- path from PATH lookup or user env
			return strings.TrimSpace(string(out)), err
		},
		stat:    os.Stat,
		tempDir: os.TempDir,
	}
}

func (c *cli) doctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that a rendering engine can run here",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			result := runDoctor(defaultProbe())

			if jsonOutput {
				enc := json.NewEncoder(c.env.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(result)
			} else {
				printDoctorResult(c.env.Stdout, result)
			}

			if result.Status == "errors" {
				return fmt.Errorf("doctor found %d error(s)", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

// runDoctor performs all diagnostic checks.
func runDoctor(p doctorProbe) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:              runtime.GOOS,
			Arch:            runtime.GOARCH,
			NoSandbox:       p.getenv("ROD_NO_SANDBOX"),
			BrowserBin:      p.getenv("ROD_BROWSER_BIN"),
			WkhtmltopdfPath: p.getenv("WKHTMLTOPDF_PATH"),
		},
	}

	checkChrome(p, result)
	checkWkhtmltopdf(p, result)
	checkEnvironment(p, result)
	checkSystem(p, result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium. A missing browser is a warning: rod
// downloads Chromium on first use.
func checkChrome(p doctorProbe, result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = p.lookChrome()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found. rod will download Chromium on first run; chromedp needs ROD_BROWSER_BIN or --browser-path")
			return
		}
	}

	if _, err := p.stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	if v, err := p.version(chromePath); err == nil {
		result.Chrome.Version = v
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkWkhtmltopdf detects the wkhtmltopdf executable. Missing is only a
// warning since it is not the default backend.
func checkWkhtmltopdf(p doctorProbe, result *doctorResult) {
	path := result.Env.WkhtmltopdfPath
	if path == "" {
		found, err := p.lookPath("wkhtmltopdf")
		if err != nil {
			result.Warnings = append(result.Warnings,
				"wkhtmltopdf not found (only needed for --backend wkhtmltopdf)")
			return
		}
		path = found
	} else if _, err := p.stat(path); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("WKHTMLTOPDF_PATH points to a missing file: %s", path))
		return
	}

	result.Wkhtmltopdf.Found = true
	result.Wkhtmltopdf.Path = path
	if v, err := p.version(path); err == nil {
		result.Wkhtmltopdf.Version = v
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get wkhtmltopdf version: %v", err))
	}
}

// checkEnvironment detects container and CI environments and an X display.
func checkEnvironment(p doctorProbe, result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer(p)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if p.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}

	result.Env.Display = p.getenv("DISPLAY")
	if result.Env.OS == "linux" && result.Wkhtmltopdf.Found && result.Env.Display == "" {
		result.Warnings = append(result.Warnings,
			"DISPLAY not set. wkhtmltopdf builds without patched Qt need xvfb-run")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(p doctorProbe) (bool, string) {
	if p.getenv("HTML2PDF_CONTAINER") == "1" {
		return true, "HTML2PDF_CONTAINER=1"
	}
	if _, err := p.stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := p.getenv("container"); v != "" {
		return true, "container=" + v
	}
	if p.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for HTML sources is writable.
func checkSystem(p doctorProbe, result *doctorResult) {
	tmpDir := p.tempDir()
	testFile := filepath.Join(tmpDir, "html2pdf-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "html2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (rod, chromedp)")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "wkhtmltopdf")
	if r.Wkhtmltopdf.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Wkhtmltopdf.Path)
		if r.Wkhtmltopdf.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Wkhtmltopdf.Version)
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if r.Env.Display != "" {
		fmt.Fprintf(w, "  [OK] Display: %s\n", r.Env.Display)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

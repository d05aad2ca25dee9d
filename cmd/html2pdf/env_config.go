package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string // HTML2PDF_CONFIG: config file name or path
	Backend     string // HTML2PDF_BACKEND: rod, chromedp, wkhtmltopdf
	Timeout     string // HTML2PDF_TIMEOUT: page load timeout
	BrowserPath string // HTML2PDF_BROWSER_PATH: engine executable
	LockFile    string // HTML2PDF_LOCK_FILE: cross-process lock
	Addr        string // HTML2PDF_ADDR: serve listen address
	Workers     int    // HTML2PDF_WORKERS: batch workers
}

// knownEnvVars lists valid HTML2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"HTML2PDF_CONFIG":       true,
	"HTML2PDF_BACKEND":      true,
	"HTML2PDF_TIMEOUT":      true,
	"HTML2PDF_BROWSER_PATH": true,
	"HTML2PDF_LOCK_FILE":    true,
	"HTML2PDF_ADDR":         true,
	"HTML2PDF_WORKERS":      true,
	"HTML2PDF_OFFLINE":      true, // integration tests
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("HTML2PDF_CONFIG"),
		Backend:     os.Getenv("HTML2PDF_BACKEND"),
		Timeout:     os.Getenv("HTML2PDF_TIMEOUT"),
		BrowserPath: os.Getenv("HTML2PDF_BROWSER_PATH"),
		LockFile:    os.Getenv("HTML2PDF_LOCK_FILE"),
		Addr:        os.Getenv("HTML2PDF_ADDR"),
	}

	if workers := os.Getenv("HTML2PDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized HTML2PDF_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "HTML2PDF_") {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the config file.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via applyEngineFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Backend != "" {
		cfg.Backend = env.Backend
	}
	if env.Timeout != "" {
		cfg.Timeout = env.Timeout
	}
	if env.BrowserPath != "" {
		cfg.BrowserPath = env.BrowserPath
	}
	if env.LockFile != "" {
		cfg.LockFile = env.LockFile
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.Workers > 0 {
		cfg.Batch.Workers = env.Workers
	}
}

// resolveConfig loads the config named by the flag, or by HTML2PDF_CONFIG,
// and applies environment overrides.
func resolveConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// applyEngineFlags copies explicitly set engine flags into cfg.
func applyEngineFlags(fs *flag.FlagSet, f *engineFlags, cfg *config.Config) {
	if fs.Changed("backend") {
		cfg.Backend = f.backend
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("browser-path") {
		cfg.BrowserPath = f.browserPath
	}
	if fs.Changed("lock-file") {
		cfg.LockFile = f.lockFile
	}
}

// engineOptions turns a validated config into engine options.
func engineOptions(cfg *config.Config, logger *slog.Logger) ([]html2pdf.Option, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []html2pdf.Option{
		html2pdf.WithTimeout(timeout),
		html2pdf.WithLogger(logger),
	}
	if cfg.Backend != "" {
		opts = append(opts, html2pdf.WithBackend(cfg.Backend))
	}
	if cfg.BrowserPath != "" {
		opts = append(opts, html2pdf.WithBrowserPath(cfg.BrowserPath))
	}
	if cfg.LockFile != "" {
		opts = append(opts, html2pdf.WithLockFile(cfg.LockFile))
	}
	return opts, nil
}

// newLogger builds the CLI logger on w: Debug with --verbose, Error with
// --quiet, Warn otherwise.
func newLogger(w io.Writer, f commonFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case f.verbose:
		level = slog.LevelDebug
	case f.quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

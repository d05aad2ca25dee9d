package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/alnah/go-html2pdf"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config file exceeds maximum size")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// MaxInputSize limits config files to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

// Field length limits.
const (
	MaxPathLength = 4096 // PATH_MAX on Linux
	MaxAddrLength = 256  // host:port
)

// Defaults applied when a field is omitted.
const (
	DefaultTimeout   = "30s"
	DefaultAddr      = ":8080"
	DefaultBodyLimit = 10 << 20 // 10MB of HTML per request
	MaxWorkers       = 64
)

// dirName is the per-user config directory under os.UserConfigDir.
const dirName = "go-html2pdf"

// Config holds the CLI and server configuration.
type Config struct {
	Backend     string           `yaml:"backend"`     // rod, chromedp, wkhtmltopdf (default: rod)
	Timeout     string           `yaml:"timeout"`     // Go duration, e.g. "45s" (default: 30s)
	BrowserPath string           `yaml:"browserPath"` // Chrome or wkhtmltopdf executable (empty = auto)
	LockFile    string           `yaml:"lockFile"`    // Cross-process engine lock (empty = in-process only)
	Options     html2pdf.Options `yaml:"options"`     // Default conversion options
	Server      ServerConfig     `yaml:"server"`
	Batch       BatchConfig      `yaml:"batch"`
}

// ServerConfig defines the HTTP API options.
type ServerConfig struct {
	Addr      string `yaml:"addr"`      // Listen address (default: ":8080")
	BodyLimit int    `yaml:"bodyLimit"` // Max request body in bytes (default: 10MB)
}

// BatchConfig defines batch conversion options.
type BatchConfig struct {
	Workers int `yaml:"workers"` // 0 = auto
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Backend: html2pdf.BackendRod,
		Timeout: DefaultTimeout,
		Server: ServerConfig{
			Addr:      DefaultAddr,
			BodyLimit: DefaultBodyLimit,
		},
	}
}

// TimeoutDuration parses Timeout. An empty value means DefaultTimeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	raw := c.Timeout
	if raw == "" {
		raw = DefaultTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q: %v", ErrInvalidValue, c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// Validate checks every field. Called automatically by LoadConfig, but
// available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if c.Backend != "" && !slices.Contains(html2pdf.Backends(), c.Backend) {
		return fmt.Errorf("%w: backend %q (must be one of %s)",
			ErrInvalidValue, c.Backend, strings.Join(html2pdf.Backends(), ", "))
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if err := validateFieldLength("browserPath", c.BrowserPath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("lockFile", c.LockFile, MaxPathLength); err != nil {
		return err
	}
	if err := html2pdf.ValidateOptions(c.Options); err != nil {
		return fmt.Errorf("options: %w", err)
	}

	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if c.Server.BodyLimit < 0 {
		return fmt.Errorf("%w: server.bodyLimit must not be negative, got %d", ErrInvalidValue, c.Server.BodyLimit)
	}

	if c.Batch.Workers < 0 || c.Batch.Workers > MaxWorkers {
		return fmt.Errorf("%w: batch.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Batch.Workers)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Omitted fields keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxInputSize)
	}

	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists the files LoadConfig tries for a config name, in order.
// Extensions: .yaml, .yml. Locations: current directory, then
// ~/.config/go-html2pdf/ (os.UserConfigDir).
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, dirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing entry of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	triedPaths := SearchPaths(name)
	for _, p := range triedPaths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

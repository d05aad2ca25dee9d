package html2pdf

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// std is the process-wide engine behind the package-level functions.
var std = newEngine(defaultEngineConfig())

// Option configures the process-wide engine. See Configure.
type Option func(*engineConfig)

// WithBackend selects the rendering engine: "rod" (default), "chromedp"
// or "wkhtmltopdf".
func WithBackend(name string) Option {
	return func(c *engineConfig) {
		c.backend = name
	}
}

// WithTimeout bounds page loading inside the engine.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("html2pdf: WithTimeout duration must be positive")
	}
	return func(c *engineConfig) {
		c.timeout = d
	}
}

// WithLogger sets the logger for engine and job events. nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		c.logger = l
	}
}

// WithBrowserPath points the engine at a specific executable: Chrome for the
// rod and chromedp backends, wkhtmltopdf for the wkhtmltopdf backend.
func WithBrowserPath(path string) Option {
	return func(c *engineConfig) {
		c.browserPath = path
	}
}

// WithLockFile adds an exclusive file lock to the engine lock, so several
// processes sharing one engine installation never convert at the same time.
func WithLockFile(path string) Option {
	return func(c *engineConfig) {
		c.lockFile = path
	}
}

// Configure replaces the engine configuration, starting from defaults.
// It fails with ErrEngineInitialized once the engine has started; call
// Shutdown first to reconfigure.
func Configure(opts ...Option) error {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return std.configure(cfg)
}

// Init starts the engine ahead of the first conversion. Conversions call it
// implicitly; calling it early surfaces ErrEngineUnavailable at startup.
func Init() error {
	return std.ensureInitialized()
}

// Shutdown stops the engine. It returns ErrEngineBusy while conversions are
// in flight. The next conversion starts the engine again.
func Shutdown() error {
	return std.shutdown()
}

// EngineStatus reports the engine lifecycle state.
func EngineStatus() Status {
	return std.status()
}

// FromString converts inline HTML. With a non-empty outputPath the PDF is
// written there and the returned slice is nil; otherwise the PDF bytes are
// returned.
func FromString(ctx context.Context, html string, opts Options, outputPath string) ([]byte, error) {
	return std.convertTo(ctx, Job{Inputs: []Input{{HTML: html}}, Options: opts}, outputPath)
}

// FromURL converts the page at rawURL. The engine fetches the URL; this
// package only validates its syntax.
func FromURL(ctx context.Context, rawURL string, opts Options, outputPath string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrInvalidInput)
	}
	return std.convertTo(ctx, Job{Inputs: []Input{{URL: rawURL}}, Options: opts}, outputPath)
}

// ToPDF converts input, treating it as a URL when it starts with http://,
// https:// or file:// and as HTML otherwise.
func ToPDF(ctx context.Context, input string, opts Options, outputPath string) ([]byte, error) {
	return std.convertTo(ctx, Job{Inputs: []Input{detectInput(input)}, Options: opts}, outputPath)
}

// Convert renders every input of job, in order, into a single PDF.
func Convert(ctx context.Context, job Job, outputPath string) ([]byte, error) {
	return std.convertTo(ctx, job, outputPath)
}

// convertTo validates the job, runs it and routes the output.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *engine) convertTo(ctx context.Context, job Job, outputPath string) (pdf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			pdf = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}

	cj, err := newJob(job)
	if err != nil {
		return nil, err
	}

	out, err := e.run(ctx, cj)
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		return out, nil
	}

	// #nosec G306 -- PDF output files are intended to be readable
	if err := fileutil.WriteFileAtomic(outputPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	return nil, nil
}

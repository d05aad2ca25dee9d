package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// Compile-time interface checks
var (
	_ nativeEngine = (*wkEngine)(nil)
	_ nativeObject = (*wkObject)(nil)
	_ nativeJob    = (*wkJob)(nil)
)

// envWkhtmltopdfPath overrides the executable location.
const envWkhtmltopdfPath = "WKHTMLTOPDF_PATH"

// wkEngine drives the wkhtmltopdf executable. Each job runs one process
// that receives every object as a page.
type wkEngine struct {
	cfg  engineConfig
	path string
}

func newWkhtmltopdfEngine(cfg engineConfig) *wkEngine {
	return &wkEngine{cfg: cfg}
}

func (w *wkEngine) Name() string { return BackendWkhtmltopdf }

// Init locates the executable and checks that it runs on this host.
func (w *wkEngine) Init() error {
	path, err := w.lookPath()
	if err != nil {
		return err
	}
	wkhtmltopdf.SetPath(path)

	if _, err := wkhtmltopdf.NewPDFGenerator(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.timeout)
	defer cancel()

	// #nosec G204 -- path comes from configuration or PATH lookup
	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if probeNeedsDisplay(string(out)) {
		return fmt.Errorf("%w: %s", ErrNoDisplay, strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("running %s --version: %w", path, err)
	}

	w.path = path
	return nil
}

func (w *wkEngine) lookPath() (string, error) {
	if w.cfg.browserPath != "" {
		return w.cfg.browserPath, nil
	}
	if p := os.Getenv(envWkhtmltopdfPath); p != "" {
		return p, nil
	}
	p, err := exec.LookPath("wkhtmltopdf")
	if err != nil {
		return "", fmt.Errorf("wkhtmltopdf executable not found: %w", err)
	}
	return p, nil
}

// probeNeedsDisplay recognizes the unpatched-Qt failure on headless hosts.
func probeNeedsDisplay(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "cannot connect to x server") ||
		strings.Contains(lower, "could not connect to display")
}

// Deinit has nothing to release: processes end with their job.
func (w *wkEngine) Deinit() error {
	w.path = ""
	return nil
}

// NewObject stages HTML in a temp file; URLs are passed through.
func (w *wkEngine) NewObject(kind sourceKind, content string, s sourceSettings) (nativeObject, error) {
	obj := &wkObject{}
	input := content
	if kind == sourceHTML {
		path, cleanup, err := fileutil.WriteTempFile(content, "html")
		if err != nil {
			return nil, err
		}
		obj.cleanup = cleanup
		input = path
	}

	page := wkhtmltopdf.NewPage(input)
	page.Zoom.Set(s.Zoom)
	page.NoBackground.Set(!s.PrintBackground)
	page.DisableJavascript.Set(!s.EnableJavaScript)
	if s.DenyLocalFiles {
		page.DisableLocalFileAccess.Set(true)
	}
	if s.HeaderText != "" {
		page.HeaderCenter.Set(s.HeaderText)
	}
	if s.FooterText != "" {
		page.FooterCenter.Set(s.FooterText)
	}
	obj.page = page
	return obj, nil
}

// NewJob creates a generator with page geometry applied.
func (w *wkEngine) NewJob(s jobSettings) (nativeJob, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, err
	}

	pdfg.PageSize.Set(s.PageSize)
	if s.Landscape {
		pdfg.Orientation.Set(wkhtmltopdf.OrientationLandscape)
	} else {
		pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	}
	pdfg.MarginTop.Set(wholeMM(s.Margins.Top))
	pdfg.MarginBottom.Set(wholeMM(s.Margins.Bottom))
	pdfg.MarginLeft.Set(wholeMM(s.Margins.Left))
	pdfg.MarginRight.Set(wholeMM(s.Margins.Right))

	return &wkJob{pdfg: pdfg, timeout: w.cfg.timeout}, nil
}

// wholeMM rounds a margin for wkhtmltopdf, which only takes whole millimeters.
func wholeMM(mm float64) uint {
	return uint(math.Round(mm))
}

// wkObject is one page argument of the command line.
type wkObject struct {
	page    *wkhtmltopdf.Page
	cleanup func()
}

// Close removes the staged HTML file.
func (o *wkObject) Close() error {
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
	return nil
}

// wkJob is one wkhtmltopdf invocation.
type wkJob struct {
	pdfg    *wkhtmltopdf.PDFGenerator
	timeout time.Duration
	output  []byte
}

func (j *wkJob) Add(obj nativeObject) error {
	o, ok := obj.(*wkObject)
	if !ok {
		return fmt.Errorf("object of type %T does not belong to the wkhtmltopdf engine", obj)
	}
	j.pdfg.AddPage(o.page)
	return nil
}

// Convert runs the process. On failure the error carries wkhtmltopdf's stderr.
func (j *wkJob) Convert(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if err := j.pdfg.CreateContext(runCtx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("wkhtmltopdf timed out after %s", j.timeout)
		}
		return err
	}
	j.output = j.pdfg.Bytes()
	return nil
}

func (j *wkJob) Output() []byte { return j.output }

func (j *wkJob) Close() error {
	j.pdfg = nil
	j.output = nil
	return nil
}

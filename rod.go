package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-html2pdf/internal/process"
)

// Compile-time interface checks
var (
	_ nativeEngine = (*rodEngine)(nil)
	_ nativeObject = (*rodObject)(nil)
	_ nativeJob    = (*rodJob)(nil)
)

var errRodNotStarted = errors.New("browser not started")

// rodEngine drives headless Chrome through go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodEngine struct {
	cfg      engineConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func newRodEngine(cfg engineConfig) *rodEngine {
	return &rodEngine{cfg: cfg}
}

func (r *rodEngine) Name() string { return BackendRod }

// Init launches the browser and connects to it.
func (r *rodEngine) Init() error {
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := chromeBin(r.cfg); bin != "" {
		l = l.Bin(bin)
	}
	if chromeNoSandbox(r.cfg) {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.kill(l)
		return fmt.Errorf("connecting to browser: %w", err)
	}

	r.launcher = l
	r.browser = browser
	return nil
}

// Deinit closes the browser and kills whatever survived it.
func (r *rodEngine) Deinit() error {
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.kill(r.launcher)
	r.browser = nil
	r.launcher = nil
	return err
}

// kill terminates the browser process group and removes its profile.
func (r *rodEngine) kill(l *launcher.Launcher) {
	if l == nil {
		return
	}
	pid := l.PID()
	l.Kill()
	if pid > 0 {
		process.KillProcessGroup(pid)
	}
	l.Cleanup()
}

// NewObject opens a blank tab for one source. HTML is written into the
// about:blank document, whose origin cannot load file:// resources.
func (r *rodEngine) NewObject(kind sourceKind, content string, s sourceSettings) (nativeObject, error) {
	if r.browser == nil {
		return nil, errRodNotStarted
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	return &rodObject{page: page, kind: kind, content: content, settings: s}, nil
}

// NewJob returns an empty job bound to the running browser.
func (r *rodEngine) NewJob(s jobSettings) (nativeJob, error) {
	if r.browser == nil {
		return nil, errRodNotStarted
	}
	return &rodJob{engine: r, settings: s}, nil
}

// rodObject is one browser tab and the document to load into it.
type rodObject struct {
	page     *rod.Page
	kind     sourceKind
	content  string
	settings sourceSettings
}

// Close closes the tab.
func (o *rodObject) Close() error {
	if o.page == nil {
		return nil
	}
	err := o.page.Close()
	o.page = nil
	return err
}

// name identifies the document in load errors.
func (o *rodObject) name() string {
	if o.kind == sourceURL {
		return o.content
	}
	return "inline HTML"
}

// load brings the document into the tab.
func (o *rodObject) load(page *rod.Page) error {
	if o.kind == sourceURL {
		if err := page.Navigate(o.content); err != nil {
			return err
		}
	} else if err := page.SetDocumentContent(o.content); err != nil {
		return err
	}
	return page.WaitLoad()
}

// rodJob renders its objects one by one and merges the results.
type rodJob struct {
	engine   *rodEngine
	settings jobSettings
	objects  []*rodObject
	output   []byte
}

func (j *rodJob) Add(obj nativeObject) error {
	o, ok := obj.(*rodObject)
	if !ok {
		return fmt.Errorf("object of type %T does not belong to the rod engine", obj)
	}
	j.objects = append(j.objects, o)
	return nil
}

func (j *rodJob) Convert(ctx context.Context) error {
	docs := make([][]byte, 0, len(j.objects))
	for _, o := range j.objects {
		doc, err := j.render(ctx, o)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	out, err := mergePDFs(docs)
	if err != nil {
		return err
	}
	j.output = out
	return nil
}

// render loads one object and prints it.
func (j *rodJob) render(ctx context.Context, o *rodObject) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := o.page.Context(ctx).Timeout(j.engine.cfg.timeout)
	defer page.CancelTimeout()

	if !o.settings.EnableJavaScript {
		if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(page); err != nil {
			return nil, fmt.Errorf("disabling JavaScript: %w", err)
		}
	}

	if err := o.load(page); err != nil {
		return nil, j.loadError(ctx, o.name(), err)
	}

	reader, err := page.PDF(rodPrintRequest(newPrintParams(j.settings, o.settings)))
	if err != nil {
		return nil, fmt.Errorf("printing page: %w", err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return pdf, nil
}

// loadError prefers the caller's context error over rod's timeout wrapper.
func (j *rodJob) loadError(ctx context.Context, name string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("loading %s: timed out after %s", name, j.engine.cfg.timeout)
	}
	return fmt.Errorf("loading %s: %v", name, err)
}

func (j *rodJob) Output() []byte { return j.output }

func (j *rodJob) Close() error {
	j.objects = nil
	j.output = nil
	return nil
}

// rodPrintRequest builds the CDP print call.
func rodPrintRequest(p printParams) *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:          floatPtr(p.paperWidth),
		PaperHeight:         floatPtr(p.paperHeight),
		MarginTop:           floatPtr(p.margins.Top),
		MarginBottom:        floatPtr(p.margins.Bottom),
		MarginLeft:          floatPtr(p.margins.Left),
		MarginRight:         floatPtr(p.margins.Right),
		Scale:               floatPtr(p.scale),
		PrintBackground:     p.printBackground,
		DisplayHeaderFooter: p.displayHF,
		HeaderTemplate:      p.headerTemplate,
		FooterTemplate:      p.footerTemplate,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

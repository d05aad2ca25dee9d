package html2pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Compile-time interface checks
var (
	_ nativeEngine = (*chromedpEngine)(nil)
	_ nativeObject = (*chromedpObject)(nil)
	_ nativeJob    = (*chromedpJob)(nil)
)

var errChromedpNotStarted = errors.New("browser not started")

// chromedpEngine renders with one shared headless Chrome driven by chromedp.
// Each object gets its own tab.
type chromedpEngine struct {
	cfg           engineConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func newChromedpEngine(cfg engineConfig) *chromedpEngine {
	return &chromedpEngine{cfg: cfg}
}

func (e *chromedpEngine) Name() string { return BackendChromedp }

// Init starts the browser. chromedp launches lazily, so an empty Run forces
// the launch and surfaces a missing binary here instead of on first use.
func (e *chromedpEngine) Init() error {
	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if bin := chromeBin(e.cfg); bin != "" {
		options = append(options, chromedp.ExecPath(bin))
	}
	if chromeNoSandbox(e.cfg) {
		options = append(options, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), options...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("starting browser: %w", err)
	}

	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserCancel = browserCancel
	return nil
}

// Deinit closes the browser and waits for the process to exit.
func (e *chromedpEngine) Deinit() error {
	if e.browserCtx == nil {
		return nil
	}
	err := chromedp.Cancel(e.browserCtx)
	e.browserCancel()
	e.allocCancel()
	e.browserCtx = nil
	e.browserCancel = nil
	e.allocCancel = nil
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// NewObject allocates a tab context. The tab itself opens on first use.
func (e *chromedpEngine) NewObject(kind sourceKind, content string, s sourceSettings) (nativeObject, error) {
	if e.browserCtx == nil {
		return nil, errChromedpNotStarted
	}
	tabCtx, cancel := chromedp.NewContext(e.browserCtx)
	return &chromedpObject{
		tabCtx:   tabCtx,
		cancel:   cancel,
		kind:     kind,
		content:  content,
		settings: s,
	}, nil
}

func (e *chromedpEngine) NewJob(s jobSettings) (nativeJob, error) {
	if e.browserCtx == nil {
		return nil, errChromedpNotStarted
	}
	return &chromedpJob{engine: e, settings: s}, nil
}

// chromedpObject is one tab and the document to load into it.
type chromedpObject struct {
	tabCtx   context.Context
	cancel   context.CancelFunc
	kind     sourceKind
	content  string
	settings sourceSettings
}

// Close closes the tab.
func (o *chromedpObject) Close() error {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	return nil
}

// load returns the actions that bring the document into the tab.
func (o *chromedpObject) load() []chromedp.Action {
	var actions []chromedp.Action
	if !o.settings.EnableJavaScript {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetScriptExecutionDisabled(true).Do(ctx)
		}))
	}

	if o.kind == sourceURL {
		return append(actions, chromedp.Navigate(o.content))
	}

	return append(actions,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, o.content).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// chromedpJob renders its objects one by one and merges the results.
type chromedpJob struct {
	engine   *chromedpEngine
	settings jobSettings
	objects  []*chromedpObject
	output   []byte
}

func (j *chromedpJob) Add(obj nativeObject) error {
	o, ok := obj.(*chromedpObject)
	if !ok {
		return fmt.Errorf("object of type %T does not belong to the chromedp engine", obj)
	}
	j.objects = append(j.objects, o)
	return nil
}

func (j *chromedpJob) Convert(ctx context.Context) error {
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

// render runs one tab with the caller's cancellation and the engine timeout.
// Cancelling a derived context aborts the actions without closing the tab.
func (j *chromedpJob) render(ctx context.Context, o *chromedpObject) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx, cancelReq := context.WithCancel(o.tabCtx)
	defer cancelReq()
	go func() {
		select {
		case <-ctx.Done():
			cancelReq()
		case <-reqCtx.Done():
		}
	}()
	execCtx, cancelTimeout := context.WithTimeout(reqCtx, j.engine.cfg.timeout)
	defer cancelTimeout()

	var pdf []byte
	actions := append(o.load(), chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdf, _, err = chromedpPrintParams(newPrintParams(j.settings, o.settings)).Do(ctx)
		return err
	}))

	if err := chromedp.Run(execCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("loading %s source: timed out after %s", o.kind, j.engine.cfg.timeout)
		}
		return nil, fmt.Errorf("rendering %s source: %v", o.kind, err)
	}
	return pdf, nil
}

func (j *chromedpJob) Output() []byte { return j.output }

func (j *chromedpJob) Close() error {
	j.objects = nil
	j.output = nil
	return nil
}

// chromedpPrintParams builds the CDP print call.
func chromedpPrintParams(p printParams) *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPaperWidth(p.paperWidth).
		WithPaperHeight(p.paperHeight).
		WithMarginTop(p.margins.Top).
		WithMarginBottom(p.margins.Bottom).
		WithMarginLeft(p.margins.Left).
		WithMarginRight(p.margins.Right).
		WithScale(p.scale).
		WithPrintBackground(p.printBackground).
		WithDisplayHeaderFooter(p.displayHF).
		WithHeaderTemplate(p.headerTemplate).
		WithFooterTemplate(p.footerTemplate)
}

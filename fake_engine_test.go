package html2pdf

// Notes:
// - fakeEngine stands in for a real backend in unit tests. It records every
//   call, flags overlapping calls (the engine is assumed non-reentrant) and
//   counts handles that were created but never closed.
// - Real rendering is covered by integration tests (build tag integration).

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakePDF is the default output of fakeEngine.
var fakePDF = []byte("%PDF-1.4\n% fake document\n%%EOF\n")

// fakeEngine implements nativeEngine for tests.
type fakeEngine struct {
	// Behavior, set before use.
	initErr      error
	deinitErr    error
	newObjectErr error
	failObjectAt int // 1-based; 0 disables
	newJobErr    error
	addErr       error
	convertErr   error
	output       []byte
	useOutput    bool // return output even when empty
	convertDelay time.Duration
	convertHook  func(ctx context.Context) error
	closeObjErr  error

	active  atomic.Int32
	overlap atomic.Bool

	mu          sync.Mutex
	calls       []string
	inits       int
	deinits     int
	objectsMade int
	openObjects int
	openJobs    int
	kinds       []sourceKind
	contents    []string
	sources     []sourceSettings
	jobs        []jobSettings
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{}
}

// enter marks the start of an engine call and records overlaps.
func (f *fakeEngine) enter(name string) func() {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	return func() { f.active.Add(-1) }
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Init() error {
	defer f.enter("init")()
	f.mu.Lock()
	f.inits++
	f.mu.Unlock()
	return f.initErr
}

func (f *fakeEngine) Deinit() error {
	defer f.enter("deinit")()
	f.mu.Lock()
	f.deinits++
	f.mu.Unlock()
	return f.deinitErr
}

func (f *fakeEngine) NewObject(kind sourceKind, content string, s sourceSettings) (nativeObject, error) {
	defer f.enter("new_object")()
	f.mu.Lock()
	defer f.mu.Unlock()

	f.objectsMade++
	if f.newObjectErr != nil && (f.failObjectAt == 0 || f.failObjectAt == f.objectsMade) {
		return nil, f.newObjectErr
	}
	f.openObjects++
	f.kinds = append(f.kinds, kind)
	f.contents = append(f.contents, content)
	f.sources = append(f.sources, s)
	return &fakeObject{engine: f, content: content}, nil
}

func (f *fakeEngine) NewJob(s jobSettings) (nativeJob, error) {
	defer f.enter("new_job")()
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.newJobErr != nil {
		return nil, f.newJobErr
	}
	f.openJobs++
	f.jobs = append(f.jobs, s)
	return &fakeJob{engine: f}, nil
}

// leaked returns the number of handles still open.
func (f *fakeEngine) leaked() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openObjects + f.openJobs
}

func (f *fakeEngine) initCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits
}

func (f *fakeEngine) deinitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deinits
}

func (f *fakeEngine) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeEngine) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeObject struct {
	engine  *fakeEngine
	content string
	closed  bool
}

func (o *fakeObject) Close() error {
	defer o.engine.enter("close_object")()
	o.engine.mu.Lock()
	defer o.engine.mu.Unlock()
	if !o.closed {
		o.closed = true
		o.engine.openObjects--
	}
	return o.engine.closeObjErr
}

type fakeJob struct {
	engine  *fakeEngine
	objects []*fakeObject
	output  []byte
	closed  bool
}

func (j *fakeJob) Add(obj nativeObject) error {
	defer j.engine.enter("add")()
	if j.engine.addErr != nil {
		return j.engine.addErr
	}
	o, ok := obj.(*fakeObject)
	if !ok {
		return fmt.Errorf("foreign object %T", obj)
	}
	j.objects = append(j.objects, o)
	return nil
}

func (j *fakeJob) Convert(ctx context.Context) error {
	defer j.engine.enter("convert")()

	if j.engine.convertDelay > 0 {
		select {
		case <-time.After(j.engine.convertDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if j.engine.convertHook != nil {
		if err := j.engine.convertHook(ctx); err != nil {
			return err
		}
	}
	if j.engine.convertErr != nil {
		return j.engine.convertErr
	}

	switch {
	case j.engine.useOutput:
		j.output = j.engine.output
	default:
		// Engine-owned buffer: a fresh slice per job, overwritten on Close.
		j.output = append([]byte(nil), fakePDF...)
		for _, o := range j.objects {
			j.output = append(j.output, o.content...)
		}
	}
	return nil
}

func (j *fakeJob) Output() []byte { return j.output }

func (j *fakeJob) Close() error {
	defer j.engine.enter("close_job")()
	j.engine.mu.Lock()
	defer j.engine.mu.Unlock()
	if !j.closed {
		j.closed = true
		j.engine.openJobs--
	}
	// Scribble over the buffer so callers holding it would see garbage.
	for i := range j.output {
		j.output[i] = 'x'
	}
	return nil
}

// newTestEngine wires fake into a fresh engine with default configuration.
func newTestEngine(t *testing.T, fake *fakeEngine) *engine {
	t.Helper()
	return newEngineWith(fake, defaultEngineConfig())
}

// errEngineCrash is a generic failure reported by fakeEngine.
var errEngineCrash = errors.New("engine crashed: segmentation fault")

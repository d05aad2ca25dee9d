package html2pdf

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// nativeEngine is the handle-based API of a rendering engine. None of its
// methods are assumed reentrant: the engine only calls them inside callGate.
type nativeEngine interface {
	// Name identifies the backend in logs and status output.
	Name() string
	// Init starts the engine. Called once per lifecycle.
	Init() error
	// Deinit stops the engine and releases every process-wide resource.
	Deinit() error
	// NewObject creates one document object from HTML markup or a URL.
	NewObject(kind sourceKind, content string, s sourceSettings) (nativeObject, error)
	// NewJob creates an empty conversion job with page geometry applied.
	NewJob(s jobSettings) (nativeJob, error)
}

// nativeObject is one document handle. Close must be safe to call after the
// owning job was closed.
type nativeObject interface {
	Close() error
}

// nativeJob aggregates objects and runs the blocking conversion.
type nativeJob interface {
	Add(obj nativeObject) error
	// Convert renders every added object. The error text is the engine's
	// diagnostic.
	Convert(ctx context.Context) error
	// Output returns the engine-owned result. It is only valid until Close.
	Output() []byte
	Close() error
}

// Backend names.
const (
	BackendRod         = "rod"
	BackendChromedp    = "chromedp"
	BackendWkhtmltopdf = "wkhtmltopdf"
)

// defaultTimeout bounds page loading inside the engine.
const defaultTimeout = 30 * time.Second

// engineConfig holds settings fixed for one engine lifecycle.
type engineConfig struct {
	backend     string
	timeout     time.Duration
	browserPath string
	lockFile    string
	logger      *slog.Logger
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		backend: BackendRod,
		timeout: defaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// backendFactory builds an uninitialized native engine.
type backendFactory func(cfg engineConfig) nativeEngine

var backends = map[string]backendFactory{
	BackendRod:         func(cfg engineConfig) nativeEngine { return newRodEngine(cfg) },
	BackendChromedp:    func(cfg engineConfig) nativeEngine { return newChromedpEngine(cfg) },
	BackendWkhtmltopdf: func(cfg engineConfig) nativeEngine { return newWkhtmltopdfEngine(cfg) },
}

// Backends returns the available backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status is a snapshot of the engine lifecycle.
type Status struct {
	Backend     string `json:"backend"`
	Initialized bool   `json:"initialized"`
	InFlight    int    `json:"in_flight"`
	Conversions uint64 `json:"conversions"`
	InitError   string `json:"init_error,omitempty"`
}

// engine manages the lifecycle of one native engine and serializes calls
// into it. The package keeps a single instance (see std).
type engine struct {
	mu          sync.Mutex // guards everything below except gate
	cfg         engineConfig
	native      nativeEngine
	newNative   func(engineConfig) (nativeEngine, error)
	initialized bool
	initErr     error
	inFlight    int
	conversions uint64

	gate *callGate
}

func newEngine(cfg engineConfig) *engine {
	e := &engine{cfg: cfg}
	e.newNative = func(cfg engineConfig) (nativeEngine, error) {
		factory, ok := backends[cfg.backend]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.backend)
		}
		return factory(cfg), nil
	}
	e.gate = newCallGate(cfg.lockFile)
	return e
}

// newEngineWith builds an engine around an existing native implementation.
func newEngineWith(native nativeEngine, cfg engineConfig) *engine {
	e := newEngine(cfg)
	e.newNative = func(engineConfig) (nativeEngine, error) { return native, nil }
	return e
}

// configure replaces the configuration. Only allowed before initialization.
func (e *engine) configure(cfg engineConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return ErrEngineInitialized
	}
	if _, ok := backends[cfg.backend]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.backend)
	}
	e.cfg = cfg
	e.initErr = nil
	e.native = nil
	e.gate = newCallGate(cfg.lockFile)
	return nil
}

// ensureInitialized starts the native engine once.
// A failed start is remembered and returned until shutdown.
func (e *engine) ensureInitialized() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked()
}

func (e *engine) initLocked() error {
	if e.initialized {
		return nil
	}
	if e.initErr != nil {
		return e.initErr
	}

	native, err := e.newNative(e.cfg)
	if err != nil {
		e.initErr = err
		return err
	}

	start := time.Now()
	err = e.gate.do(native.Init)
	if err != nil {
		e.initErr = fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, native.Name(), err)
		e.cfg.logger.Error("engine init failed", "backend", native.Name(), "error", err)
		return e.initErr
	}

	e.native = native
	e.initialized = true
	e.cfg.logger.Debug("engine initialized", "backend", native.Name(), "elapsed", time.Since(start))
	return nil
}

// acquire initializes the engine if needed and registers an in-flight
// conversion. The returned release must be called exactly once.
func (e *engine) acquire() (nativeEngine, func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initLocked(); err != nil {
		return nil, nil, err
	}
	e.inFlight++

	var once sync.Once
	release := func() {
		once.Do(func() {
			e.mu.Lock()
			e.inFlight--
			e.conversions++
			e.mu.Unlock()
		})
	}
	return e.native, release, nil
}

// shutdown tears the engine down. It refuses while conversions are in
// flight and resets a cached init failure so the next call retries.
func (e *engine) shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight > 0 {
		return fmt.Errorf("%w: %d", ErrEngineBusy, e.inFlight)
	}
	e.initErr = nil
	if !e.initialized {
		return nil
	}

	native := e.native
	err := e.gate.do(native.Deinit)
	e.native = nil
	e.initialized = false
	e.cfg.logger.Debug("engine shut down", "backend", native.Name())
	if err != nil {
		return fmt.Errorf("shutting down %s: %w", native.Name(), err)
	}
	return nil
}

func (e *engine) status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Backend:     e.cfg.backend,
		Initialized: e.initialized,
		InFlight:    e.inFlight,
		Conversions: e.conversions,
	}
	if e.native != nil {
		st.Backend = e.native.Name()
	}
	if e.initErr != nil {
		st.InitError = e.initErr.Error()
	}
	return st
}

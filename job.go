package html2pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// pdfSignature starts every PDF file.
var pdfSignature = []byte("%PDF-")

// conversionJob is the call-local unit of work handed to the engine.
type conversionJob struct {
	id       string
	settings jobSettings
	sources  []*documentSource
}

// newJob validates the inputs and translates every option map.
// Nothing here touches the engine.
func newJob(job Job) (*conversionJob, error) {
	if len(job.Inputs) == 0 {
		return nil, fmt.Errorf("%w: job has no inputs", ErrInvalidInput)
	}

	settings, err := translate(job.Options)
	if err != nil {
		return nil, err
	}
	settings.source.DenyLocalFiles = job.DenyLocalFiles

	sources := make([]*documentSource, 0, len(job.Inputs))
	for i, in := range job.Inputs {
		src, err := buildSource(in, settings.source)
		if err != nil {
			if len(job.Inputs) > 1 {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			return nil, err
		}
		sources = append(sources, src)
	}

	return &conversionJob{
		id:       uuid.NewString(),
		settings: settings.job,
		sources:  sources,
	}, nil
}

// run executes the job against the engine and returns a copy of the output.
// Every native handle created here is released before run returns.
func (e *engine) run(ctx context.Context, job *conversionJob) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	native, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	log := e.cfg.logger.With("job", job.id, "backend", native.Name())
	log.Debug("conversion queued", "sources", len(job.sources))

	var out []byte
	start := time.Now()
	err = e.gate.do(func() error {
		var convErr error
		out, convErr = convert(ctx, native, job, log)
		return convErr
	})
	if err != nil {
		log.Debug("conversion failed", "elapsed", time.Since(start), "error", err)
		return nil, err
	}

	log.Debug("conversion finished", "elapsed", time.Since(start), "bytes", len(out))
	return out, nil
}

// convert runs inside the gate.
func convert(ctx context.Context, native nativeEngine, job *conversionJob, log *slog.Logger) ([]byte, error) {
	nj, err := native.NewJob(job.settings)
	if err != nil {
		return nil, conversionError("creating job", err)
	}

	objects := make([]nativeObject, 0, len(job.sources))
	defer func() {
		if cerr := nj.Close(); cerr != nil {
			log.Warn("releasing job failed", "error", cerr)
		}
		for i := len(objects) - 1; i >= 0; i-- {
			if cerr := objects[i].Close(); cerr != nil {
				log.Warn("releasing object failed", "index", i, "error", cerr)
			}
		}
	}()

	for i, src := range job.sources {
		obj, err := src.open(native)
		if err != nil {
			return nil, conversionError(fmt.Sprintf("creating %s object %d", src.kind, i), err)
		}
		objects = append(objects, obj)

		if err := nj.Add(obj); err != nil {
			return nil, conversionError(fmt.Sprintf("adding object %d", i), err)
		}
	}

	if err := nj.Convert(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, conversionError("", err)
		}
		return nil, conversionError(err.Error(), nil)
	}

	raw := nj.Output()
	if len(raw) == 0 {
		return nil, conversionError("engine produced no output", nil)
	}
	if !bytes.HasPrefix(raw, pdfSignature) {
		return nil, conversionError("engine output is not a PDF document", nil)
	}

	return bytes.Clone(raw), nil
}

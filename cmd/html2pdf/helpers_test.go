package main

// Notes:
// - fakeConverter stands in for the process-wide engine; commands never
//   touch a real browser in unit tests (see the integration tag for that).

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-html2pdf"
)

// fakePDF is what fakeConverter renders.
var fakePDF = []byte("%PDF-1.7 fake")

// fakeConverter records calls and writes fakePDF.
type fakeConverter struct {
	mu sync.Mutex

	configureErr error
	initErr      error
	convertErr   error
	failInput    string // Convert fails for jobs whose first input contains this
	status       html2pdf.Status

	configures int
	inits      int
	shutdowns  int
	jobs       []html2pdf.Job
	outputs    []string
}

var _ Converter = (*fakeConverter)(nil)

func (f *fakeConverter) Configure(opts ...html2pdf.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configures++
	return f.configureErr
}

func (f *fakeConverter) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return f.initErr
}

func (f *fakeConverter) Convert(ctx context.Context, job html2pdf.Job, outputPath string) ([]byte, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.outputs = append(f.outputs, outputPath)
	err := f.convertErr
	if f.failInput != "" && len(job.Inputs) > 0 {
		in := job.Inputs[0]
		if strings.Contains(in.URL+in.HTML, f.failInput) {
			err = html2pdf.ErrConversionFailed
		}
	}
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if outputPath == "" {
		return append([]byte(nil), fakePDF...), nil
	}
	if err := os.WriteFile(outputPath, fakePDF, 0o600); err != nil {
		return nil, html2pdf.ErrWritePDF
	}
	return nil, nil
}

func (f *fakeConverter) Status() html2pdf.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.status
	if st.Backend == "" {
		st.Backend = html2pdf.BackendRod
	}
	return st
}

func (f *fakeConverter) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	return nil
}

func (f *fakeConverter) recordedJobs() []html2pdf.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]html2pdf.Job(nil), f.jobs...)
}

func (f *fakeConverter) recordedOutputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.outputs...)
}

// testEnv builds an Environment around conv with captured output.
func testEnv(conv Converter, stdin string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Now:       func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdout:    &stdout,
		Stderr:    &stderr,
		Stdin:     strings.NewReader(stdin),
		Converter: conv,
	}, &stdout, &stderr
}

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

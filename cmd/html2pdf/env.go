package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-html2pdf"
)

// Converter is the engine surface used by the commands.
type Converter interface {
	Configure(opts ...html2pdf.Option) error
	Init() error
	Convert(ctx context.Context, job html2pdf.Job, outputPath string) ([]byte, error)
	Status() html2pdf.Status
	Shutdown() error
}

// engineConverter forwards to the process-wide engine.
type engineConverter struct{}

// Compile-time interface implementation check.
var _ Converter = engineConverter{}

func (engineConverter) Configure(opts ...html2pdf.Option) error { return html2pdf.Configure(opts...) }
func (engineConverter) Init() error                             { return html2pdf.Init() }
func (engineConverter) Status() html2pdf.Status                 { return html2pdf.EngineStatus() }
func (engineConverter) Shutdown() error                         { return html2pdf.Shutdown() }

func (engineConverter) Convert(ctx context.Context, job html2pdf.Job, outputPath string) ([]byte, error) {
	return html2pdf.Convert(ctx, job, outputPath)
}

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now       func() time.Time
	Stdout    io.Writer
	Stderr    io.Writer
	Stdin     io.Reader
	Converter Converter
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:       time.Now,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Stdin:     os.Stdin,
		Converter: engineConverter{},
	}
}

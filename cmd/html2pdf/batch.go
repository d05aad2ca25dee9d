package main

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// batchFlags holds flags for the batch command.
type batchFlags struct {
	outDir  string
	workers int
	options optionFlags
}

// batchItem is one input and the PDF it produces.
type batchItem struct {
	Input  string
	Output string
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

func (c *cli) batchCmd() *cobra.Command {
	var f batchFlags

	cmd := &cobra.Command{
		Use:   "batch [flags] <input>...",
		Short: "Convert each input to its own PDF",
		Long: `Convert each file or URL to a separate PDF.

Files produce a PDF next to themselves (or in --out-dir); URLs are named
after their host and path. Conversions are queued by a pool of workers and
still run one at a time inside the engine.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args, &f)
		},
	}

	cmd.Flags().StringVarP(&f.outDir, "out-dir", "d", "", "directory for the PDFs")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	addOptionFlags(cmd.Flags(), &f.options)
	return cmd
}

func (c *cli) runBatch(cmd *cobra.Command, args []string, f *batchFlags) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: pass one or more files or URLs", ErrNoInput)
	}
	if f.workers < 0 || f.workers > config.MaxWorkers {
		return fmt.Errorf("%w: --workers must be between 0 and %d, got %d", ErrUsage, config.MaxWorkers, f.workers)
	}

	items, err := planBatch(args, f.outDir)
	if err != nil {
		return err
	}

	if err := c.setup(cmd); err != nil {
		return err
	}
	defer c.teardown()

	opts, err := f.options.options(cmd.Flags(), c.cfg.Options)
	if err != nil {
		return err
	}

	workers := resolveWorkers(f.workers, c.cfg.Batch.Workers, len(items))
	c.logger.Debug("batch started", "inputs", len(items), "workers", workers)

	results := convertBatch(cmd.Context(), c.env.Converter, items, opts, workers, c.env.Now)
	failed := printResultsWithWriter(results, c.common.quiet, c.common.verbose, c.env)
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed: %w", failed, len(results), firstError(results))
	}
	return nil
}

// planBatch maps every argument to an output path. Colliding names get a
// numeric suffix.
func planBatch(args []string, outDir string) ([]batchItem, error) {
	items := make([]batchItem, 0, len(args))
	used := make(map[string]bool, len(args))

	for _, arg := range args {
		if arg == stdinArg {
			return nil, fmt.Errorf("%w: batch does not read stdin", ErrUsage)
		}

		var out string
		if fileutil.IsURL(arg) {
			out = urlOutputName(arg)
			if outDir != "" {
				out = filepath.Join(outDir, out)
			}
		} else {
			out = fileutil.PDFPath(arg)
			if outDir != "" {
				out = filepath.Join(outDir, filepath.Base(out))
			}
		}

		out = uniquePath(out, used)
		items = append(items, batchItem{Input: arg, Output: out})
	}
	return items, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// urlOutputName derives a file name from a URL: host and path for web pages,
// the base name for file:// URLs.
func urlOutputName(raw string) string {
	name := ""
	if u, err := url.Parse(raw); err == nil {
		if strings.EqualFold(u.Scheme, "file") {
			base := filepath.Base(u.Path)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		} else {
			name = u.Hostname() + u.Path
		}
	}

	name = strings.Trim(unsafeNameChars.ReplaceAllString(name, "-"), "-.")
	if name == "" {
		name = "page"
	}
	return name + ".pdf"
}

// uniquePath returns path, or path with -2, -3... before the extension if
// it was already used.
func uniquePath(path string, used map[string]bool) string {
	candidate := path
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 2; used[candidate]; n++ {
		candidate = stem + "-" + strconv.Itoa(n) + ext
	}
	used[candidate] = true
	return candidate
}

// resolveWorkers determines the worker count.
// Priority: explicit flag > config > GOMAXPROCS-based calculation,
// never more than the number of items.
func resolveWorkers(flagWorkers, configWorkers, items int) int {
	n := flagWorkers
	if n <= 0 {
		n = configWorkers
	}
	if n <= 0 {
		n = autoWorkers()
	}
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// autoWorkers derives a worker count from GOMAXPROCS (adjusted by
// automaxprocs for containers): half the CPUs, between 1 and 8.
func autoWorkers() int {
	n := runtime.GOMAXPROCS(0) / 2
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// convertBatch converts items with at most workers conversions queued at
// once. Failures are recorded per item; one failure does not stop the rest.
func convertBatch(ctx context.Context, conv Converter, items []batchItem, opts html2pdf.Options, workers int, now func() time.Time) []ConversionResult {
	results := make([]ConversionResult, len(items))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = convertItem(ctx, conv, item, opts, now)
			return nil
		})
	}
	_ = g.Wait() // errors are carried in results

	return results
}

// convertItem converts one input and returns the result.
func convertItem(ctx context.Context, conv Converter, item batchItem, opts html2pdf.Options, now func() time.Time) ConversionResult {
	start := now()
	result := ConversionResult{InputPath: item.Input, OutputPath: item.Output}
	finish := func(err error) ConversionResult {
		result.Err = err
		result.Duration = now().Sub(start)
		return result
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	in, err := resolveInput(item.Input)
	if err != nil {
		return finish(err)
	}
	if err := ensureOutputDir(item.Output); err != nil {
		return finish(err)
	}

	_, err = conv.Convert(ctx, html2pdf.Job{Inputs: []html2pdf.Input{in}, Options: opts}, item.Output)
	return finish(err)
}

// firstError returns the first recorded failure.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs conversion results and returns the number
// of failures.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}

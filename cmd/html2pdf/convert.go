package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/fileutil"
)

const (
	// defaultOutput is used when no input names a local file.
	defaultOutput = "output.pdf"
	// stdinArg reads HTML from standard input.
	stdinArg = "-"
	// maxStdinSize limits HTML read from stdin (64MB).
	maxStdinSize = 64 << 20
)

// convertFlags holds the flags of the root convert command.
type convertFlags struct {
	output  string
	options optionFlags
}

// runConvert renders every argument, in order, into one PDF.
func (c *cli) runConvert(cmd *cobra.Command, args []string, f *convertFlags) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: pass a file, URL or - for stdin (see --help)", ErrNoInput)
	}

	if err := c.setup(cmd); err != nil {
		return err
	}
	defer c.teardown()

	opts, err := f.options.options(cmd.Flags(), c.cfg.Options)
	if err != nil {
		return err
	}

	inputs, err := collectInputs(args, c.env.Stdin)
	if err != nil {
		return err
	}

	job := html2pdf.Job{Inputs: inputs, Options: opts}
	output := resolveOutput(f.output, args)
	start := c.env.Now()

	if output == stdinArg {
		data, err := c.env.Converter.Convert(cmd.Context(), job, "")
		if err != nil {
			return err
		}
		if _, err := c.env.Stdout.Write(data); err != nil {
			return fmt.Errorf("%w: stdout: %v", html2pdf.ErrWritePDF, err)
		}
		return nil
	}

	if err := ensureOutputDir(output); err != nil {
		return err
	}
	if _, err := c.env.Converter.Convert(cmd.Context(), job, output); err != nil {
		return err
	}

	switch {
	case c.common.quiet:
	case c.common.verbose:
		fmt.Fprintf(c.env.Stdout, "%d input(s) -> %s (%v)\n", len(inputs), output, c.env.Now().Sub(start).Round(time.Millisecond))
	default:
		fmt.Fprintf(c.env.Stdout, "Created %s\n", output)
	}
	return nil
}

// collectInputs resolves each argument. "-" may appear once.
func collectInputs(args []string, stdin io.Reader) ([]html2pdf.Input, error) {
	inputs := make([]html2pdf.Input, 0, len(args))
	stdinUsed := false

	for _, arg := range args {
		if arg == stdinArg {
			if stdinUsed {
				return nil, fmt.Errorf("%w: stdin (-) given more than once", ErrUsage)
			}
			stdinUsed = true
			in, err := readStdin(stdin)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
			continue
		}

		in, err := resolveInput(arg)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// resolveInput turns a URL or a local path into an input. Local files are
// loaded through file:// so relative stylesheets and images resolve.
func resolveInput(arg string) (html2pdf.Input, error) {
	if fileutil.IsURL(arg) {
		return html2pdf.Input{URL: arg}, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return html2pdf.Input{}, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	if info.IsDir() {
		return html2pdf.Input{}, fmt.Errorf("%w: %s is a directory", ErrReadInput, arg)
	}

	u, err := fileutil.FileURL(arg)
	if err != nil {
		return html2pdf.Input{}, fmt.Errorf("%w: %s: %v", ErrReadInput, arg, err)
	}
	return html2pdf.Input{URL: u}, nil
}

func readStdin(r io.Reader) (html2pdf.Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStdinSize+1))
	if err != nil {
		return html2pdf.Input{}, fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
	}
	if len(data) > maxStdinSize {
		return html2pdf.Input{}, fmt.Errorf("%w: stdin exceeds %d bytes", ErrReadInput, maxStdinSize)
	}
	return html2pdf.Input{HTML: string(data)}, nil
}

// resolveOutput picks the output path: the flag, else the first local file
// input with a .pdf extension, else defaultOutput.
func resolveOutput(flagOutput string, args []string) string {
	if flagOutput != "" {
		return flagOutput
	}
	for _, arg := range args {
		if arg != stdinArg && !fileutil.IsURL(arg) {
			return fileutil.PDFPath(arg)
		}
	}
	return defaultOutput
}

// ensureOutputDir creates the parent directory of path.
func ensureOutputDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", html2pdf.ErrWritePDF, err)
	}
	return nil
}

package main

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-html2pdf"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// engineFlags select and tune the rendering engine.
type engineFlags struct {
	backend     string
	timeout     string
	browserPath string
	lockFile    string
}

// optionFlags map to conversion option keys.
type optionFlags struct {
	pageSize     string
	orientation  string
	margin       string
	zoom         float64
	header       string
	footer       string
	noBackground bool
	noJavaScript bool
	raw          []string // -O key=value
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and timings")
}

// addEngineFlags adds engine selection flags to a FlagSet.
func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVar(&f.backend, "backend", "", "rendering engine: "+strings.Join(html2pdf.Backends(), ", "))
	fs.StringVar(&f.timeout, "timeout", "", "page load timeout, e.g. 45s (default 30s)")
	fs.StringVar(&f.browserPath, "browser-path", "", "Chrome or wkhtmltopdf executable")
	fs.StringVar(&f.lockFile, "lock-file", "", "file lock shared with other html2pdf processes")
}

// addOptionFlags adds conversion option flags to a FlagSet.
func addOptionFlags(fs *flag.FlagSet, f *optionFlags) {
	fs.StringVar(&f.pageSize, "page-size", "", "paper size: "+strings.Join(html2pdf.PageSizes(), ", "))
	fs.StringVar(&f.orientation, "orientation", "", "portrait or landscape")
	fs.StringVar(&f.margin, "margin", "", "all margins, e.g. 10mm, 0.5in")
	fs.Float64Var(&f.zoom, "zoom", 1, "content zoom factor")
	fs.StringVar(&f.header, "header", "", "header text; [page] [topage] [date] [title] [url] are replaced")
	fs.StringVar(&f.footer, "footer", "", "footer text, same placeholders as --header")
	fs.BoolVar(&f.noBackground, "no-background", false, "skip CSS backgrounds")
	fs.BoolVar(&f.noJavaScript, "no-javascript", false, "disable JavaScript while loading")
	fs.StringArrayVarP(&f.raw, "option", "O", nil, "any option as key=value (repeatable, see 'html2pdf options')")
}

// options returns the options set on the command line, layered over base.
// Dedicated flags win over -O; flags left at their default are omitted.
func (f *optionFlags) options(fs *flag.FlagSet, base html2pdf.Options) (html2pdf.Options, error) {
	opts := make(html2pdf.Options, len(base)+len(f.raw))
	for k, v := range base {
		opts[k] = v
	}

	for _, kv := range f.raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: -O %q: want key=value", ErrUsage, kv)
		}
		opts[key] = value
	}

	set := func(name, key string, value any) {
		if fs.Changed(name) {
			opts[key] = value
		}
	}
	set("page-size", html2pdf.KeyPageSize, f.pageSize)
	set("orientation", html2pdf.KeyOrientation, f.orientation)
	set("margin", html2pdf.KeyMargin, f.margin)
	set("zoom", html2pdf.KeyZoom, f.zoom)
	set("header", html2pdf.KeyHeaderText, f.header)
	set("footer", html2pdf.KeyFooterText, f.footer)
	set("no-background", html2pdf.KeyPrintBackground, !f.noBackground)
	set("no-javascript", html2pdf.KeyEnableJavaScript, !f.noJavaScript)

	if err := html2pdf.ValidateOptions(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

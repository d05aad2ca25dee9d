// Package html2pdf converts HTML documents and web pages to PDF.
//
// # Quick Start
//
// Convert inline HTML and get the PDF bytes:
//
//	pdf, err := html2pdf.FromString(ctx, "<h1>Hello</h1>", nil, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or let the package write the file:
//
//	_, err := html2pdf.FromURL(ctx, "https://example.com", nil, "example.pdf")
//
// ToPDF accepts either form: input starting with http://, https:// or
// file:// is fetched as a URL, anything else is rendered as HTML.
//
// # Engine
//
// Rendering is done by an external engine that is not reentrant. The
// package keeps one engine per process, starts it on first use and runs
// every engine call under a single lock, so the functions above are safe to
// call from any number of goroutines. Conversions queue; they never run side
// by side inside the engine.
//
// Three backends are available:
//
//   - rod (default): headless Chrome via go-rod, downloaded on first run if
//     no browser is installed
//   - chromedp: headless Chrome via chromedp, using an installed browser
//   - wkhtmltopdf: the wkhtmltopdf executable
//
// Select one before the first conversion:
//
//	err := html2pdf.Configure(
//	    html2pdf.WithBackend(html2pdf.BackendWkhtmltopdf),
//	    html2pdf.WithTimeout(time.Minute),
//	    html2pdf.WithLogger(slog.Default()),
//	)
//
// A failed start is reported as ErrEngineUnavailable and remembered until
// Shutdown. Shutdown refuses with ErrEngineBusy while conversions are in
// flight.
//
// # Options
//
// Options is a map of recognized keys; see KnownOptions and OptionHelp.
// Values may be strings, numbers or booleans:
//
//	opts := html2pdf.Options{
//	    html2pdf.KeyPageSize:    "Letter",
//	    html2pdf.KeyOrientation: "landscape",
//	    html2pdf.KeyMargin:      "0.5in",
//	    html2pdf.KeyFooterText:  "Page [page] of [topage]",
//	}
//
// Unknown keys and malformed values fail with ErrInvalidOption before the
// engine is touched.
//
// # Multiple Documents
//
// Convert renders several inputs into one PDF, in order. Page geometry is
// set on the Job; zoom, header, footer, backgrounds and JavaScript may be
// overridden per Input.
//
// # Errors
//
// All errors wrap one of the exported sentinels, for use with errors.Is:
// ErrInvalidInput, ErrInvalidOption, ErrEngineUnavailable,
// ErrConversionFailed and ErrWritePDF.
package html2pdf

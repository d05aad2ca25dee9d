package html2pdf

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Input is one document to convert: inline HTML or a URL, never both.
// Options holds per-input overrides of source-scoped keys (zoom, header,
// footer, backgrounds, JavaScript).
type Input struct {
	HTML    string
	URL     string
	Options Options
}

// Job converts several inputs into one PDF, in order.
// Options applies to every input; page geometry keys are only valid here.
//
// DenyLocalFiles refuses file:// inputs and keeps documents from reading
// local files, for jobs whose inputs come from untrusted callers.
type Job struct {
	Inputs         []Input
	Options        Options
	DenyLocalFiles bool
}

// sourceKind tells the engine how to load a document source.
type sourceKind int

const (
	sourceHTML sourceKind = iota
	sourceURL
)

func (k sourceKind) String() string {
	if k == sourceURL {
		return "url"
	}
	return "html"
}

// documentSource is a validated input plus its settings. The native object
// exists only between open and the end of the owning job.
type documentSource struct {
	kind     sourceKind
	content  string // HTML markup or normalized URL
	settings sourceSettings
}

// urlSchemes lists the schemes accepted for URL inputs.
var urlSchemes = []string{"http://", "https://", "file://"}

// looksLikeURL reports whether ToPDF should treat input as a URL.
func looksLikeURL(input string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// detectInput applies the ToPDF auto-detection rule.
func detectInput(input string) Input {
	if looksLikeURL(input) {
		return Input{URL: strings.TrimSpace(input)}
	}
	return Input{HTML: input}
}

// validateURL checks URL syntax without touching the network.
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidInput)
	}
	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: URL %q contains whitespace", ErrInvalidInput, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Hostname() == "" {
			return "", fmt.Errorf("%w: URL %q has no host", ErrInvalidInput, raw)
		}
	case "file":
		if u.Path == "" {
			return "", fmt.Errorf("%w: URL %q has no path", ErrInvalidInput, raw)
		}
	case "":
		return "", fmt.Errorf("%w: URL %q has no scheme", ErrInvalidInput, raw)
	default:
		return "", fmt.Errorf("%w: unsupported URL scheme %q", ErrInvalidInput, u.Scheme)
	}
	return u.String(), nil
}

// buildSource validates one input and attaches its settings.
// No engine call happens here; see engine.run for object creation.
func buildSource(in Input, base sourceSettings) (*documentSource, error) {
	hasHTML := in.HTML != ""
	hasURL := in.URL != ""

	switch {
	case hasHTML && hasURL:
		return nil, fmt.Errorf("%w: input has both HTML and URL", ErrInvalidInput)
	case !hasHTML && !hasURL:
		return nil, fmt.Errorf("%w: input has neither HTML nor URL", ErrInvalidInput)
	}

	settings, err := translateSource(base, in.Options)
	if err != nil {
		return nil, err
	}

	if hasURL {
		u, err := validateURL(in.URL)
		if err != nil {
			return nil, err
		}
		if settings.DenyLocalFiles && strings.HasPrefix(strings.ToLower(u), "file:") {
			return nil, fmt.Errorf("%w: local file %q not allowed", ErrInvalidInput, u)
		}
		return &documentSource{kind: sourceURL, content: u, settings: settings}, nil
	}

	if strings.TrimSpace(in.HTML) == "" {
		return nil, fmt.Errorf("%w: HTML content is blank", ErrInvalidInput)
	}
	return &documentSource{kind: sourceHTML, content: in.HTML, settings: settings}, nil
}

// open creates the native object for this source.
// Callers must hold the engine lock.
func (d *documentSource) open(native nativeEngine) (nativeObject, error) {
	return native.NewObject(d.kind, d.content, d.settings)
}

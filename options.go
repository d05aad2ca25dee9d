package html2pdf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Options maps option keys to values. Values may be strings, numbers or
// booleans; they are coerced per key. A nil map means engine defaults.
type Options map[string]any

// Recognized option keys.
const (
	KeyPageSize         = "page_size"
	KeyOrientation      = "orientation"
	KeyMargin           = "margin"
	KeyMarginTop        = "margin_top"
	KeyMarginBottom     = "margin_bottom"
	KeyMarginLeft       = "margin_left"
	KeyMarginRight      = "margin_right"
	KeyZoom             = "zoom"
	KeyHeaderText       = "header_text"
	KeyFooterText       = "footer_text"
	KeyPrintBackground  = "print_background"
	KeyEnableJavaScript = "enable_javascript"
)

// optionScope says whether a key configures the job or a single source.
type optionScope int

const (
	scopeJob optionScope = iota
	scopeSource
)

// optionDef describes one recognized key.
type optionDef struct {
	key   string
	scope optionScope
	help  string
	apply func(s *conversionSettings, v any) error
}

// optionTable is ordered: "margin" is applied before the per-side keys.
var optionTable = []optionDef{
	{
		key:   KeyPageSize,
		scope: scopeJob,
		help:  "paper size: " + strings.Join(PageSizes(), ", "),
		apply: func(s *conversionSettings, v any) error {
			name, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			d, ok := pageSizes[strings.ToUpper(strings.TrimSpace(name))]
			if !ok {
				return fmt.Errorf("unknown page size")
			}
			s.job.PageSize = d.name
			return nil
		},
	},
	{
		key:   KeyOrientation,
		scope: scopeJob,
		help:  "portrait or landscape",
		apply: func(s *conversionSettings, v any) error {
			o, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			switch strings.ToLower(strings.TrimSpace(o)) {
			case OrientationPortrait:
				s.job.Landscape = false
			case OrientationLandscape:
				s.job.Landscape = true
			default:
				return fmt.Errorf("must be %s or %s", OrientationPortrait, OrientationLandscape)
			}
			return nil
		},
	},
	{
		key:   KeyMargin,
		scope: scopeJob,
		help:  "all margins, e.g. 10mm, 0.5in, 1cm (bare numbers are mm)",
		apply: func(s *conversionSettings, v any) error {
			mm, err := toLengthMM(v)
			if err != nil {
				return err
			}
			s.job.Margins = margins{Top: mm, Bottom: mm, Left: mm, Right: mm}
			return nil
		},
	},
	marginDef(KeyMarginTop, func(m *margins) *float64 { return &m.Top }),
	marginDef(KeyMarginBottom, func(m *margins) *float64 { return &m.Bottom }),
	marginDef(KeyMarginLeft, func(m *margins) *float64 { return &m.Left }),
	marginDef(KeyMarginRight, func(m *margins) *float64 { return &m.Right }),
	{
		key:   KeyZoom,
		scope: scopeSource,
		help:  fmt.Sprintf("content zoom factor, %.1f to %.1f", MinZoom, MaxZoom),
		apply: func(s *conversionSettings, v any) error {
			z, err := cast.ToFloat64E(v)
			if err != nil {
				return err
			}
			if !isFinite(z) {
				return errNotFinite
			}
			if z < MinZoom || z > MaxZoom {
				return fmt.Errorf("must be between %.1f and %.1f", MinZoom, MaxZoom)
			}
			s.source.Zoom = z
			return nil
		},
	},
	{
		key:   KeyHeaderText,
		scope: scopeSource,
		help:  "header line; supports [page], [topage], [date], [title], [url]",
		apply: func(s *conversionSettings, v any) error {
			text, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			s.source.HeaderText = text
			return nil
		},
	},
	{
		key:   KeyFooterText,
		scope: scopeSource,
		help:  "footer line; supports [page], [topage], [date], [title], [url]",
		apply: func(s *conversionSettings, v any) error {
			text, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			s.source.FooterText = text
			return nil
		},
	},
	{
		key:   KeyPrintBackground,
		scope: scopeSource,
		help:  "print CSS backgrounds (true/false)",
		apply: func(s *conversionSettings, v any) error {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return err
			}
			s.source.PrintBackground = b
			return nil
		},
	},
	{
		key:   KeyEnableJavaScript,
		scope: scopeSource,
		help:  "run page JavaScript (true/false)",
		apply: func(s *conversionSettings, v any) error {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return err
			}
			s.source.EnableJavaScript = b
			return nil
		},
	},
}

func marginDef(key string, field func(*margins) *float64) optionDef {
	return optionDef{
		key:   key,
		scope: scopeJob,
		help:  "single margin length (overrides margin)",
		apply: func(s *conversionSettings, v any) error {
			mm, err := toLengthMM(v)
			if err != nil {
				return err
			}
			*field(&s.job.Margins) = mm
			return nil
		},
	}
}

// toLengthMM accepts a length string ("12mm") or a number of millimeters.
func toLengthMM(v any) (float64, error) {
	var mm float64
	if s, ok := v.(string); ok {
		parsed, err := parseLengthMM(s)
		if err != nil {
			return 0, err
		}
		mm = parsed
	} else {
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, err
		}
		mm = n
	}
	if !isFinite(mm) {
		return 0, errNotFinite
	}
	if mm < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return mm, nil
}

var errNotFinite = errors.New("must be a finite number")

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// checkMargins rejects margins that leave no printable area on the paper.
func checkMargins(j jobSettings, opts Options) error {
	width, height := j.paperMM()
	m := j.Margins
	if m.Top+m.Bottom >= height {
		return &OptionError{
			Key:    marginKey(opts, KeyMarginTop, KeyMarginBottom),
			Reason: fmt.Sprintf("top and bottom margins (%.1fmm) leave no room on %.1fmm paper", m.Top+m.Bottom, height),
		}
	}
	if m.Left+m.Right >= width {
		return &OptionError{
			Key:    marginKey(opts, KeyMarginLeft, KeyMarginRight),
			Reason: fmt.Sprintf("left and right margins (%.1fmm) leave no room on %.1fmm paper", m.Left+m.Right, width),
		}
	}
	return nil
}

// marginKey names the first of keys present in opts, else KeyMargin.
func marginKey(opts Options, keys ...string) string {
	for _, k := range keys {
		if _, ok := opts[k]; ok {
			return k
		}
	}
	return KeyMargin
}

func lookupOption(key string) (optionDef, bool) {
	for _, def := range optionTable {
		if def.key == key {
			return def, true
		}
	}
	return optionDef{}, false
}

// KnownOptions returns the recognized option keys, sorted.
func KnownOptions() []string {
	keys := make([]string, 0, len(optionTable))
	for _, def := range optionTable {
		keys = append(keys, def.key)
	}
	sort.Strings(keys)
	return keys
}

// OptionHelp returns a one-line description of a recognized key.
func OptionHelp(key string) string {
	def, ok := lookupOption(key)
	if !ok {
		return ""
	}
	return def.help
}

// ValidateOptions reports the first unknown key or malformed value in opts.
func ValidateOptions(opts Options) error {
	_, err := translate(opts)
	return err
}

// translate converts an Options map into conversion settings.
// Unknown keys are rejected before any value is inspected.
func translate(opts Options) (conversionSettings, error) {
	s, err := translateOnto(defaultSettings(), opts, scopeJob, scopeSource)
	if err != nil {
		return conversionSettings{}, err
	}
	if err := checkMargins(s.job, opts); err != nil {
		return conversionSettings{}, err
	}
	return s, nil
}

// translateSource applies per-input options over the job's source defaults.
// Job-scoped keys are rejected because they cannot differ between inputs.
func translateSource(base sourceSettings, opts Options) (sourceSettings, error) {
	s := conversionSettings{source: base}
	s, err := translateOnto(s, opts, scopeSource)
	if err != nil {
		return sourceSettings{}, err
	}
	return s.source, nil
}

func translateOnto(s conversionSettings, opts Options, allowed ...optionScope) (conversionSettings, error) {
	if len(opts) == 0 {
		return s, nil
	}

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		def, ok := lookupOption(k)
		if !ok {
			return conversionSettings{}, &OptionError{Key: k, Reason: "unrecognized key"}
		}
		if !scopeAllowed(def.scope, allowed) {
			return conversionSettings{}, &OptionError{Key: k, Reason: "applies to the whole job, not a single input"}
		}
	}

	for _, def := range optionTable {
		v, ok := opts[def.key]
		if !ok {
			continue
		}
		if v == nil {
			return conversionSettings{}, &OptionError{Key: def.key, Reason: "value is required"}
		}
		if err := def.apply(&s, v); err != nil {
			return conversionSettings{}, &OptionError{Key: def.key, Value: v, Reason: err.Error()}
		}
	}
	return s, nil
}

func scopeAllowed(scope optionScope, allowed []optionScope) bool {
	for _, a := range allowed {
		if a == scope {
			return true
		}
	}
	return false
}

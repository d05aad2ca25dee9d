package html2pdf

import (
	"errors"
	"math"
	"sort"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestTranslate - Option map to settings
// ---------------------------------------------------------------------------

func TestTranslate_Defaults(t *testing.T) {
	t.Parallel()

	for _, opts := range []Options{nil, {}} {
		got, err := translate(opts)
		if err != nil {
			t.Fatalf("translate(%v) error = %v", opts, err)
		}
		if got != defaultSettings() {
			t.Errorf("translate(%v) = %+v, want defaults %+v", opts, got, defaultSettings())
		}
	}
}

func TestTranslate_Keys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opts  Options
		check func(t *testing.T, s conversionSettings)
	}{
		{
			name: "page size case-insensitive",
			opts: Options{KeyPageSize: "letter"},
			check: func(t *testing.T, s conversionSettings) {
				if s.job.PageSize != PageSizeLetter {
					t.Errorf("PageSize = %q, want %q", s.job.PageSize, PageSizeLetter)
				}
			},
		},
		{
			name: "landscape",
			opts: Options{KeyOrientation: "Landscape"},
			check: func(t *testing.T, s conversionSettings) {
				if !s.job.Landscape {
					t.Error("Landscape = false, want true")
				}
			},
		},
		{
			name: "margin sets all sides",
			opts: Options{KeyMargin: "1cm"},
			check: func(t *testing.T, s conversionSettings) {
				want := margins{Top: 10, Bottom: 10, Left: 10, Right: 10}
				if s.job.Margins != want {
					t.Errorf("Margins = %+v, want %+v", s.job.Margins, want)
				}
			},
		},
		{
			name: "side margin overrides margin regardless of map order",
			opts: Options{KeyMarginTop: "1in", KeyMargin: 5},
			check: func(t *testing.T, s conversionSettings) {
				if !approxEqual(s.job.Margins.Top, 25.4) {
					t.Errorf("Top = %v, want 25.4", s.job.Margins.Top)
				}
				if s.job.Margins.Bottom != 5 {
					t.Errorf("Bottom = %v, want 5", s.job.Margins.Bottom)
				}
			},
		},
		{
			name: "numeric margin is millimeters",
			opts: Options{KeyMarginLeft: 7.5},
			check: func(t *testing.T, s conversionSettings) {
				if s.job.Margins.Left != 7.5 {
					t.Errorf("Left = %v, want 7.5", s.job.Margins.Left)
				}
			},
		},
		{
			name: "zoom from string",
			opts: Options{KeyZoom: "1.5"},
			check: func(t *testing.T, s conversionSettings) {
				if s.source.Zoom != 1.5 {
					t.Errorf("Zoom = %v, want 1.5", s.source.Zoom)
				}
			},
		},
		{
			name: "header and footer",
			opts: Options{KeyHeaderText: "Report", KeyFooterText: "[page]/[topage]"},
			check: func(t *testing.T, s conversionSettings) {
				if s.source.HeaderText != "Report" || s.source.FooterText != "[page]/[topage]" {
					t.Errorf("header/footer = %q/%q", s.source.HeaderText, s.source.FooterText)
				}
			},
		},
		{
			name: "booleans from strings",
			opts: Options{KeyPrintBackground: "false", KeyEnableJavaScript: false},
			check: func(t *testing.T, s conversionSettings) {
				if s.source.PrintBackground || s.source.EnableJavaScript {
					t.Errorf("PrintBackground=%v EnableJavaScript=%v, want both false",
						s.source.PrintBackground, s.source.EnableJavaScript)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := translate(tt.opts)
			if err != nil {
				t.Fatalf("translate() error = %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestTranslate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		wantKey string
	}{
		{name: "unknown key", opts: Options{"dpi": 300}, wantKey: "dpi"},
		{name: "unknown key reported before bad value", opts: Options{"aaa": 1, KeyZoom: "huge"}, wantKey: "aaa"},
		{name: "unknown page size", opts: Options{KeyPageSize: "A9"}, wantKey: KeyPageSize},
		{name: "bad orientation", opts: Options{KeyOrientation: "diagonal"}, wantKey: KeyOrientation},
		{name: "bad margin unit", opts: Options{KeyMargin: "3em"}, wantKey: KeyMargin},
		{name: "negative margin", opts: Options{KeyMarginTop: -1}, wantKey: KeyMarginTop},
		{name: "zoom not a number", opts: Options{KeyZoom: "big"}, wantKey: KeyZoom},
		{name: "zoom out of range", opts: Options{KeyZoom: 10}, wantKey: KeyZoom},
		{name: "bool not a bool", opts: Options{KeyPrintBackground: "maybe"}, wantKey: KeyPrintBackground},
		{name: "nil value", opts: Options{KeyPageSize: nil}, wantKey: KeyPageSize},
		{name: "zoom NaN string", opts: Options{KeyZoom: "NaN"}, wantKey: KeyZoom},
		{name: "zoom NaN", opts: Options{KeyZoom: math.NaN()}, wantKey: KeyZoom},
		{name: "zoom infinite", opts: Options{KeyZoom: math.Inf(1)}, wantKey: KeyZoom},
		{name: "margin infinite", opts: Options{KeyMargin: math.Inf(1)}, wantKey: KeyMargin},
		{name: "margin_top NaN", opts: Options{KeyMarginTop: math.NaN()}, wantKey: KeyMarginTop},
		{name: "margin_left infinite string", opts: Options{KeyMarginLeft: "+Inf"}, wantKey: KeyMarginLeft},
		{name: "margins taller than page", opts: Options{KeyMargin: "150mm"}, wantKey: KeyMargin},
		{name: "side margins wider than page", opts: Options{KeyPageSize: "A5", KeyMarginRight: "140mm"}, wantKey: KeyMarginRight},
		{name: "landscape swaps limits", opts: Options{KeyOrientation: "landscape", KeyMarginBottom: "200mm"}, wantKey: KeyMarginBottom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := translate(tt.opts)
			if !errors.Is(err, ErrInvalidOption) {
				t.Fatalf("translate() error = %v, want ErrInvalidOption", err)
			}

			var optErr *OptionError
			if !errors.As(err, &optErr) {
				t.Fatalf("error %T is not *OptionError", err)
			}
			if optErr.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", optErr.Key, tt.wantKey)
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q does not name key %q", err, tt.wantKey)
			}
		})
	}
}

func TestTranslateSource(t *testing.T) {
	t.Parallel()

	base := defaultSettings().source

	t.Run("overrides source keys", func(t *testing.T) {
		t.Parallel()

		got, err := translateSource(base, Options{KeyZoom: 2})
		if err != nil {
			t.Fatalf("translateSource() error = %v", err)
		}
		if got.Zoom != 2 || !got.PrintBackground {
			t.Errorf("got %+v, want zoom 2 and background kept", got)
		}
	})

	t.Run("rejects job keys", func(t *testing.T) {
		t.Parallel()

		_, err := translateSource(base, Options{KeyPageSize: "A4"})
		if !errors.Is(err, ErrInvalidOption) {
			t.Errorf("error = %v, want ErrInvalidOption", err)
		}
	})

	t.Run("does not mutate base", func(t *testing.T) {
		t.Parallel()

		b := base
		_, _ = translateSource(b, Options{KeyZoom: 3})
		if b.Zoom != 1 {
			t.Errorf("base Zoom = %v, want 1", b.Zoom)
		}
	})
}

// ---------------------------------------------------------------------------
// TestKnownOptions / TestOptionHelp / TestValidateOptions
// ---------------------------------------------------------------------------

func TestKnownOptions(t *testing.T) {
	t.Parallel()

	keys := KnownOptions()
	if len(keys) != len(optionTable) {
		t.Fatalf("KnownOptions() = %d keys, want %d", len(keys), len(optionTable))
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("KnownOptions() not sorted: %v", keys)
	}
	for _, k := range keys {
		if OptionHelp(k) == "" {
			t.Errorf("OptionHelp(%q) is empty", k)
		}
	}
	if OptionHelp("nope") != "" {
		t.Error("OptionHelp of unknown key should be empty")
	}
}

func TestValidateOptions(t *testing.T) {
	t.Parallel()

	if err := ValidateOptions(Options{KeyPageSize: "A5", KeyMargin: "0"}); err != nil {
		t.Errorf("ValidateOptions(valid) = %v", err)
	}
	if err := ValidateOptions(Options{"colour": "red"}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("ValidateOptions(unknown) = %v, want ErrInvalidOption", err)
	}
}

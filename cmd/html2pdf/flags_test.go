package main

import (
	"errors"
	"testing"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-html2pdf"
)

func parseOptionFlags(t *testing.T, args ...string) (*flag.FlagSet, *optionFlags) {
	t.Helper()
	var f optionFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	addOptionFlags(fs, &f)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return fs, &f
}

// ---------------------------------------------------------------------------
// TestOptionFlags_Options - Flag to option translation
// ---------------------------------------------------------------------------

func TestOptionFlags_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		base html2pdf.Options
		want html2pdf.Options
	}{
		{
			name: "nothing set",
			want: html2pdf.Options{},
		},
		{
			name: "dedicated flags",
			args: []string{"--page-size", "A5", "--orientation", "landscape", "--margin", "1cm", "--zoom", "2", "--header", "[title]", "--footer", "[page]"},
			want: html2pdf.Options{
				html2pdf.KeyPageSize:    "A5",
				html2pdf.KeyOrientation: "landscape",
				html2pdf.KeyMargin:      "1cm",
				html2pdf.KeyZoom:        2.0,
				html2pdf.KeyHeaderText:  "[title]",
				html2pdf.KeyFooterText:  "[page]",
			},
		},
		{
			name: "negated booleans",
			args: []string{"--no-background", "--no-javascript"},
			want: html2pdf.Options{
				html2pdf.KeyPrintBackground:  false,
				html2pdf.KeyEnableJavaScript: false,
			},
		},
		{
			name: "raw options",
			args: []string{"-O", "margin_top=20mm", "--option", "orientation=portrait"},
			want: html2pdf.Options{
				html2pdf.KeyMarginTop:   "20mm",
				html2pdf.KeyOrientation: "portrait",
			},
		},
		{
			name: "dedicated flag wins over raw",
			args: []string{"-O", "page_size=A3", "--page-size", "Legal"},
			want: html2pdf.Options{html2pdf.KeyPageSize: "Legal"},
		},
		{
			name: "flags layer over base",
			args: []string{"--zoom", "1.5"},
			base: html2pdf.Options{html2pdf.KeyZoom: 0.5, html2pdf.KeyPageSize: "A5"},
			want: html2pdf.Options{html2pdf.KeyZoom: 1.5, html2pdf.KeyPageSize: "A5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs, f := parseOptionFlags(t, tt.args...)
			got, err := f.options(fs, tt.base)
			if err != nil {
				t.Fatalf("options() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("options() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("options()[%q] = %v (%T), want %v (%T)", k, got[k], got[k], v, v)
				}
			}
		})
	}
}

func TestOptionFlags_OptionsDoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := html2pdf.Options{html2pdf.KeyPageSize: "A5"}
	fs, f := parseOptionFlags(t, "--page-size", "A3")
	if _, err := f.options(fs, base); err != nil {
		t.Fatal(err)
	}
	if base[html2pdf.KeyPageSize] != "A5" {
		t.Errorf("base mutated: %v", base)
	}
}

func TestOptionFlags_OptionsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "raw without equals", args: []string{"-O", "zoom"}, wantErr: ErrUsage},
		{name: "raw empty key", args: []string{"-O", "=1"}, wantErr: ErrUsage},
		{name: "unknown key", args: []string{"-O", "dpi=300"}, wantErr: html2pdf.ErrInvalidOption},
		{name: "bad page size", args: []string{"--page-size", "A0"}, wantErr: html2pdf.ErrInvalidOption},
		{name: "zoom out of range", args: []string{"--zoom", "0"}, wantErr: html2pdf.ErrInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs, f := parseOptionFlags(t, tt.args...)
			_, err := f.options(fs, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("options() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

package html2pdf

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Page size constants.
const (
	PageSizeA3      = "A3"
	PageSizeA4      = "A4"
	PageSizeA5      = "A5"
	PageSizeB5      = "B5"
	PageSizeLetter  = "Letter"
	PageSizeLegal   = "Legal"
	PageSizeTabloid = "Tabloid"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Zoom bounds accepted by the translator.
const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// defaultMarginMM matches the wkhtmltopdf default of 10mm on every side.
const defaultMarginMM = 10.0

const mmPerInch = 25.4

// pageDimensions are portrait width and height in millimeters.
type pageDimensions struct {
	name   string
	width  float64
	height float64
}

var pageSizes = map[string]pageDimensions{
	"A3":      {name: PageSizeA3, width: 297, height: 420},
	"A4":      {name: PageSizeA4, width: 210, height: 297},
	"A5":      {name: PageSizeA5, width: 148, height: 210},
	"B5":      {name: PageSizeB5, width: 176, height: 250},
	"LETTER":  {name: PageSizeLetter, width: 215.9, height: 279.4},
	"LEGAL":   {name: PageSizeLegal, width: 215.9, height: 355.6},
	"TABLOID": {name: PageSizeTabloid, width: 279.4, height: 431.8},
}

// PageSizes returns the supported page size names, sorted.
func PageSizes() []string {
	names := make([]string, 0, len(pageSizes))
	for _, d := range pageSizes {
		names = append(names, d.name)
	}
	sort.Strings(names)
	return names
}

// margins are stored in millimeters.
type margins struct {
	Top, Bottom, Left, Right float64
}

// jobSettings apply to the whole output document.
type jobSettings struct {
	PageSize  string
	Landscape bool
	Margins   margins
}

// sourceSettings apply to one document source.
type sourceSettings struct {
	Zoom             float64
	HeaderText       string
	FooterText       string
	PrintBackground  bool
	EnableJavaScript bool
	DenyLocalFiles   bool // set from Job, not from Options
}

// conversionSettings is the translated, immutable form of an Options map.
type conversionSettings struct {
	job    jobSettings
	source sourceSettings
}

// defaultSettings mirrors the engine defaults used when no option is given.
func defaultSettings() conversionSettings {
	return conversionSettings{
		job: jobSettings{
			PageSize: PageSizeA4,
			Margins: margins{
				Top:    defaultMarginMM,
				Bottom: defaultMarginMM,
				Left:   defaultMarginMM,
				Right:  defaultMarginMM,
			},
		},
		source: sourceSettings{
			Zoom:             1,
			PrintBackground:  true,
			EnableJavaScript: true,
		},
	}
}

// paperMM returns the paper width and height in millimeters, orientation applied.
func (s jobSettings) paperMM() (width, height float64) {
	d, ok := pageSizes[strings.ToUpper(s.PageSize)]
	if !ok {
		d = pageSizes["A4"]
	}
	if s.Landscape {
		return d.height, d.width
	}
	return d.width, d.height
}

// paperInches returns the paper width and height in inches, orientation applied.
func (s jobSettings) paperInches() (width, height float64) {
	w, h := s.paperMM()
	return w / mmPerInch, h / mmPerInch
}

// inches converts all margins to inches.
func (m margins) inches() margins {
	return margins{
		Top:    m.Top / mmPerInch,
		Bottom: m.Bottom / mmPerInch,
		Left:   m.Left / mmPerInch,
		Right:  m.Right / mmPerInch,
	}
}

var lengthPattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z]*)\s*$`)

// parseLengthMM converts a CSS-like length to millimeters.
// A bare number is read as millimeters, the unit wkhtmltopdf uses.
func parseLengthMM(value string) (float64, error) {
	matches := lengthPattern.FindStringSubmatch(value)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid length %q", value)
	}

	amount, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %v", value, err)
	}

	switch strings.ToLower(matches[2]) {
	case "", "mm":
		return amount, nil
	case "cm":
		return amount * 10, nil
	case "in":
		return amount * mmPerInch, nil
	case "pt":
		return amount * mmPerInch / 72, nil
	case "px":
		return amount * mmPerInch / 96, nil
	default:
		return 0, fmt.Errorf("unsupported length unit %q", matches[2])
	}
}

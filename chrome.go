package html2pdf

import "os"

// Chrome accepts print scales between 0.1 and 2.
const (
	chromeMinScale = 0.1
	chromeMaxScale = 2.0
)

// Environment variables read by the Chrome backends.
const (
	envBrowserBin = "ROD_BROWSER_BIN"
	envNoSandbox  = "ROD_NO_SANDBOX"
	envCI         = "CI"
)

// chromeBin returns the browser executable to launch, or "" to let the
// backend find (or download) one.
func chromeBin(cfg engineConfig) string {
	if cfg.browserPath != "" {
		return cfg.browserPath
	}
	return os.Getenv(envBrowserBin)
}

// chromeNoSandbox reports whether the sandbox must be disabled. Required in
// CI and in containers, where a pre-installed browser is the usual setup.
func chromeNoSandbox(cfg engineConfig) bool {
	return os.Getenv(envCI) == "true" ||
		os.Getenv(envNoSandbox) == "1" ||
		chromeBin(cfg) != ""
}

// printParams is the Chrome print request for one object, in inches.
type printParams struct {
	paperWidth      float64
	paperHeight     float64
	margins         margins
	scale           float64
	printBackground bool
	displayHF       bool
	headerTemplate  string
	footerTemplate  string
}

// newPrintParams maps settings onto Chrome's print model. Orientation is
// applied to the paper size, so Chrome's own landscape flag stays off.
func newPrintParams(j jobSettings, s sourceSettings) printParams {
	w, h := j.paperInches()
	header, footer, display := chromeHeaderFooter(s)
	return printParams{
		paperWidth:      w,
		paperHeight:     h,
		margins:         j.Margins.inches(),
		scale:           clampScale(s.Zoom),
		printBackground: s.PrintBackground,
		displayHF:       display,
		headerTemplate:  header,
		footerTemplate:  footer,
	}
}

func clampScale(zoom float64) float64 {
	switch {
	case zoom <= 0:
		return 1
	case zoom < chromeMinScale:
		return chromeMinScale
	case zoom > chromeMaxScale:
		return chromeMaxScale
	default:
		return zoom
	}
}

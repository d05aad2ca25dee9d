package html2pdf

import (
	"fmt"
	"html"
	"strings"
)

// templateFontFamily is used for header and footer lines on the Chrome backends.
const templateFontFamily = `-apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif`

// emptyTemplate hides Chrome's default header or footer.
const emptyTemplate = "<span></span>"

// placeholderClasses maps header/footer placeholders to the CSS classes
// Chrome fills in at print time.
var placeholderClasses = []struct {
	placeholder string
	class       string
}{
	{"[page]", "pageNumber"},
	{"[topage]", "totalPages"},
	{"[date]", "date"},
	{"[title]", "title"},
	{"[url]", "url"},
}

// chromeTemplate turns a header/footer line using wkhtmltopdf-style
// placeholders into a Chrome print template. Literal text is HTML-escaped.
func chromeTemplate(text string) string {
	if strings.TrimSpace(text) == "" {
		return emptyTemplate
	}

	content := html.EscapeString(text)
	for _, p := range placeholderClasses {
		content = strings.ReplaceAll(content, p.placeholder, `<span class="`+p.class+`"></span>`)
	}

	return fmt.Sprintf(`<div style="font-size: 10px; font-family: %s; color: #555; width: 100%%; text-align: center; padding: 0 0.4in;">%s</div>`,
		templateFontFamily, content)
}

// chromeHeaderFooter returns the templates for s and whether Chrome should
// display them at all.
func chromeHeaderFooter(s sourceSettings) (header, footer string, display bool) {
	header = chromeTemplate(s.HeaderText)
	footer = chromeTemplate(s.FooterText)
	display = header != emptyTemplate || footer != emptyTemplate
	return header, footer, display
}

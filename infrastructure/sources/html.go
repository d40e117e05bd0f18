package sources

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n\s*\n+`)

// extractText reduces an HTML document to its visible text, one line per
// text node, with script, style, and metadata content dropped. A document
// that fails to parse yields an empty string rather than an error; a page
// we cannot read is simply not evidence.
func extractText(htmlSource string) string {
	doc, err := html.Parse(strings.NewReader(htmlSource))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(blankLines.ReplaceAllString(b.String(), "\n"))
}

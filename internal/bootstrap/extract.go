package bootstrap

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
)

const (
	// bodyTextScript reads what Chrome shows for a raw XML document.
	bodyTextScript = `document.body ? document.body.innerText : ""`

	// viewerSourceXPath locates the hidden copy of the document that
	// Chrome's built-in XML viewer keeps when it renders a styled tree.
	viewerSourceXPath = `//div[@id='webkit-xml-viewer-source-xml']`

	xmlDeclaration = "<?xml"
)

// pageSource is the part of a browser session extraction needs.
type pageSource interface {
	EvaluateString(ctx context.Context, script string) (string, error)
	HTML(ctx context.Context) (string, error)
}

// extractXML returns the sitemap document displayed by the browser. The
// page text is used when it is an XML document; otherwise the XML viewer's
// source container is read from the rendered HTML. When both fail, a
// non-XML page text is still returned so the parse step can report it.
func extractXML(ctx context.Context, page pageSource) (content string, method string) {
	text, err := page.EvaluateString(ctx, bodyTextScript)
	text = strings.TrimSpace(text)
	if err == nil && strings.HasPrefix(text, xmlDeclaration) {
		return text, "page text"
	}

	html, err := page.HTML(ctx)
	if err == nil {
		if inner := viewerSource(html); inner != "" {
			return inner, "xml viewer container"
		}
	}
	return text, "page text"
}

// viewerSource returns the inner HTML of the XML viewer source container,
// or "" when the page has none.
func viewerSource(html string) string {
	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return ""
	}
	node := htmlquery.FindOne(doc, viewerSourceXPath)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.OutputHTML(node, false))
}

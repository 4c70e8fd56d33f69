package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	whatwg "github.com/nlnwa/whatwg-url/url"
	"golang.org/x/net/html"

	"github.com/nao1215/docscout/internal/model"
)

// LastUpdateSelector locates the "last updated" line of a documentation page.
// It depends on the markup of docs.selectel.ru.
const LastUpdateSelector = "div.doc-body__last-update"

const languageClassPrefix = "language-"

var urlParser = whatwg.NewParser(whatwg.WithPercentEncodeSinglePercentSign())

// Link is one anchor of a page resolved against the page URL.
type Link struct {
	// Href is the raw attribute value.
	Href string

	// URL is the absolute target.
	URL string

	// Internal reports whether the target shares the page's host.
	Internal bool

	// Checkable reports whether the target can be probed over HTTP.
	Checkable bool
}

// ParseResult holds everything extracted from one page.
type ParseResult struct {
	Title          string
	Description    string
	LastUpdateDate string

	TablesCount     int
	CodeBlocksCount int
	CodeLanguages   map[string]int

	// Text is the lowercased text content of the whole document.
	Text string

	// TotalLinks counts every <a> carrying an href attribute.
	TotalLinks int

	// Links are the anchors left after skipping fragment-only and blank
	// hrefs, in document order. Duplicates are kept.
	Links []Link
}

// InternalCount returns the number of links pointing at the page's host.
func (r *ParseResult) InternalCount() int {
	n := 0
	for _, l := range r.Links {
		if l.Internal {
			n++
		}
	}
	return n
}

// ExternalCount returns the number of links pointing elsewhere.
func (r *ParseResult) ExternalCount() int {
	return len(r.Links) - r.InternalCount()
}

// UniqueTargets returns the distinct checkable link targets in first-seen order.
func (r *ParseResult) UniqueTargets() []string {
	seen := make(map[string]struct{}, len(r.Links))
	out := make([]string, 0, len(r.Links))
	for _, l := range r.Links {
		if !l.Checkable {
			continue
		}
		if _, ok := seen[l.URL]; ok {
			continue
		}
		seen[l.URL] = struct{}{}
		out = append(out, l.URL)
	}
	return out
}

// Parser extracts page signals from HTML.
type Parser struct {
	pageURL  string
	pageHost string
}

// NewParser returns a Parser for the page at pageURL. Relative links are
// resolved against it.
func NewParser(pageURL string) (*Parser, error) {
	u, err := urlParser.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	return &Parser{pageURL: u.Href(false), pageHost: u.Host()}, nil
}

// Parse reads an HTML document from content.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Title:          model.NotAvailable,
		Description:    model.NotAvailable,
		LastUpdateDate: model.NotAvailable,
		CodeLanguages:  make(map[string]int),
		Text:           lower(doc.Text()),
	}

	if title := doc.Find("title").First(); title.Length() > 0 {
		result.Title = strings.TrimSpace(title.Text())
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		result.Description = strings.TrimSpace(desc)
	}
	if date := doc.Find(LastUpdateSelector).First(); date.Length() > 0 {
		result.LastUpdateDate = strippedText(date)
	}

	result.TablesCount = doc.Find("table").Length()

	blocks := doc.Find("pre")
	result.CodeBlocksCount = blocks.Length()
	blocks.Each(func(_ int, pre *goquery.Selection) {
		result.CodeLanguages[codeLanguage(pre)]++
	})

	anchors := doc.Find("a[href]")
	result.TotalLinks = anchors.Length()
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if link, ok := p.resolve(href); ok {
			result.Links = append(result.Links, link)
		}
	})

	return result, nil
}

// resolve turns href into a Link. Fragment-only, blank and unparsable
// hrefs are skipped.
func (p *Parser) resolve(href string) (Link, bool) {
	if strings.HasPrefix(href, "#") || strings.TrimSpace(href) == "" {
		return Link{}, false
	}
	u, err := urlParser.ParseRef(p.pageURL, href)
	if err != nil {
		return Link{}, false
	}
	scheme := u.Scheme()
	return Link{
		Href:      href,
		URL:       u.Href(false),
		Internal:  u.Host() == p.pageHost,
		Checkable: scheme == "http" || scheme == "https",
	}, true
}

// codeLanguage returns the language named by the first language-* class of
// the <code> inside pre.
func codeLanguage(pre *goquery.Selection) string {
	code := pre.Find("code").First()
	if code.Length() == 0 {
		return model.UnknownLanguage
	}
	for _, class := range strings.Fields(code.AttrOr("class", "")) {
		if lang, ok := strings.CutPrefix(class, languageClassPrefix); ok {
			return lang
		}
	}
	return model.UnknownLanguage
}

// strippedText joins the trimmed text nodes under sel without separators.
func strippedText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return sb.String()
}

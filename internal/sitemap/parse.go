package sitemap

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Namespace is the sitemaps.org protocol namespace. Only elements in it are
// recognized.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ErrNoRootElement is returned for a document without any element.
var ErrNoRootElement = errors.New("xml document has no root element")

var gzipMagic = []byte{0x1f, 0x8b}

// Decompress gunzips data when it starts with the gzip magic bytes and
// returns it unchanged otherwise. The content type is never consulted.
func Decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip stream: %w", err)
	}
	return out, nil
}

// Parse decompresses data if needed and parses it as XML, returning the
// root element.
func Parse(data []byte) (*xmlquery.Node, error) {
	plain, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(plain))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := rootElement(doc)
	if root == nil {
		return nil, ErrNoRootElement
	}
	return root, nil
}

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// IsIndex reports whether root has at least one <sitemap> child.
func IsIndex(root *xmlquery.Node) bool {
	return len(children(root, "sitemap")) > 0
}

// ChildSitemaps returns the <loc> of every <sitemap> child of root, in
// document order. Entries with a missing or empty <loc> are skipped.
func ChildSitemaps(root *xmlquery.Node) []string {
	return locs(children(root, "sitemap"))
}

// PageURLs returns the <loc> of every <url> child of root, in document order.
func PageURLs(root *xmlquery.Node) []string {
	return locs(children(root, "url"))
}

func locs(entries []*xmlquery.Node) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		loc := firstChild(e, "loc")
		if loc == nil {
			continue
		}
		if text := strings.TrimSpace(loc.InnerText()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// children returns the direct element children of n named local in the
// sitemap namespace.
func children(n *xmlquery.Node, local string) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isSitemapElement(c, local) {
			out = append(out, c)
		}
	}
	return out
}

func firstChild(n *xmlquery.Node, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isSitemapElement(c, local) {
			return c
		}
	}
	return nil
}

func isSitemapElement(n *xmlquery.Node, local string) bool {
	return n.Type == xmlquery.ElementNode && n.Data == local && n.NamespaceURI == Namespace
}

package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/docscout/internal/model"
)

// JSONWriter outputs results as JSON. Non-ASCII text and '&' in URLs are
// written as is.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteDiscovery writes an object mapping provider names to their URLs.
func (w *JSONWriter) WriteDiscovery(results []*model.CrawlResult) (int, error) {
	return w.writeJSON(model.URLsByProvider(results))
}

// WritePages writes the reports as an array.
func (w *JSONWriter) WritePages(reports []*model.PageReport) (int, error) {
	if reports == nil {
		reports = []*model.PageReport{}
	}
	return w.writeJSON(reports)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

package report

import (
	"io"

	"github.com/nao1215/docscout/internal/model"
)

// Writer renders run results in one format.
type Writer interface {
	// WriteDiscovery renders the documentation URLs found per provider.
	WriteDiscovery(results []*model.CrawlResult) (int, error)

	// WritePages renders page analysis reports.
	WritePages(reports []*model.PageReport) (int, error)
}

// MultiWriter writes to multiple Writers in order, stopping at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteDiscovery writes results to every Writer.
func (m *MultiWriter) WriteDiscovery(results []*model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDiscovery(results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WritePages writes reports to every Writer.
func (m *MultiWriter) WritePages(reports []*model.PageReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WritePages(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

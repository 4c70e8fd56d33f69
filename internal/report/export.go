package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/model"
)

// Export file base names, without extension.
const (
	DiscoveryBaseName = "documentation_urls"
	PagesBaseName     = "page_analysis"
)

var extensions = map[string]string{
	config.FormatJSON:     ".json",
	config.FormatMarkdown: ".md",
	config.FormatCSV:      ".csv",
}

// Exporter writes result files into a directory, one per format.
type Exporter struct {
	dir     string
	formats []string
	console *ConsoleWriter
}

// NewExporter returns an Exporter for dir. console, when not nil, is told
// about every file written or failed.
func NewExporter(dir string, formats []string, console *ConsoleWriter) *Exporter {
	return &Exporter{dir: dir, formats: formats, console: console}
}

// NewFormatWriter returns the Writer for format.
func NewFormatWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case config.FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case config.FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case config.FormatCSV:
		return NewCSVWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownFormat, format)
	}
}

// ExportDiscovery writes results in every format and returns the paths
// written. A format that fails does not stop the others.
func (e *Exporter) ExportDiscovery(results []*model.CrawlResult) ([]string, error) {
	return e.export(DiscoveryBaseName, func(w Writer) error {
		_, err := w.WriteDiscovery(results)
		return err
	})
}

// ExportPages writes reports in every format and returns the paths written.
func (e *Exporter) ExportPages(reports []*model.PageReport) ([]string, error) {
	return e.export(PagesBaseName, func(w Writer) error {
		_, err := w.WritePages(reports)
		return err
	})
}

func (e *Exporter) export(base string, write func(Writer) error) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		paths []string
		errs  []error
	)
	for _, format := range e.formats {
		ext, ok := extensions[format]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", config.ErrUnknownFormat, format))
			continue
		}
		path := filepath.Join(e.dir, base+ext)
		if err := e.writeFile(path, format, write); err != nil {
			if e.console != nil {
				e.console.SaveFailed(path, err)
			}
			errs = append(errs, err)
			continue
		}
		if e.console != nil {
			e.console.Saved(path)
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func (e *Exporter) writeFile(path, format string, write func(Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is built from the configured output directory
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := NewFormatWriter(format, f)
	if err != nil {
		return err
	}
	return write(w)
}

package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/docscout/internal/model"
)

// Column headers of the flattened link summary.
const (
	ColumnTotalLinks    = "Total Links"
	ColumnInternalLinks = "Internal Links"
	ColumnExternalLinks = "External Links"
	ColumnBrokenLinks   = "Broken Links"
)

// CSVWriter outputs results as CSV with a header row. Nested counters of
// page reports are flattened into one column per key, such as
// code_languages_bash or found_tools_API.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// WriteDiscovery writes one provider,url row per discovered page.
func (w *CSVWriter) WriteDiscovery(results []*model.CrawlResult) (int, error) {
	rows := [][]string{{"provider", "url"}}
	for _, r := range results {
		for _, u := range r.URLs {
			rows = append(rows, []string{r.Provider, u})
		}
	}
	return w.write(rows)
}

// WritePages writes one row per report.
func (w *CSVWriter) WritePages(reports []*model.PageReport) (int, error) {
	languages := unionKeys(reports, func(r *model.PageReport) map[string]int { return r.CodeLanguages })
	tools := unionKeys(reports, func(r *model.PageReport) map[string]int { return r.FoundTools })

	header := []string{"url", "status", "title", "description", "last_update_date", "tables_count", "code_blocks_count"}
	for _, l := range languages {
		header = append(header, "code_languages_"+l)
	}
	for _, t := range tools {
		header = append(header, "found_tools_"+t)
	}
	header = append(header,
		ColumnTotalLinks, ColumnInternalLinks, ColumnExternalLinks, ColumnBrokenLinks,
		"broken_urls", "content_hash", "snapshot_path", "charset", "error_message", "analyzed_at",
	)

	rows := [][]string{header}
	for _, r := range reports {
		row := []string{
			r.URL,
			string(r.Status),
			r.Title,
			r.Description,
			r.LastUpdateDate,
			strconv.Itoa(r.TablesCount),
			strconv.Itoa(r.CodeBlocksCount),
		}
		for _, l := range languages {
			row = append(row, optionalCount(r.CodeLanguages, l))
		}
		for _, t := range tools {
			row = append(row, optionalCount(r.FoundTools, t))
		}
		if s := r.LinksSummary; s != nil {
			row = append(row,
				strconv.Itoa(s.TotalLinks),
				strconv.Itoa(s.InternalLinks),
				strconv.Itoa(s.ExternalLinks),
				strconv.Itoa(s.BrokenLinks),
			)
		} else {
			row = append(row, "", "", "", "")
		}
		row = append(row,
			strings.Join(r.BrokenURLs, " "),
			r.ContentHash,
			r.SnapshotPath,
			r.Charset,
			r.ErrorMessage,
			r.AnalyzedAt.Format(time.RFC3339),
		)
		rows = append(rows, row)
	}
	return w.write(rows)
}

func (w *CSVWriter) write(rows [][]string) (int, error) {
	cw := &countingWriter{w: w.output}
	writer := csv.NewWriter(cw)
	if err := writer.WriteAll(rows); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// optionalCount is empty when key is absent, like a missing cell.
func optionalCount(m map[string]int, key string) string {
	n, ok := m[key]
	if !ok {
		return ""
	}
	return strconv.Itoa(n)
}

func unionKeys(reports []*model.PageReport, field func(*model.PageReport) map[string]int) []string {
	all := make(map[string]int)
	for _, r := range reports {
		for k := range field(r) {
			all[k] = 0
		}
	}
	return sortedKeys(all)
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

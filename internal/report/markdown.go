package report

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/docscout/internal/model"
)

// MarkdownWriter outputs results as GitHub-flavored Markdown tables.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteDiscovery writes a per-provider summary followed by one
// provider/URL row per discovered page.
func (w *MarkdownWriter) WriteDiscovery(results []*model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Documentation URLs")
	md.PlainText("")

	summary := make([][]string, 0, len(results))
	var failed []string
	for _, r := range results {
		summary = append(summary, []string{
			r.Provider,
			r.Strategy,
			statusText(r.Status),
			strconv.Itoa(len(r.URLs)),
			strconv.Itoa(r.SitemapsVisited),
		})
		if !r.Status.IsSuccess() {
			failed = append(failed, r.Provider+": "+r.Error)
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Provider", "Strategy", "Status", "URLs", "Sitemaps"},
		Rows:   summary,
	})
	md.PlainText("")

	if len(failed) > 0 {
		md.Warningf("Discovery failed for %d provider(s): %s", len(failed), strings.Join(failed, "; "))
		md.PlainText("")
	}

	var rows [][]string
	for _, r := range results {
		for _, u := range r.URLs {
			rows = append(rows, []string{r.Provider, u})
		}
	}
	if len(rows) > 0 {
		md.H2("URLs")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Provider", "URL"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// WritePages writes a summary table of all reports and a section per page.
func (w *MarkdownWriter) WritePages(reports []*model.PageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Page Analysis")
	md.PlainText("")

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		s := linkSummary(r)
		rows = append(rows, []string{
			r.URL,
			statusText(r.Status),
			escapeCell(r.Title),
			escapeCell(r.LastUpdateDate),
			strconv.Itoa(r.TablesCount),
			strconv.Itoa(r.CodeBlocksCount),
			strconv.Itoa(s.TotalLinks),
			strconv.Itoa(s.InternalLinks),
			strconv.Itoa(s.ExternalLinks),
			strconv.Itoa(s.BrokenLinks),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Title", "Last Update", "Tables", "Code Blocks",
			"Total Links", "Internal Links", "External Links", "Broken Links"},
		Rows: rows,
	})
	md.PlainText("")

	for _, r := range reports {
		w.writePage(md, r)
	}

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writePage(md *markdown.Markdown, r *model.PageReport) {
	md.H2(r.URL)
	md.PlainText("")

	if !r.Status.IsSuccess() {
		md.Cautionf("Analysis failed: %s", r.ErrorMessage)
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Title", escapeCell(r.Title)},
			{"Description", escapeCell(r.Description)},
			{"Last Update", escapeCell(r.LastUpdateDate)},
			{"Code Languages", escapeCell(formatCounts(r.CodeLanguages))},
			{"Tools", escapeCell(formatCounts(r.FoundTools))},
			{"Charset", r.Charset},
			{"Content Hash", "`" + r.ContentHash + "`"},
		},
	})
	md.PlainText("")

	if len(r.CodeLanguages) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Code Blocks by Language"),
			piechart.WithShowData(true),
		)
		for _, lang := range sortedKeys(r.CodeLanguages) {
			chart.LabelAndIntValue(lang, uint64(r.CodeLanguages[lang]))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	if len(r.BrokenURLs) > 0 {
		md.H3("Broken Links")
		md.PlainText("")
		md.BulletList(r.BrokenURLs...)
		md.PlainText("")
	}
}

func statusText(s model.Status) string {
	if s.IsSuccess() {
		return "✅ " + string(s)
	}
	return "❌ " + string(s)
}

func linkSummary(r *model.PageReport) model.LinkSummary {
	if r.LinksSummary == nil {
		return model.LinkSummary{}
	}
	return *r.LinksSummary
}

// escapeCell keeps a value inside one table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// formatCounts renders counts as "a: 1, b: 2" with keys sorted.
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		parts = append(parts, k+": "+strconv.Itoa(counts[k]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

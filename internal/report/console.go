package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/docscout/internal/model"
)

// SampleURLCount is how many URLs are shown per provider.
const SampleURLCount = 3

// ConsoleWriter prints human-readable progress and summaries.
type ConsoleWriter struct {
	baseWriter
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer) *ConsoleWriter {
	return &ConsoleWriter{baseWriter: newBaseWriter(output)}
}

// ProviderHeader announces the provider about to be discovered.
func (w *ConsoleWriter) ProviderHeader(name string) {
	fmt.Fprintf(w.output, "--- Processing provider: %s ---\n", name)
}

// ProviderResult prints the URL count and a few sample URLs of r.
func (w *ConsoleWriter) ProviderResult(r *model.CrawlResult) (int, error) {
	var sb strings.Builder
	if !r.Status.IsSuccess() {
		fmt.Fprintf(&sb, "\n❌ Discovery failed: %s\n", r.Error)
	} else {
		fmt.Fprintf(&sb, "\n✅ Found %d unique pages under '%s'.\n", len(r.URLs), r.DocPrefix)
		if len(r.URLs) > 0 {
			sb.WriteString("  Sample URLs:\n")
			for _, u := range r.URLs[:min(SampleURLCount, len(r.URLs))] {
				fmt.Fprintf(&sb, "    - %s\n", u)
			}
		}
	}
	sb.WriteString(strings.Repeat("-", 25))
	sb.WriteString("\n")
	return io.WriteString(w.output, sb.String())
}

// WriteDiscovery prints every provider result.
func (w *ConsoleWriter) WriteDiscovery(results []*model.CrawlResult) (int, error) {
	var total int
	for _, r := range results {
		w.ProviderHeader(r.Provider)
		n, err := w.ProviderResult(r)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// PageHeader announces the page about to be analyzed.
func (w *ConsoleWriter) PageHeader(url string) {
	bar := strings.Repeat("=", 20)
	fmt.Fprintf(w.output, "\n%s Analyzing page: %s %s\n", bar, url, bar)
}

// Page prints the summary of one report followed by the closing rule.
func (w *ConsoleWriter) Page(r *model.PageReport) (int, error) {
	var sb strings.Builder
	if !r.Status.IsSuccess() {
		msg := r.ErrorMessage
		if msg == "" {
			msg = "unknown error"
		}
		fmt.Fprintf(&sb, "❌ ERROR: analysis failed. Reason: %s\n", msg)
	} else {
		w.writePageSummary(&sb, r)
	}
	bar := strings.Repeat("=", 25)
	fmt.Fprintf(&sb, "%s End of analysis %s\n", bar, bar)
	return io.WriteString(w.output, sb.String())
}

func (w *ConsoleWriter) writePageSummary(sb *strings.Builder, r *model.PageReport) {
	fmt.Fprintf(sb, "ℹ️ Title: %s\n", r.Title)
	fmt.Fprintf(sb, "ℹ️ Description: %s\n", r.Description)
	fmt.Fprintf(sb, "✅ Last update: %s\n", r.LastUpdateDate)
	fmt.Fprintf(sb, "✅ Tables found: %d\n", r.TablesCount)

	if r.CodeBlocksCount > 0 {
		fmt.Fprintf(sb, "✅ Code blocks found: %d (%s)\n", r.CodeBlocksCount, formatCounts(r.CodeLanguages))
	} else {
		sb.WriteString("✅ Code blocks found: 0\n")
	}

	if len(r.FoundTools) > 0 {
		fmt.Fprintf(sb, "✅ Tools mentioned: %s\n", formatCounts(r.FoundTools))
	} else {
		sb.WriteString("✅ No key tools found.\n")
	}

	s := linkSummary(r)
	fmt.Fprintf(sb, "✅ Links: %d (internal: %d, external: %d)\n", s.TotalLinks, s.InternalLinks, s.ExternalLinks)
	if s.BrokenLinks > 0 {
		fmt.Fprintf(sb, "⚠️ Broken links found: %d\n", s.BrokenLinks)
	} else {
		sb.WriteString("✅ No broken links found.\n")
	}
}

// WritePages prints every report with its header.
func (w *ConsoleWriter) WritePages(reports []*model.PageReport) (int, error) {
	var total int
	for _, r := range reports {
		w.PageHeader(r.URL)
		n, err := w.Page(r)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LinkCacheSummary prints how many unique links the run checked.
func (w *ConsoleWriter) LinkCacheSummary(n int) {
	fmt.Fprintf(w.output, "\n📊 Checked and cached %d unique links in total.\n", n)
}

// Saved reports a written export file.
func (w *ConsoleWriter) Saved(path string) {
	fmt.Fprintf(w.output, "  - ✅ Saved: %s\n", path)
}

// SaveFailed reports an export that could not be written.
func (w *ConsoleWriter) SaveFailed(path string, err error) {
	fmt.Fprintf(w.output, "  - ❌ Could not save %s: %v\n", path, err)
}

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/linkcheck"
	"github.com/nao1215/docscout/internal/model"
	"github.com/nao1215/docscout/internal/testutil"
	"github.com/nao1215/docscout/internal/transport"
)

const pageURL = "https://docs.example.test/servers/create/"

const pageHTML = `<html><head><title>Create</title></head><body>
<div class="doc-body__last-update">12.03.2024</div>
<pre><code class="language-python">print(1)</code></pre>
<p>Terraform and the API</p>
<a href="#x">anchor</a>
<a href="/ok">ok</a>
<a href="/gone">gone</a>
<a href="/ok">ok again</a>
<a href="https://external.test/">ext</a>
</body></html>`

func newStepTransport(t *testing.T, mock *testutil.MockTransport) transport.Transport {
	t.Helper()
	tr, err := transport.New(transport.WithRoundTripper(mock))
	require.NoError(t, err)
	return tr
}

// deadLinks reports the listed urls as broken and counts probes.
func deadLinks(calls *atomic.Int32, dead ...string) linkcheck.Checker {
	return linkcheck.CheckerFunc(func(_ context.Context, url string) bool {
		calls.Add(1)
		for _, d := range dead {
			if d == url {
				return true
			}
		}
		return false
	})
}

func TestFetchStep(t *testing.T) {
	t.Parallel()

	t.Run("decodes the body", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterHTML(pageURL, pageHTML)

		report := model.NewPageReport(pageURL)
		require.NoError(t, NewFetchStep(newStepTransport(t, mock), 0).Do(context.Background(), report))
		assert.Equal(t, pageHTML, report.Text)
		assert.Equal(t, "utf-8", report.Charset)
		assert.Len(t, report.ContentHash, 16)
		assert.Equal(t, []byte(pageHTML), report.Body)
	})

	t.Run("non-2xx fails", func(t *testing.T) {
		t.Parallel()
		report := model.NewPageReport(pageURL)
		err := NewFetchStep(newStepTransport(t, testutil.NewMockTransport()), 0).Do(context.Background(), report)
		assert.ErrorIs(t, err, transport.ErrStatus)
	})

	t.Run("network error fails", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterError(pageURL, errors.New("connection reset"))

		err := NewFetchStep(newStepTransport(t, mock), 0).Do(context.Background(), model.NewPageReport(pageURL))
		var netErr *transport.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})
}

func TestSnapshotStep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	report := model.NewPageReport(pageURL)
	report.Text = pageHTML

	require.NoError(t, NewSnapshotStep(dir).Do(context.Background(), report))
	assert.Equal(t, filepath.Join(dir, "https___docs_example_test_servers_create_.txt"), report.SnapshotPath)
	got, err := os.ReadFile(report.SnapshotPath)
	require.NoError(t, err)
	assert.Equal(t, pageHTML, string(got))
}

func TestExtractStep(t *testing.T) {
	t.Parallel()

	report := model.NewPageReport(pageURL)
	report.Text = pageHTML

	require.NoError(t, NewExtractStep(config.DefaultTools()).Do(context.Background(), report))
	assert.Equal(t, model.StatusSuccess, report.Status)
	assert.Equal(t, "Create", report.Title)
	assert.Equal(t, model.NotAvailable, report.Description)
	assert.Equal(t, "12.03.2024", report.LastUpdateDate)
	assert.Equal(t, map[string]int{"python": 1}, report.CodeLanguages)
	assert.Equal(t, map[string]int{"Terraform": 1, "API": 1}, report.FoundTools)
	assert.Equal(t, &model.LinkSummary{TotalLinks: 5, InternalLinks: 3, ExternalLinks: 1}, report.LinksSummary)
	assert.Equal(t, []string{
		"https://docs.example.test/ok",
		"https://docs.example.test/gone",
		"https://external.test/",
	}, report.Links)
}

func TestLinkCheckStep(t *testing.T) {
	t.Parallel()

	t.Run("counts unique broken links", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		cache := linkcheck.NewCache(linkcheck.WithWorkers(2))
		report := model.NewPageReport(pageURL)
		report.Links = []string{"https://docs.example.test/ok", "https://docs.example.test/gone"}
		report.LinksSummary = &model.LinkSummary{TotalLinks: 3}

		step := NewLinkCheckStep(cache, deadLinks(&calls, "https://docs.example.test/gone"))
		require.NoError(t, step.Do(context.Background(), report))
		assert.Equal(t, 1, report.LinksSummary.BrokenLinks)
		assert.Equal(t, []string{"https://docs.example.test/gone"}, report.BrokenURLs)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("cached verdicts are not probed again", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		cache := linkcheck.NewCache()
		checker := deadLinks(&calls)

		first := model.NewPageReport("https://docs.example.test/a")
		first.Links = []string{"https://docs.example.test/shared"}
		second := model.NewPageReport("https://docs.example.test/b")
		second.Links = []string{"https://docs.example.test/shared", "https://docs.example.test/new"}

		step := NewLinkCheckStep(cache, checker)
		require.NoError(t, step.Do(context.Background(), first))
		require.NoError(t, step.Do(context.Background(), second))
		assert.EqualValues(t, 2, calls.Load())
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("no links", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		report := model.NewPageReport(pageURL)
		require.NoError(t, NewLinkCheckStep(linkcheck.NewCache(), deadLinks(&calls)).Do(context.Background(), report))
		assert.Zero(t, calls.Load())
		require.NotNil(t, report.LinksSummary)
		assert.Zero(t, report.LinksSummary.BrokenLinks)
	})
}

func TestPageSteps(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	steps := PageSteps(nil, cfg, linkcheck.NewCache(), linkcheck.NewHTTPChecker(), nil, nil)
	p := New()
	p.AddSteps(steps...)
	assert.Equal(t, []string{"fetch", "snapshot", "extract", "link_check"}, p.StepNames())
}

package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/linkcheck"
	"github.com/nao1215/docscout/internal/model"
	"github.com/nao1215/docscout/internal/testutil"
)

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("failed pages do not stop the batch", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "analyze", doFunc: func(_ context.Context, r *model.PageReport) error {
				if r.URL == "https://docs.example.test/bad" {
					return errors.New("404 Not Found")
				}
				r.Status = model.StatusSuccess
				return nil
			}})
			return p
		}

		reports, err := NewBatchProcessor(factory).ProcessBatch(context.Background(), []string{
			"https://docs.example.test/a",
			"https://docs.example.test/bad",
			"https://docs.example.test/c",
		})
		require.NoError(t, err)
		require.Len(t, reports, 3)
		assert.Equal(t, model.StatusSuccess, reports[0].Status)
		assert.Equal(t, model.StatusFailed, reports[1].Status)
		assert.Equal(t, "404 Not Found", reports[1].ErrorMessage)
		assert.Equal(t, model.StatusSuccess, reports[2].Status)
	})

	t.Run("panics become failed reports", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "panic", doFunc: func(_ context.Context, r *model.PageReport) error {
				if r.URL == "https://docs.example.test/panic" {
					panic("nil map")
				}
				r.Status = model.StatusSuccess
				return nil
			}})
			return p
		}

		reports, err := NewBatchProcessor(factory).ProcessBatch(context.Background(), []string{
			"https://docs.example.test/panic",
			"https://docs.example.test/ok",
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, reports[0].Status)
		assert.Contains(t, reports[0].ErrorMessage, "nil map")
		assert.Equal(t, model.StatusSuccess, reports[1].Status)
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		gate := make(chan struct{})
		var once sync.Once
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "slow", doFunc: func(context.Context, *model.PageReport) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				if n == 2 {
					once.Do(func() { close(gate) })
				}
				<-gate
				running.Add(-1)
				return nil
			}})
			return p
		}

		urls := []string{"https://a.test/1", "https://a.test/2", "https://a.test/3", "https://a.test/4"}
		reports, err := NewBatchProcessor(factory, WithConcurrency(2)).ProcessBatch(context.Background(), urls)
		require.NoError(t, err)
		assert.Len(t, reports, 4)
		assert.EqualValues(t, 2, peak.Load())
	})

	t.Run("cancelled batch fails remaining pages", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		reports, err := NewBatchProcessor(func() *Pipeline { return New() }).ProcessBatch(ctx, []string{"https://a.test/1"})
		require.ErrorIs(t, err, context.Canceled)
		require.Len(t, reports, 1)
		assert.Equal(t, model.StatusFailed, reports[0].Status)
	})

	t.Run("before each and callback", func(t *testing.T) {
		t.Parallel()

		var started []string
		bp := NewBatchProcessor(func() *Pipeline { return New() },
			WithBeforeEach(func(_ int, url string) { started = append(started, url) }))

		var finished []int
		err := bp.ProcessBatchWithCallback(context.Background(), []string{"https://a.test/1", "https://a.test/2"},
			func(_ *model.PageReport, i int) { finished = append(finished, i) })
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.test/1", "https://a.test/2"}, started)
		assert.Equal(t, []int{0, 1}, finished)
	})
}

// Three pages sharing most of their links: every unique link is probed once
// for the whole run.
func TestBatchProcessor_SharedLinkCache(t *testing.T) {
	t.Parallel()

	page := func(links ...string) string {
		html := "<html><head><title>t</title></head><body>"
		for _, l := range links {
			html += `<a href="` + l + `">x</a>`
		}
		return html + "</body></html>"
	}
	mock := testutil.NewMockTransport()
	mock.RegisterHTML("https://docs.example.test/1", page("/a", "/b", "/dead"))
	mock.RegisterHTML("https://docs.example.test/2", page("/a", "/b", "/c"))
	mock.RegisterHTML("https://docs.example.test/3", page("/a", "/dead"))

	cfg := config.NewConfig()
	cfg.SnapshotDir = t.TempDir()
	cache := linkcheck.NewCache()
	var calls atomic.Int32
	checker := deadLinks(&calls, "https://docs.example.test/dead")
	tr := newStepTransport(t, mock)

	factory := func() *Pipeline {
		p := New()
		p.AddSteps(PageSteps(tr, cfg, cache, checker, nil, nil)...)
		return p
	}
	reports, err := NewBatchProcessor(factory).ProcessBatch(context.Background(), []string{
		"https://docs.example.test/1",
		"https://docs.example.test/2",
		"https://docs.example.test/3",
		"https://docs.example.test/missing",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 4, calls.Load())
	assert.Equal(t, 4, cache.Len())
	assert.Equal(t, 1, reports[0].LinksSummary.BrokenLinks)
	assert.Equal(t, 0, reports[1].LinksSummary.BrokenLinks)
	assert.Equal(t, 1, reports[2].LinksSummary.BrokenLinks)
	assert.Equal(t, model.StatusFailed, reports[3].Status)
	assert.Nil(t, reports[3].LinksSummary)
	for _, r := range reports[:3] {
		assert.Equal(t, model.StatusSuccess, r.Status)
		assert.Nil(t, r.Body)
		assert.FileExists(t, r.SnapshotPath)
	}
}

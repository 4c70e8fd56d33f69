package discovery

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/docscout/internal/bootstrap"
	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/model"
	"github.com/nao1215/docscout/internal/sitemap"
	"github.com/nao1215/docscout/internal/testutil"
	"github.com/nao1215/docscout/internal/transport"
)

const ns = `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`

func plainProvider() config.Provider {
	return config.Provider{
		Name:      "Example",
		RootURL:   "https://example.test/",
		DocPrefix: "https://example.test/docs/",
		Strategy:  config.StrategyPlain,
	}
}

func newMockDiscoverer(mock *testutil.MockTransport, newBootstrapper BootstrapFactory) *Discoverer {
	return NewDiscoverer(NewHTTPTransportFactory(transport.WithRoundTripper(mock)), newBootstrapper)
}

func TestDiscoverer_EntryPoints(t *testing.T) {
	t.Parallel()

	t.Run("robots sitemap line is traversed", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterBody("https://example.test/robots.txt", "text/plain", []byte("User-agent: *\nDisallow: /private\nSitemap: https://example.test/sitemap.xml\n"))
		mock.RegisterXML("https://example.test/sitemap.xml", `<urlset `+ns+`><url><loc>https://example.test/docs/a</loc></url></urlset>`)

		d := newMockDiscoverer(mock, nil)
		res, err := d.Discover(context.Background(), config.Provider{
			Name:      "Example",
			RootURL:   "https://example.test/",
			DocPrefix: "https://example.test/docs/",
			Strategy:  config.StrategyPlain,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.test/docs/a"}, res.URLs)
		assert.Equal(t, 1, mock.Hits("https://example.test/sitemap.xml"))
	})

	t.Run("robots entry differing from the default path", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterBody("https://example.test/robots.txt", "text/plain", []byte("Sitemap: https://example.test/maps/docs.xml\nSitemap: https://example.test/maps/blog.xml\n"))

		d := newMockDiscoverer(mock, nil)
		tr, err := d.newTransport(plainProvider())
		require.NoError(t, err)
		got := d.EntryPoints(context.Background(), tr, plainProvider())
		assert.Equal(t, []string{"https://example.test/maps/docs.xml", "https://example.test/maps/blog.xml"}, got)
	})

	t.Run("robots fetch fails entirely", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterError("https://example.test/robots.txt", errors.New("dial tcp: connection refused"))

		d := newMockDiscoverer(mock, nil)
		tr, err := d.newTransport(plainProvider())
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.test/sitemap.xml"}, d.EntryPoints(context.Background(), tr, plainProvider()))
	})

	t.Run("robots without sitemap lines", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterBody("https://example.test/robots.txt", "text/plain", []byte("User-agent: *\nDisallow:\n"))

		d := newMockDiscoverer(mock, nil)
		tr, err := d.newTransport(plainProvider())
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.test/sitemap.xml"}, d.EntryPoints(context.Background(), tr, plainProvider()))
	})

	t.Run("robots not found", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()

		d := newMockDiscoverer(mock, nil)
		tr, err := d.newTransport(plainProvider())
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.test/sitemap.xml"}, d.EntryPoints(context.Background(), tr, plainProvider()))
	})
}

func TestDiscoverer_DiscoverPlain(t *testing.T) {
	t.Parallel()

	t.Run("fallback sitemap is traversed", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterError("https://example.test/robots.txt", errors.New("timeout"))
		mock.RegisterXML("https://example.test/sitemap.xml", `<urlset `+ns+`><url><loc>https://example.test/docs/z</loc></url></urlset>`)

		res, err := newMockDiscoverer(mock, nil).Discover(context.Background(), plainProvider())
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.test/docs/z"}, res.URLs)
		assert.Equal(t, 1, mock.Hits("https://example.test/sitemap.xml"))
	})

	t.Run("entry points share one visited set and results are filtered", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterBody("https://example.test/robots.txt", "text/plain",
			[]byte("Sitemap: https://example.test/a.xml\nSitemap: https://example.test/b.xml\n"))
		mock.RegisterXML("https://example.test/a.xml", `<sitemapindex `+ns+`>`+
			`<sitemap><loc>https://example.test/shared.xml</loc></sitemap></sitemapindex>`)
		mock.RegisterXML("https://example.test/b.xml", `<sitemapindex `+ns+`>`+
			`<sitemap><loc>https://example.test/shared.xml</loc></sitemap>`+
			`<sitemap><loc>https://example.test/blog.xml</loc></sitemap></sitemapindex>`)
		mock.RegisterXML("https://example.test/shared.xml", `<urlset `+ns+`>`+
			`<url><loc>https://example.test/docs/b</loc></url>`+
			`<url><loc>https://example.test/docs/a</loc></url>`+
			`<url><loc>https://example.test/docs/b</loc></url>`+
			`<url><loc>https://example.test/docs/archive/old</loc></url></urlset>`)
		mock.RegisterXML("https://example.test/blog.xml", `<urlset `+ns+`>`+
			`<url><loc>https://example.test/blog/post</loc></url>`+
			`<url><loc>https://example.test/docs/c</loc></url></urlset>`)

		p := plainProvider()
		p.Exclude = []string{"*/archive/*"}
		res, err := newMockDiscoverer(mock, nil).Discover(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSuccess, res.Status)
		assert.Equal(t, []string{
			"https://example.test/docs/a",
			"https://example.test/docs/b",
			"https://example.test/docs/c",
		}, res.URLs)
		assert.Equal(t, 1, mock.Hits("https://example.test/shared.xml"))
		assert.Equal(t, 4, res.SitemapsVisited)
	})

	t.Run("provider headers are sent", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		p := plainProvider()
		p.Headers = map[string]string{"Cookie": "consent=1"}

		_, err := newMockDiscoverer(mock, nil).Discover(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, []string{"consent=1"}, mock.CookieHeaders("https://example.test/robots.txt"))
	})

	t.Run("malformed leaf yields empty success", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterXML("https://example.test/sitemap.xml", `<urlset><url><loc>x</url>`)

		res, err := newMockDiscoverer(mock, nil).Discover(context.Background(), plainProvider())
		require.NoError(t, err)
		assert.Empty(t, res.URLs)
		assert.Equal(t, model.StatusSuccess, res.Status)
	})

	t.Run("invalid exclude pattern", func(t *testing.T) {
		t.Parallel()
		p := plainProvider()
		p.Exclude = []string{"[oops"}
		res, err := newMockDiscoverer(testutil.NewMockTransport(), nil).Discover(context.Background(), p)
		require.Error(t, err)
		assert.Equal(t, model.StatusFailed, res.Status)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		t.Parallel()
		p := plainProvider()
		p.Strategy = "stealth"
		res, err := newMockDiscoverer(testutil.NewMockTransport(), nil).Discover(context.Background(), p)
		require.ErrorIs(t, err, config.ErrUnknownStrategy)
		assert.Empty(t, res.URLs)
	})

	t.Run("cancelled run fails", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := newMockDiscoverer(testutil.NewMockTransport(), nil).Discover(ctx, plainProvider())
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, model.StatusFailed, res.Status)
	})
}

type stubBootstrapper struct {
	result *bootstrap.Result
	err    error
	calls  int
}

func (s *stubBootstrapper) Bootstrap(context.Context) (*bootstrap.Result, error) {
	s.calls++
	return s.result, s.err
}

func protectedProvider() config.Provider {
	return config.Provider{
		Name:         "Protected",
		RootURL:      "https://example.test/",
		DocPrefix:    "https://example.test/ru/docs/",
		Strategy:     config.StrategyProtected,
		BootstrapURL: "https://example.test/sitemap_index.xml",
	}
}

func TestDiscoverer_DiscoverProtected(t *testing.T) {
	t.Parallel()

	t.Run("children of the extracted index are resolved with the stolen transport", func(t *testing.T) {
		t.Parallel()
		mock := testutil.NewMockTransport()
		mock.RegisterXML("https://example.test/ru/docs/s1.xml", `<urlset `+ns+`>`+
			`<url><loc>https://example.test/ru/docs/compute/</loc></url>`+
			`<url><loc>https://example.test/en/docs/compute/</loc></url></urlset>`)
		mock.RegisterXML("https://example.test/ru/docs/s2.xml", `<urlset `+ns+`>`+
			`<url><loc>https://example.test/ru/docs/api/</loc></url></urlset>`)

		root, err := sitemap.Parse([]byte(`<sitemapindex ` + ns + `>` +
			`<sitemap><loc>https://example.test/ru/docs/s1.xml</loc></sitemap>` +
			`<sitemap><loc>https://example.test/ru/docs/s2.xml</loc></sitemap>` +
			`<sitemap><loc>https://example.test/ru/docs/s1.xml</loc></sitemap></sitemapindex>`))
		require.NoError(t, err)

		stolen, err := transport.New(transport.WithRoundTripper(mock))
		require.NoError(t, err)
		stolen.SetCookies([]transport.Cookie{{Name: "yc_session", Value: "v", Domain: "example.test", Path: "/"}})

		stub := &stubBootstrapper{result: &bootstrap.Result{Root: root, Transport: stolen}}
		var out bytes.Buffer
		d := NewDiscoverer(
			func(config.Provider) (transport.Transport, error) { return nil, errors.New("plain transport must not be used") },
			func(config.Provider) Bootstrapper { return stub },
			WithOutput(&out),
		)

		res, err := d.Discover(context.Background(), protectedProvider())
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.test/ru/docs/api/", "https://example.test/ru/docs/compute/"}, res.URLs)
		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, 1, mock.Hits("https://example.test/ru/docs/s1.xml"))
		assert.Equal(t, []string{"yc_session=v"}, mock.CookieHeaders("https://example.test/ru/docs/s2.xml"))
		assert.Contains(t, out.String(), "protected strategy")
	})

	t.Run("bootstrap failure fails only this provider", func(t *testing.T) {
		t.Parallel()
		failure := &bootstrap.Failure{State: bootstrap.StateExtractContent, Reason: "no xml extracted", Err: bootstrap.ErrNoXMLExtracted}
		d := NewDiscoverer(nil, func(config.Provider) Bootstrapper { return &stubBootstrapper{err: failure} })

		res, err := d.Discover(context.Background(), protectedProvider())
		require.ErrorIs(t, err, bootstrap.ErrNoXMLExtracted)
		assert.Equal(t, model.StatusFailed, res.Status)
		assert.Empty(t, res.URLs)
		assert.Contains(t, res.Error, "no xml extracted")
	})

	t.Run("no bootstrapper configured", func(t *testing.T) {
		t.Parallel()
		d := NewDiscoverer(nil, nil)
		_, err := d.Discover(context.Background(), protectedProvider())
		assert.Error(t, err)
	})
}

func TestFilterURLs(t *testing.T) {
	t.Parallel()

	excludes := []glob.Glob{glob.MustCompile("*.pdf")}
	got := FilterURLs([]string{
		"https://docs.selectel.ru/b/",
		"https://selectel.ru/blog/",
		"https://docs.selectel.ru/a/",
		"https://docs.selectel.ru/b/",
		"https://docs.selectel.ru/guide.pdf",
	}, "https://docs.selectel.ru/", excludes)
	assert.Equal(t, []string{"https://docs.selectel.ru/a/", "https://docs.selectel.ru/b/"}, got)

	assert.Empty(t, FilterURLs(nil, "https://x/", nil))
}

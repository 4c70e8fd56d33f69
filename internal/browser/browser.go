package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

const (
	// DefaultWidth and DefaultHeight size the operator's window.
	DefaultWidth  = 1200
	DefaultHeight = 800
)

// Cookie is one entry of the browser's cookie jar.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
}

// Session is an open browser window.
type Session interface {
	// Cookies returns every cookie the browser holds.
	Cookies(ctx context.Context) ([]Cookie, error)
	// EvaluateString runs script in the current page and returns its string result.
	EvaluateString(ctx context.Context, script string) (string, error)
	// HTML returns the serialized DOM of the current page.
	HTML(ctx context.Context) (string, error)
	// Close shuts the browser down. It is safe to call more than once.
	Close() error
}

// Launcher opens browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// ChromeLauncher launches a local Chrome through chromedp.
type ChromeLauncher struct {
	width     int
	height    int
	headless  bool
	execPath  string
	userAgent string
}

// Option configures a ChromeLauncher.
type Option func(*ChromeLauncher)

// WithWindowSize sets the viewport.
func WithWindowSize(width, height int) Option {
	return func(l *ChromeLauncher) {
		if width > 0 && height > 0 {
			l.width, l.height = width, height
		}
	}
}

// WithExecPath points at a specific Chrome binary.
func WithExecPath(path string) Option {
	return func(l *ChromeLauncher) {
		l.execPath = path
	}
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(l *ChromeLauncher) {
		l.userAgent = ua
	}
}

// WithHeadless runs Chrome without a window. A human cannot interact with it,
// so this is only useful when the target has no bot check.
func WithHeadless(headless bool) Option {
	return func(l *ChromeLauncher) {
		l.headless = headless
	}
}

// NewChromeLauncher returns a launcher for a visible 1200x800 window.
func NewChromeLauncher(opts ...Option) *ChromeLauncher {
	l := &ChromeLauncher{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts Chrome and waits until the window is up.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(l.width, l.height),
	)
	if l.execPath != "" {
		opts = append(opts, chromedp.ExecPath(l.execPath))
	}
	if l.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &chromeSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

// run executes actions in the browser, aborting when either ctx or the
// browser context ends.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Cookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return out, nil
}

func (s *chromeSession) EvaluateString(ctx context.Context, script string) (string, error) {
	var out string
	if err := s.run(ctx, chromedp.Evaluate(script, &out)); err != nil {
		return "", fmt.Errorf("failed to evaluate script: %w", err)
	}
	return out, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	return s.EvaluateString(ctx, `document.documentElement ? document.documentElement.outerHTML : ""`)
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		err := chromedp.Cancel(s.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("failed to close chrome: %w", err)
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}

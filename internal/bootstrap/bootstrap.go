package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/nao1215/docscout/internal/browser"
	"github.com/nao1215/docscout/internal/sitemap"
	"github.com/nao1215/docscout/internal/transport"
)

// Result is what a successful bootstrap hands to discovery.
type Result struct {
	// Root is the root element of the sitemap index shown in the browser.
	Root *xmlquery.Node
	// Transport carries the browser's cookies.
	Transport *transport.HTTPTransport
	// Cookies is the number of cookies transplanted.
	Cookies int
	// Method names how the XML was extracted.
	Method string
}

// Bootstrapper runs one session bootstrap.
type Bootstrapper struct {
	launcher      browser.Launcher
	ack           Acknowledger
	targetURL     string
	out           io.Writer
	logger        *slog.Logger
	transportOpts []transport.Option
	onTransition  func(from, to State)
	state         State
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithOutput sets where operator instructions are printed.
func WithOutput(w io.Writer) Option {
	return func(b *Bootstrapper) {
		b.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bootstrapper) {
		b.logger = logger
	}
}

// WithTransportOptions configures the HTTPTransport built from the session.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(b *Bootstrapper) {
		b.transportOpts = append(b.transportOpts, opts...)
	}
}

// WithTransitionHook is called on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(b *Bootstrapper) {
		b.onTransition = fn
	}
}

// New returns a Bootstrapper that asks the operator to open targetURL.
func New(launcher browser.Launcher, ack Acknowledger, targetURL string, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		launcher:  launcher,
		ack:       ack,
		targetURL: targetURL,
		out:       io.Discard,
		logger:    slog.Default(),
		state:     StateLaunchBrowser,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state.
func (b *Bootstrapper) State() State {
	return b.state
}

func (b *Bootstrapper) transition(to State) {
	from := b.state
	b.state = to
	b.logger.Debug("bootstrap state", "from", from.String(), "to", to.String())
	if b.onTransition != nil {
		b.onTransition(from, to)
	}
}

func (b *Bootstrapper) fail(reason string, err error) error {
	f := &Failure{State: b.state, Reason: reason, Err: err}
	b.transition(StateFailed)
	return f
}

// Bootstrap runs the state machine to completion. A Bootstrapper is single use.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (*Result, error) {
	if b.state != StateLaunchBrowser {
		return nil, fmt.Errorf("bootstrap already ran, state %s", b.state)
	}

	fmt.Fprintln(b.out, "    - launching browser")
	session, err := b.launcher.Launch(ctx)
	if err != nil {
		return nil, b.fail("browser launch failed", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			b.logger.Warn("failed to close browser", "error", err)
		}
		fmt.Fprintln(b.out, "    - browser closed")
	}()

	b.transition(StateAwaitHumanAck)
	b.printInstructions()
	if err := b.ack.Wait(ctx); err != nil {
		return nil, b.fail("operator acknowledgement aborted", err)
	}

	b.transition(StateExtractContent)
	cookies, err := session.Cookies(ctx)
	if err != nil {
		b.logger.Warn("failed to read browser cookies", "error", err)
	}
	b.logger.Debug("browser cookies read", "cookie_count", len(cookies))

	content, method := extractXML(ctx, session)
	if content == "" {
		b.printDiagnostics()
		return nil, b.fail("no xml extracted", ErrNoXMLExtracted)
	}
	root, err := sitemap.Parse([]byte(content))
	if err != nil {
		b.printDiagnostics()
		return nil, b.fail("extracted content is not valid xml", fmt.Errorf("%w: %w", ErrInvalidXML, err))
	}
	fmt.Fprintf(b.out, "    - sitemap index extracted via %s\n", method)

	b.transition(StateBuildSession)
	tr, err := transport.New(b.transportOpts...)
	if err != nil {
		return nil, b.fail("http session setup failed", err)
	}
	injected := tr.SetCookies(toTransportCookies(cookies))
	fmt.Fprintf(b.out, "    - http session authenticated with %d cookies\n", injected)

	b.transition(StateDone)
	return &Result{Root: root, Transport: tr, Cookies: injected, Method: method}, nil
}

func toTransportCookies(cookies []browser.Cookie) []transport.Cookie {
	out := make([]transport.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, transport.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return out
}

func (b *Bootstrapper) printInstructions() {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(b.out, "\n%s\n", line)
	fmt.Fprintln(b.out, "OPERATOR ACTION REQUIRED")
	fmt.Fprintln(b.out, "1. A Chrome window has opened.")
	fmt.Fprintln(b.out, "2. Open this address in it manually:")
	fmt.Fprintf(b.out, "   %s\n", b.targetURL)
	fmt.Fprintln(b.out, "3. Pass any check the site shows and wait until the XML is displayed.")
	fmt.Fprintln(b.out, "   Do not close the browser window yourself.")
	fmt.Fprintln(b.out, "4. Come back to this console and press Enter.")
	fmt.Fprintf(b.out, "%s\n", line)
}

func (b *Bootstrapper) printDiagnostics() {
	fmt.Fprintln(b.out, "      x could not extract the sitemap XML from the browser page")
	fmt.Fprintln(b.out, "      likely cause: the browser's XML viewer markup changed after an update")
	fmt.Fprintln(b.out, "      check: open the XML in Chrome, inspect the page and look for the element holding the raw document")
	b.logger.Error("sitemap xml extraction failed", "url", b.targetURL)
}

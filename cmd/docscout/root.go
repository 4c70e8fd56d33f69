package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/docscout/internal/browser"
	"github.com/nao1215/docscout/internal/config"
	dslog "github.com/nao1215/docscout/internal/log"
)

// app carries what the commands share with the outside world. Tests swap
// the network and the browser for fakes.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// roundTripper replaces the network when not nil.
	roundTripper http.RoundTripper

	// newLauncher builds the browser used for protected providers.
	newLauncher func(cfg *config.Config) browser.Launcher
}

func newApp() *app {
	return &app{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		newLauncher: func(cfg *config.Config) browser.Launcher {
			return browser.NewChromeLauncher(
				browser.WithExecPath(cfg.ChromePath),
				browser.WithUserAgent(cfg.UserAgent),
			)
		},
	}
}

// logger returns the masking logger all packages log through.
func (a *app) logger(verbose bool) *slog.Logger {
	return dslog.NewSecureLogger(a.errOut, verbose)
}

// httpClient returns the client used for link probes.
func (a *app) httpClient() *http.Client {
	if a.roundTripper != nil {
		return &http.Client{Transport: a.roundTripper}
	}
	return &http.Client{}
}

// NewRootCmd creates the root command for docscout.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docscout",
		Short: "Discover and audit cloud provider documentation",
		Long: `docscout collects the documentation URLs of cloud providers from their
sitemaps and audits documentation pages.

Providers behind a bot check are handled with a visible browser window: you
pass the check by hand, press Enter, and docscout continues with the
browser's session.

Providers, pages and keywords come from .docscout.yaml (see "docscout init");
without a file the built-in Selectel, Yandex Cloud and VK Cloud setup is used.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .docscout.yaml in current or home directory)")

	cmd.AddCommand(newDiscoverCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/git-pkgs/paxd/client"
	"github.com/git-pkgs/paxd/config"
	"github.com/git-pkgs/paxd/fetch"
	"github.com/git-pkgs/paxd/installer"
	"github.com/git-pkgs/paxd/internal/pypi"
	"github.com/git-pkgs/paxd/launcher"
	"github.com/git-pkgs/paxd/store"
)

type app struct {
	configFile string
	repository string
	verbose    bool
	yes        bool

	in     *bufio.Reader
	out    io.Writer
	logger *log.Logger
}

func newApp(in io.Reader, out io.Writer, logger *log.Logger) *app {
	return &app{in: bufio.NewReader(in), out: out, logger: logger}
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, path, err := config.Load(config.LoadOptions{ConfigFile: a.configFile})
	if err != nil {
		return nil, err
	}
	if path != "" {
		a.logger.Debug("config", "file", path)
	}
	if a.verbose || cfg.Verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

// installer builds an Installer for repo, or for the configured
// repository when repo is empty.
func (a *app) installer(cfg *config.Config, repo string) (*installer.Installer, error) {
	if repo == "" && a.repository != "" {
		repo = config.ResolveRepository(a.repository)
	}
	if repo == "" {
		var err error
		if repo, err = cfg.RepositoryURL(); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("repository", "url", repo)

	external, err := installer.NewCommandInstaller(cfg.ExternalInstaller)
	if err != nil {
		return nil, err
	}
	reporter := installer.NewLogReporter(a.logger)
	auth := cfg.HTTP.AuthFunc(repo)
	httpClient := client.NewClient(
		client.WithTimeout(cfg.HTTP.Timeout),
		client.WithMaxRetries(cfg.HTTP.MaxRetries),
		client.WithAuthFunc(auth),
	).WithUserAgent(cfg.UserAgent)
	fetcher := fetch.NewCircuitBreakerFetcher(fetch.NewFetcher(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithAuthFunc(auth),
	))

	opts := []installer.Option{
		installer.WithClient(httpClient),
		installer.WithFetcher(fetcher),
		installer.WithVerifier(fetch.NewVerifier(fetch.WithVerifierReporter(reporter))),
		installer.WithReporter(reporter),
		installer.WithExternalInstaller(external),
		installer.WithPolicy(&promptPolicy{in: a.in, out: a.out, yes: a.yes}),
		installer.WithRedirectProtectedUpdate(cfg.RedirectProtectedUpdate),
	}
	if cfg.PipIndex != "" {
		opts = append(opts, installer.WithExternalIndex(pypi.New(cfg.PipIndex, httpClient)))
	}

	return installer.New(repo,
		store.New(cfg.StoreRoot),
		launcher.New(cfg.LauncherDir, cfg.Interpreter, cfg.Runner),
		opts...,
	)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

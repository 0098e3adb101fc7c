// Package installer implements the install, update and uninstall
// transactions on top of the package store.
//
// An install builds the package in a hidden staging directory and only
// renames it into place once every file, the launcher and the markers are
// written. An update snapshots the live directory first and restores it on
// any failure.
package installer

import (
	"errors"

	"github.com/git-pkgs/paxd/client"
	"github.com/git-pkgs/paxd/fetch"
	"github.com/git-pkgs/paxd/internal/core"
	"github.com/git-pkgs/paxd/launcher"
	"github.com/git-pkgs/paxd/store"
)

const (
	// ProtectedID is the native PaxD client. It manages itself and is never
	// installed, updated or removed from here.
	ProtectedID = "com.mralfiem591.paxd"
	// SelfID is this client's own package identifier.
	SelfID = "com.mralfiem591.paxd-imp"
)

// Installer runs package transactions against one repository and store.
type Installer struct {
	repository string
	store      *store.Store
	launchers  *launcher.Registrar

	client   *client.Client
	fetcher  fetch.FetcherInterface
	verifier *fetch.Verifier
	sources  []core.Source
	policy   Policy
	reporter core.Reporter
	external ExternalInstaller
	index    ExternalIndex

	redirectProtected bool

	resolver *core.Resolver
	jobs     *fetch.Resolver
	transfer *fetch.Transfer
}

// Option configures an Installer.
type Option func(*Installer)

// WithClient sets the HTTP client used for probes, manifests and the
// search index.
func WithClient(c *client.Client) Option {
	return func(in *Installer) {
		in.client = c
	}
}

// WithFetcher sets the fetcher used for package files.
func WithFetcher(f fetch.FetcherInterface) Option {
	return func(in *Installer) {
		in.fetcher = f
	}
}

// WithVerifier sets the checksum verifier.
func WithVerifier(v *fetch.Verifier) Option {
	return func(in *Installer) {
		in.verifier = v
	}
}

// WithSources overrides the registered manifest sources.
func WithSources(srcs ...core.Source) Option {
	return func(in *Installer) {
		in.sources = srcs
	}
}

// WithPolicy sets how confirmations and launcher conflicts are answered.
func WithPolicy(p Policy) Option {
	return func(in *Installer) {
		in.policy = p
	}
}

// WithReporter sets the event sink.
func WithReporter(r core.Reporter) Option {
	return func(in *Installer) {
		in.reporter = r
	}
}

// WithExternalInstaller sets the collaborator that installs external
// (pip) dependencies.
func WithExternalInstaller(e ExternalInstaller) Option {
	return func(in *Installer) {
		in.external = e
	}
}

// WithExternalIndex checks every external dependency against a package
// index first. Dependencies the index does not know are reported and not
// installed.
func WithExternalIndex(ix ExternalIndex) Option {
	return func(in *Installer) {
		in.index = ix
	}
}

// WithRedirectProtectedUpdate makes update requests for the native client
// update this client instead of being refused.
func WithRedirectProtectedUpdate(enabled bool) Option {
	return func(in *Installer) {
		in.redirectProtected = enabled
	}
}

// New creates an Installer. Unset collaborators get defaults: the default
// HTTP client, a circuit-breaking fetcher, a 4-attempt verifier, every
// registered source, AutoPolicy{}, no reporting and a pip command.
func New(repository string, st *store.Store, lr *launcher.Registrar, opts ...Option) (*Installer, error) {
	if repository == "" {
		return nil, errors.New("installer: repository is required")
	}
	if st == nil || lr == nil {
		return nil, errors.New("installer: store and launcher registrar are required")
	}

	in := &Installer{
		repository: repository,
		store:      st,
		launchers:  lr,
	}
	for _, opt := range opts {
		opt(in)
	}

	if in.reporter == nil {
		in.reporter = core.NopReporter{}
	}
	if in.client == nil {
		in.client = client.DefaultClient()
	}
	if in.fetcher == nil {
		in.fetcher = fetch.NewCircuitBreakerFetcher(fetch.NewFetcher(fetch.WithUserAgent(in.client.UserAgent())))
	}
	if in.verifier == nil {
		in.verifier = fetch.NewVerifier(fetch.WithVerifierReporter(in.reporter))
	}
	if in.policy == nil {
		in.policy = AutoPolicy{}
	}
	if in.external == nil {
		cmd, err := NewCommandInstaller(DefaultExternalCommand)
		if err != nil {
			return nil, err
		}
		in.external = cmd
	}

	resolverOpts := []core.ResolverOption{core.WithReporter(in.reporter)}
	if in.sources != nil {
		resolverOpts = append(resolverOpts, core.WithSources(in.sources...))
	}
	in.resolver = core.NewResolver(repository, in.client, resolverOpts...)
	in.jobs = fetch.NewResolver(in.resolver.URLs())
	in.transfer = fetch.NewTransfer(in.fetcher, in.verifier, fetch.WithTransferReporter(in.reporter))
	return in, nil
}

// Repository returns the repository location the installer talks to.
func (in *Installer) Repository() string {
	return in.repository
}

// Store returns the package store.
func (in *Installer) Store() *store.Store {
	return in.store
}

func (in *Installer) report(e core.Event) {
	in.reporter.Report(e)
}

// Result summarizes a completed install or update.
type Result struct {
	ID              string
	Version         string
	PreviousVersion string // empty on first install
	Source          string
	Manifest        *core.Manifest
	Files           []string
	Launcher        string   // shim path, empty when no mainfile
	Dependencies    []string // internal dependencies installed along the way
	UpToDate        bool
}

func txError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var tx *core.TransactionError
	if errors.As(err, &tx) && tx.Op == op && tx.Package == id {
		return err
	}
	return &core.TransactionError{Op: op, Package: id, Err: err}
}

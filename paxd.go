// Package paxd installs packages from PaxD repositories.
//
// A repository serves a manifest per package in one of several formats
// (package.yaml, paxd.yaml or the legacy commented-JSON paxd file) plus the
// package files themselves. This package re-exports the canonical manifest
// types, the error kinds and the manifest resolver; the installer package
// runs install and update transactions against a local store.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/git-pkgs/paxd"
//		_ "github.com/git-pkgs/paxd/all"
//	)
//
//	r := paxd.NewResolver("https://repo.example", nil)
//	m, err := r.Resolve(context.Background(), "com.example.tool")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(m.Info.Name, m.Info.Version, m.Source)
//
// Manifest formats register themselves when imported; import the all
// subpackage to get every format in resolution order.
package paxd

import (
	"github.com/git-pkgs/purl"

	"github.com/git-pkgs/paxd/client"
	"github.com/git-pkgs/paxd/internal/core"
)

// Re-export types from internal/core
type (
	// Manifest is the canonical package description.
	Manifest = core.Manifest

	// PackageInfo holds a manifest's descriptive fields.
	PackageInfo = core.PackageInfo

	// InstallSpec holds a manifest's install block.
	InstallSpec = core.InstallSpec

	// Dependency is an external or internal dependency reference.
	Dependency = core.Dependency

	// DependencyKind distinguishes pip requirements from PaxD packages.
	DependencyKind = core.DependencyKind

	// Source is a manifest format.
	Source = core.Source

	// Resolver locates manifests in a repository.
	Resolver = core.Resolver

	// ResolverOption configures a Resolver.
	ResolverOption = core.ResolverOption

	// SearchEntry is one row of a repository search index.
	SearchEntry = core.SearchEntry

	// Event is a structured progress record.
	Event = core.Event

	// EventKind identifies an Event.
	EventKind = core.EventKind

	// Reporter receives events.
	Reporter = core.Reporter

	// ReporterFunc adapts a function to Reporter.
	ReporterFunc = core.ReporterFunc

	// Identifier is a package reference given by a user.
	Identifier = core.Identifier
)

// Re-export types from client
type (
	// Client is an HTTP client with retry logic for repository metadata.
	Client = client.Client

	// URLBuilder constructs repository URLs.
	URLBuilder = client.URLBuilder

	// RateLimiter controls request pacing.
	RateLimiter = client.RateLimiter
)

// Re-export constants
const (
	External = core.External
	Internal = core.Internal
)

// Re-export errors
var (
	ErrRepositoryUnreachable = core.ErrRepositoryUnreachable
	ErrManifestNotFound      = core.ErrManifestNotFound
	ErrManifestInvalid       = core.ErrManifestInvalid
	ErrChecksumMismatch      = core.ErrChecksumMismatch
	ErrTransferFailed        = core.ErrTransferFailed
	ErrAlreadyInstalled      = core.ErrAlreadyInstalled
	ErrNotInstalled          = core.ErrNotInstalled
	ErrLauncherConflict      = core.ErrLauncherConflict
	ErrProtectedPackage      = core.ErrProtectedPackage
	ErrCyclicDependency      = core.ErrCyclicDependency
	ErrInvalidPackageID      = core.ErrInvalidPackageID
	ErrCancelled             = core.ErrCancelled

	ErrNotFound = client.ErrNotFound
)

// Error types
type (
	ResolveError      = core.ResolveError
	SourceError       = core.SourceError
	MissingFieldError = core.MissingFieldError
	InvalidPathError  = core.InvalidPathError
	InvalidIDError    = core.InvalidIDError
	ProtectedError    = core.ProtectedError
	CycleError        = core.CycleError
	TransactionError  = core.TransactionError
	HTTPError         = client.HTTPError
	NotFoundError     = client.NotFoundError
	RateLimitError    = client.RateLimitError
)

// NewResolver creates a manifest resolver for the repository at repo.
// If c is nil, DefaultClient() is used.
func NewResolver(repo string, c *Client, opts ...ResolverOption) *Resolver {
	if c == nil {
		return core.NewResolver(repo, nil, opts...)
	}
	return core.NewResolver(repo, c, opts...)
}

// WithSources overrides the registered manifest formats.
var WithSources = core.WithSources

// WithReporter sets a resolver's event sink.
var WithReporter = core.WithReporter

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 5 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return client.DefaultClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	return client.NewClient(opts...)
}

// Option configures a Client.
type Option = client.Option

// WithTimeout sets the HTTP client timeout.
var WithTimeout = client.WithTimeout

// WithMaxRetries sets the maximum number of retries.
var WithMaxRetries = client.WithMaxRetries

// SupportedSources returns the registered manifest formats in resolution
// order. Formats must be imported to be registered.
func SupportedSources() []string {
	return core.SupportedSources()
}

// CheckPackageID reports whether id is usable as a package directory name.
func CheckPackageID(id string) error {
	return core.CheckPackageID(id)
}

// PURL represents a parsed Package URL.
type PURL = purl.PURL

// ParsePURL parses a Package URL string of any type into its components.
func ParsePURL(purlStr string) (*PURL, error) {
	return purl.Parse(purlStr)
}

// ParseIdentifier accepts a bare package identifier or a pkg:paxd
// Package URL, optionally carrying a repository_url qualifier.
func ParseIdentifier(s string) (Identifier, error) {
	return core.ParseIdentifier(s)
}

// FormatPURL returns the pkg:paxd Package URL for a package.
func FormatPURL(id, version string) string {
	return core.FormatPURL(id, version)
}

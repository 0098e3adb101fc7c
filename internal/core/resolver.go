package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/github/go-spdx/v2/spdxexp"
)

// Getter fetches a resource body. *client.Client satisfies it.
type Getter interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// Resolver locates and normalizes package manifests in a repository.
type Resolver struct {
	getter   Getter
	urls     URLBuilder
	sources  []Source
	reporter Reporter
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSources overrides the registered source list.
func WithSources(srcs ...Source) ResolverOption {
	return func(r *Resolver) {
		r.sources = srcs
	}
}

// WithReporter sets the event sink for skipped sources and license warnings.
func WithReporter(rep Reporter) ResolverOption {
	return func(r *Resolver) {
		r.reporter = rep
	}
}

// WithURLs overrides the repository URL layout.
func WithURLs(urls URLBuilder) ResolverOption {
	return func(r *Resolver) {
		r.urls = urls
	}
}

// NewResolver creates a resolver for the repository rooted at repo.
// If getter is nil, DefaultClient() is used. Sources default to every
// registered source in priority order.
func NewResolver(repo string, getter Getter, opts ...ResolverOption) *Resolver {
	if getter == nil {
		getter = DefaultClient()
	}
	r := &Resolver{
		getter:   getter,
		urls:     NewRepoURLs(repo),
		reporter: NopReporter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sources == nil {
		r.sources = Sources()
	}
	return r
}

// URLs returns the URL builder for the repository.
func (r *Resolver) URLs() URLBuilder {
	return r.urls
}

// Probe checks that the repository answers at all.
func (r *Resolver) Probe(ctx context.Context) error {
	url := r.urls.Probe()
	if _, err := r.getter.GetBody(ctx, url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", ErrRepositoryUnreachable, url, err)
	}
	r.reporter.Report(Event{Kind: EventProbe, Message: url})
	return nil
}

// Resolve returns the manifest from the first source that both fetches and
// parses. Failures of earlier sources never abort resolution.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Manifest, error) {
	if err := CheckPackageID(id); err != nil {
		return nil, err
	}

	resolveErr := &ResolveError{Package: id}
	for _, src := range r.sources {
		m, err := r.try(ctx, id, src)
		if err == nil {
			r.checkLicense(id, m)
			r.reporter.Report(Event{Kind: EventResolved, Package: id, Source: m.Source, Message: m.Info.Version})
			return m, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var srcErr *SourceError
		errors.As(err, &srcErr)
		resolveErr.Attempts = append(resolveErr.Attempts, srcErr)
		r.reporter.Report(Event{Kind: EventSourceSkipped, Package: id, Source: src.Name(), Err: srcErr.Err})
	}
	return nil, resolveErr
}

func (r *Resolver) try(ctx context.Context, id string, src Source) (*Manifest, error) {
	url := r.urls.Manifest(id, src.Name())
	data, err := r.getter.GetBody(ctx, url)
	if err != nil {
		return nil, &SourceError{Source: src.Name(), URL: url, Err: err}
	}
	m, err := src.Parse(data)
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		return nil, &SourceError{Source: src.Name(), URL: url, Err: err}
	}
	m.Source = src.Name()
	return m, nil
}

// checkLicense reports licenses that are not valid SPDX expressions.
// They are accepted regardless.
func (r *Resolver) checkLicense(id string, m *Manifest) {
	valid, invalid := spdxexp.ValidateLicenses([]string{m.Info.License})
	if valid {
		return
	}
	r.reporter.Report(Event{
		Kind:    EventLicenseWarning,
		Package: id,
		Message: fmt.Sprintf("license %v is not a recognised SPDX expression", invalid),
	})
}

// SearchIndex fetches and parses the repository search index.
func (r *Resolver) SearchIndex(ctx context.Context) ([]SearchEntry, error) {
	url := r.urls.SearchIndex()
	data, err := r.getter.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching search index: %w", err)
	}
	return ParseSearchIndex(data), nil
}

// Search returns index entries matching term. A limit of zero or less
// returns every match.
func (r *Resolver) Search(ctx context.Context, term string, limit int) ([]SearchEntry, error) {
	entries, err := r.SearchIndex(ctx)
	if err != nil {
		return nil, err
	}
	return MatchSearch(entries, term, limit), nil
}

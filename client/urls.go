package client

import (
	"fmt"
	"net/url"
	"strings"
)

// URLBuilder constructs URLs for a repository.
type URLBuilder interface {
	Probe() string
	Manifest(id, source string) string
	File(id, path string) string
	SearchIndex() string
}

// RepoURLs is the URLBuilder for the standard PaxD repository layout:
//
//	<repo>/paxd
//	<repo>/packages/<id>/<manifest|file>
//	<repo>/searchindex.csv
type RepoURLs struct {
	base string
}

// NewRepoURLs returns a builder rooted at base. Trailing slashes are dropped.
func NewRepoURLs(base string) *RepoURLs {
	return &RepoURLs{base: strings.TrimRight(base, "/")}
}

// Base returns the repository root.
func (r *RepoURLs) Base() string {
	return r.base
}

func (r *RepoURLs) Probe() string {
	return r.base + "/paxd"
}

func (r *RepoURLs) Manifest(id, source string) string {
	return r.File(id, source)
}

func (r *RepoURLs) File(id, path string) string {
	return fmt.Sprintf("%s/packages/%s/%s", r.base, url.PathEscape(id), escapePath(path))
}

func (r *RepoURLs) SearchIndex() string {
	return r.base + "/searchindex.csv"
}

func escapePath(p string) string {
	parts := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

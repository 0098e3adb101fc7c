package fetch

import (
	"path/filepath"
	"strings"

	"github.com/git-pkgs/paxd/client"
	"github.com/git-pkgs/paxd/internal/core"
)

// FileJob is one include entry resolved to a download URL and local path.
type FileJob struct {
	Rel      string // path as declared in the manifest
	URL      string
	Path     string // absolute local destination
	Checksum string // "algorithm:hex", empty when undeclared
}

// Resolver maps a manifest's include list onto download URLs and paths
// inside a package directory.
type Resolver struct {
	urls client.URLBuilder
}

// NewResolver creates a resolver for the repository described by urls.
func NewResolver(urls client.URLBuilder) *Resolver {
	return &Resolver{urls: urls}
}

// Resolve returns one job per include entry, in manifest order. Paths that
// would leave dir are rejected.
func (r *Resolver) Resolve(id string, m *core.Manifest, dir string) ([]FileJob, error) {
	jobs := make([]FileJob, 0, len(m.Install.Include))
	for _, rel := range m.Install.Include {
		if err := core.CheckRelativePath(rel); err != nil {
			return nil, err
		}
		sum, _ := m.ChecksumFor(rel)
		jobs = append(jobs, FileJob{
			Rel:      rel,
			URL:      r.urls.File(id, rel),
			Path:     filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(rel, "\\", "/"))),
			Checksum: sum,
		})
	}
	return jobs, nil
}

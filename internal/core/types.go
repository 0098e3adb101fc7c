package core

import (
	"path"
	"strings"
)

// DependencyKind distinguishes dependencies handled by an external installer
// from packages installed from the same repository.
type DependencyKind int

const (
	// External dependencies are opaque references passed to the external
	// installer (pip requirements in practice).
	External DependencyKind = iota
	// Internal dependencies are package identifiers installed recursively.
	Internal
)

// Prefix is the tag used for the kind in legacy manifests ("pip:x", "paxd:x").
func (k DependencyKind) Prefix() string {
	if k == Internal {
		return "paxd"
	}
	return "pip"
}

func (k DependencyKind) String() string {
	if k == Internal {
		return "internal"
	}
	return "external"
}

// Dependency is a single install.depend entry.
type Dependency struct {
	Kind DependencyKind
	Ref  string
}

func (d Dependency) String() string {
	return d.Kind.Prefix() + ":" + d.Ref
}

// PackageInfo holds the descriptive pkg_info block of a manifest.
type PackageInfo struct {
	Name        string
	Author      string
	Version     string // opaque, compared only for equality
	Description string
	License     string
	Tags        []string
}

// InstallSpec holds the install block of a manifest.
type InstallSpec struct {
	Include  []string
	Depend   []Dependency
	Checksum map[string]string
	MainFile string
	Alias    string

	// Passed through untouched for hook runners.
	FirstRun  any
	UpdateRun any
	OneShot   any
}

// Manifest is the canonical package description every source format
// normalizes into.
type Manifest struct {
	Info    PackageInfo
	Install InstallSpec

	// Source names the format that produced this manifest, e.g. "paxd.yaml".
	Source string
}

// Validate checks that the required pkg_info fields are present and that
// every path the manifest refers to stays inside the package directory.
func (m *Manifest) Validate() error {
	required := []struct {
		field, value string
	}{
		{"name", m.Info.Name},
		{"author", m.Info.Author},
		{"version", m.Info.Version},
		{"description", m.Info.Description},
		{"license", m.Info.License},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingFieldError{Field: r.field}
		}
	}

	for _, inc := range m.Install.Include {
		if err := CheckRelativePath(inc); err != nil {
			return err
		}
	}
	if m.Install.MainFile != "" {
		if err := CheckRelativePath(m.Install.MainFile); err != nil {
			return err
		}
	}
	if m.Install.Alias != "" && strings.ContainsAny(m.Install.Alias, `/\`) {
		return &InvalidPathError{Path: m.Install.Alias, Reason: "alias must not contain path separators"}
	}
	for _, dep := range m.Install.Depend {
		if dep.Kind == Internal {
			if err := CheckPackageID(dep.Ref); err != nil {
				return err
			}
		}
	}
	return nil
}

// ChecksumFor returns the declared checksum for file, if any.
func (m *Manifest) ChecksumFor(file string) (string, bool) {
	sum, ok := m.Install.Checksum[file]
	if !ok || sum == "" {
		return "", false
	}
	return sum, true
}

// LauncherAlias returns the launcher name for the manifest: the declared
// alias, or the mainfile's base name without its extension.
func (m *Manifest) LauncherAlias() string {
	if m.Install.Alias != "" {
		return m.Install.Alias
	}
	if m.Install.MainFile == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(m.Install.MainFile, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// SearchEntry is one row of a repository search index.
type SearchEntry struct {
	ID          string
	Name        string
	Author      string
	Version     string
	Description string
}

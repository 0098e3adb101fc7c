package core

import (
	"fmt"
	"strings"

	"github.com/git-pkgs/purl"
)

// PURLType is the Package URL type for PaxD packages.
const PURLType = "paxd"

// PURL is a pkg:paxd Package URL.
type PURL struct {
	*purl.PURL
}

// PackageID returns the PaxD package identifier. Namespaces are joined with
// dots, so pkg:paxd/com.example/tool and pkg:paxd/com.example.tool name the
// same package.
func (p PURL) PackageID() string {
	if p.Namespace == "" {
		return p.Name
	}
	return strings.ReplaceAll(p.Namespace, "/", ".") + "." + p.Name
}

// Repository returns the repository_url qualifier, if present.
func (p PURL) Repository() string {
	return p.RepositoryURL()
}

// ParsePURL parses a paxd Package URL.
func ParsePURL(s string) (*PURL, error) {
	p, err := purl.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPackageID, err)
	}
	if p.Type != PURLType {
		return nil, fmt.Errorf("%w: purl type %q is not %q", ErrInvalidPackageID, p.Type, PURLType)
	}
	return &PURL{p}, nil
}

// FormatPURL returns the Package URL for an installed or published package.
func FormatPURL(id, version string) string {
	if version == "Unknown" {
		version = ""
	}
	return purl.New(PURLType, "", id, version, nil).String()
}

// Identifier is a package reference as typed by a user.
type Identifier struct {
	ID         string
	Version    string // informational; installs always take the latest manifest
	Repository string // overrides the configured repository when set
}

// ParseIdentifier accepts either a bare package identifier or a
// pkg:paxd/... Package URL.
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "pkg:") {
		if err := CheckPackageID(s); err != nil {
			return Identifier{}, err
		}
		return Identifier{ID: s}, nil
	}

	p, err := ParsePURL(s)
	if err != nil {
		return Identifier{}, err
	}
	id := p.PackageID()
	if err := CheckPackageID(id); err != nil {
		return Identifier{}, err
	}
	return Identifier{ID: id, Version: p.Version, Repository: p.Repository()}, nil
}

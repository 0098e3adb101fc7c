// Package pypi checks pip requirements against a Python package index
// before they are handed to pip.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/git-pkgs/paxd/client"
)

const DefaultURL = "https://pypi.org"

// Index looks projects up through the index's JSON API.
type Index struct {
	baseURL string
	client  *client.Client
}

// New creates an Index. An empty baseURL means pypi.org; a nil client
// means client.DefaultClient().
func New(baseURL string, c *client.Client) *Index {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if c == nil {
		c = client.DefaultClient()
	}
	return &Index{baseURL: strings.TrimSuffix(baseURL, "/"), client: c}
}

type projectResponse struct {
	Info     infoBlock                `json:"info"`
	Releases map[string][]releaseFile `json:"releases"`
}

type infoBlock struct {
	Name              string   `json:"name"`
	Summary           string   `json:"summary"`
	License           string   `json:"license"`
	LicenseExpression string   `json:"license_expression"`
	Version           string   `json:"version"`
	Classifiers       []string `json:"classifiers"`
	RequiresPython    string   `json:"requires_python"`
}

type releaseFile struct {
	Yanked bool `json:"yanked"`
}

// Project is what the index knows about a requirement's project.
type Project struct {
	Name           string
	Summary        string
	License        string
	Latest         string
	RequiresPython string
	// Releases lists every version with at least one non-yanked file, sorted.
	Releases []string
}

// HasRelease reports whether version is an available release.
func (p *Project) HasRelease(version string) bool {
	i := sort.SearchStrings(p.Releases, version)
	return i < len(p.Releases) && p.Releases[i] == version
}

// Project fetches a project by name.
func (ix *Index) Project(ctx context.Context, name string) (*Project, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", ix.baseURL, NormalizeName(name))

	var resp projectResponse
	if err := ix.client.GetJSON(ctx, url, &resp); err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return nil, &client.NotFoundError{Package: name}
		}
		return nil, err
	}

	p := &Project{
		Name:           resp.Info.Name,
		Summary:        resp.Info.Summary,
		License:        extractLicense(resp.Info),
		Latest:         resp.Info.Version,
		RequiresPython: resp.Info.RequiresPython,
	}
	for version, files := range resp.Releases {
		for _, f := range files {
			if !f.Yanked {
				p.Releases = append(p.Releases, version)
				break
			}
		}
	}
	sort.Strings(p.Releases)
	return p, nil
}

// Check verifies that ref names a project on the index and, for an exact
// "==" pin, that the pinned release exists. References pip resolves
// without the index (URLs and local paths) always pass.
func (ix *Index) Check(ctx context.Context, ref string) error {
	req := ParseRequirement(ref)
	if !req.Indexed() {
		return nil
	}
	p, err := ix.Project(ctx, req.Name)
	if err != nil {
		return err
	}
	if pin, ok := req.Pin(); ok && !p.HasRelease(pin) {
		return &client.NotFoundError{Package: req.Name, Path: pin}
	}
	return nil
}

func extractLicense(info infoBlock) string {
	if info.LicenseExpression != "" {
		return info.LicenseExpression
	}
	if info.License != "" {
		return info.License
	}
	for _, classifier := range info.Classifiers {
		if strings.HasPrefix(classifier, "License :: ") {
			parts := strings.Split(classifier, " :: ")
			return parts[len(parts)-1]
		}
	}
	return ""
}

// NormalizeName applies PEP 503 normalization.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return name
}

// Requirement is a parsed PEP 508 requirement string.
type Requirement struct {
	Raw       string
	Name      string
	Specifier string // "*" when unconstrained
	Marker    string
}

var pep508NameRegex = regexp.MustCompile(`^([A-Za-z0-9][-A-Za-z0-9._]*[A-Za-z0-9]|[A-Za-z0-9])(\s*\[.*?\])?`)

// ParseRequirement splits a requirement into name, version specifier and
// environment marker. Extras are dropped.
func ParseRequirement(ref string) Requirement {
	req := Requirement{Raw: ref}

	parts := strings.SplitN(ref, ";", 2)
	nameAndVersion := strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		req.Marker = strings.TrimSpace(parts[1])
	}

	if match := pep508NameRegex.FindStringSubmatch(nameAndVersion); match != nil {
		req.Name = strings.TrimSpace(match[1])
		spec := strings.TrimSpace(nameAndVersion[len(match[0]):])
		req.Specifier = strings.TrimSpace(strings.Trim(spec, "()"))
	} else {
		req.Name = nameAndVersion
	}
	if idx := strings.Index(req.Name, "["); idx != -1 {
		req.Name = req.Name[:idx]
	}
	if req.Specifier == "" {
		req.Specifier = "*"
	}
	return req
}

// Indexed reports whether pip would look the requirement up on an index.
func (r Requirement) Indexed() bool {
	raw := strings.TrimSpace(r.Raw)
	switch {
	case raw == "", strings.HasPrefix(raw, "-"):
		return false
	case strings.Contains(raw, "://"), strings.Contains(raw, " @ "):
		return false
	case strings.HasPrefix(raw, "."), strings.HasPrefix(raw, "/"), strings.Contains(raw, `\`):
		return false
	}
	return r.Name != ""
}

// Pin returns the version of an exact "==" pin.
func (r Requirement) Pin() (string, bool) {
	v, ok := strings.CutPrefix(r.Specifier, "==")
	if !ok || strings.ContainsAny(v, ",*") {
		return "", false
	}
	return strings.TrimSpace(v), true
}

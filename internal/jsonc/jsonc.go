// Package jsonc provides the legacy "paxd" manifest format: JSON with
// line comments.
package jsonc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/paxd/internal/core"
)

// Name is the file name legacy manifests are published under.
const Name = "paxd"

func init() {
	core.Register(Name, 2, func() core.Source { return New() })
}

type Source struct{}

func New() *Source {
	return &Source{}
}

func (s *Source) Name() string {
	return Name
}

type document struct {
	PkgInfo struct {
		Name        string     `json:"pkg_name"`
		Author      string     `json:"pkg_author"`
		Version     jsonScalar `json:"pkg_version"`
		Description string     `json:"pkg_description"`
		License     string     `json:"pkg_license"`
		Tags        []string   `json:"tags"`
	} `json:"pkg_info"`
	Install struct {
		Include   []string          `json:"include"`
		Depend    []string          `json:"depend"`
		Checksum  map[string]string `json:"checksum"`
		MainFile  string            `json:"mainfile"`
		Alias     string            `json:"alias"`
		FirstRun  any               `json:"firstrun"`
		UpdateRun any               `json:"updaterun"`
		OneShot   any               `json:"oneshot"`
	} `json:"install"`
}

// jsonScalar accepts a version written either as a string or a bare number.
type jsonScalar string

func (v *jsonScalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = jsonScalar(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("version must be a string or number")
	}
	*v = jsonScalar(n.String())
	return nil
}

func (s *Source) Parse(data []byte) (*core.Manifest, error) {
	var doc document
	if err := json.Unmarshal([]byte(StripComments(string(data))), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrManifestInvalid, Name, err)
	}

	m := &core.Manifest{
		Info: core.PackageInfo{
			Name:        doc.PkgInfo.Name,
			Author:      doc.PkgInfo.Author,
			Version:     string(doc.PkgInfo.Version),
			Description: doc.PkgInfo.Description,
			License:     doc.PkgInfo.License,
			Tags:        doc.PkgInfo.Tags,
		},
		Install: core.InstallSpec{
			Include:   doc.Install.Include,
			Checksum:  doc.Install.Checksum,
			MainFile:  doc.Install.MainFile,
			Alias:     doc.Install.Alias,
			FirstRun:  doc.Install.FirstRun,
			UpdateRun: doc.Install.UpdateRun,
			OneShot:   doc.Install.OneShot,
		},
	}

	for _, entry := range doc.Install.Depend {
		dep, err := ParseDependency(entry)
		if errors.Is(err, ErrUnknownDependency) {
			// Installers that predate a dependency kind ignore it.
			continue
		}
		if err != nil {
			return nil, err
		}
		m.Install.Depend = append(m.Install.Depend, dep)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ErrUnknownDependency is returned by ParseDependency for an entry whose
// prefix is neither pip nor paxd. Parse skips such entries.
var ErrUnknownDependency = errors.New("unknown dependency kind")

// ParseDependency parses a "pip:<ref>" or "paxd:<id>" depend entry.
func ParseDependency(entry string) (core.Dependency, error) {
	kind, ref, _ := strings.Cut(entry, ":")
	var dk core.DependencyKind
	switch kind {
	case core.External.Prefix():
		dk = core.External
	case core.Internal.Prefix():
		dk = core.Internal
	default:
		return core.Dependency{}, fmt.Errorf("%w %q", ErrUnknownDependency, entry)
	}
	if strings.TrimSpace(ref) == "" {
		return core.Dependency{}, fmt.Errorf("%w: empty dependency %q", core.ErrManifestInvalid, entry)
	}
	return core.Dependency{Kind: dk, Ref: ref}, nil
}

// StripComments removes // line comments that lie outside string literals.
// String state does not carry across lines. A backslash escapes the next
// character wherever it appears.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if pos := commentStart(line); pos >= 0 {
			lines[i] = strings.TrimRight(line[:pos], " \t\r\f\v")
		}
	}
	return strings.Join(lines, "\n")
}

func commentStart(line string) int {
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '/' && i+1 < len(line) && line[i+1] == '/':
			return i
		}
	}
	return -1
}

// Package yamlmanifest provides the package.yaml and paxd.yaml manifest formats.
package yamlmanifest

import (
	"fmt"

	"github.com/git-pkgs/paxd/internal/core"
	"gopkg.in/yaml.v3"
)

const (
	PackageYAML = "package.yaml"
	PaxdYAML    = "paxd.yaml"
)

func init() {
	core.Register(PackageYAML, 0, func() core.Source { return New(PackageYAML) })
	core.Register(PaxdYAML, 1, func() core.Source { return New(PaxdYAML) })
}

// Source decodes a YAML manifest published under a fixed file name.
type Source struct {
	name string
}

func New(name string) *Source {
	return &Source{name: name}
}

func (s *Source) Name() string {
	return s.name
}

// scalar keeps the literal text of a YAML scalar so that "version: 1.10"
// stays "1.10" instead of becoming a float.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

type document struct {
	Name        scalar   `yaml:"name"`
	Author      scalar   `yaml:"author"`
	Version     scalar   `yaml:"version"`
	Description scalar   `yaml:"description"`
	License     scalar   `yaml:"license"`
	Tags        []scalar `yaml:"tags"`
	Install     install  `yaml:"install"`
}

type install struct {
	Files          []string          `yaml:"files"`
	Dependencies   dependencies      `yaml:"dependencies"`
	FirstRun       any               `yaml:"firstrun"`
	UpdateRun      any               `yaml:"updaterun"`
	OneShot        any               `yaml:"oneshot"`
	MainExecutable string            `yaml:"main_executable"`
	CommandAlias   string            `yaml:"command_alias"`
	Checksum       map[string]string `yaml:"checksum"`
}

type dependencies struct {
	Pip  []scalar `yaml:"pip"`
	Paxd []string `yaml:"paxd"`
}

func (s *Source) Parse(data []byte) (*core.Manifest, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrManifestInvalid, s.name, err)
	}

	m := &core.Manifest{
		Info: core.PackageInfo{
			Name:        string(doc.Name),
			Author:      string(doc.Author),
			Version:     string(doc.Version),
			Description: string(doc.Description),
			License:     string(doc.License),
		},
		Install: core.InstallSpec{
			Include:   doc.Install.Files,
			Checksum:  doc.Install.Checksum,
			MainFile:  doc.Install.MainExecutable,
			Alias:     doc.Install.CommandAlias,
			FirstRun:  doc.Install.FirstRun,
			UpdateRun: doc.Install.UpdateRun,
			OneShot:   doc.Install.OneShot,
		},
	}
	for _, tag := range doc.Tags {
		m.Info.Tags = append(m.Info.Tags, string(tag))
	}

	// pip entries first, then paxd, matching the legacy depend list layout.
	for _, ref := range doc.Install.Dependencies.Pip {
		m.Install.Depend = append(m.Install.Depend, core.Dependency{Kind: core.External, Ref: string(ref)})
	}
	for _, ref := range doc.Install.Dependencies.Paxd {
		m.Install.Depend = append(m.Install.Depend, core.Dependency{Kind: core.Internal, Ref: ref})
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

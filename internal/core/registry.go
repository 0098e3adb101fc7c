package core

import (
	"sort"
	"sync"
)

// Source is a manifest format hosted at <repo>/packages/<id>/<Name()>.
type Source interface {
	// Name returns the file name the format is published under.
	Name() string

	// Parse decodes data into a canonical manifest. Required-field checks
	// happen here; any error marks the source unavailable.
	Parse(data []byte) (*Manifest, error)
}

// Factory creates a Source.
type Factory func() Source

type registration struct {
	name     string
	priority int
	factory  Factory
}

var (
	sources = make(map[string]registration)
	mu      sync.RWMutex
)

// Register adds a manifest source. Sources are tried in ascending priority.
// Registering the same name twice replaces the earlier registration.
func Register(name string, priority int, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	sources[name] = registration{name: name, priority: priority, factory: factory}
}

// Sources returns a fresh instance of every registered source in
// resolution order.
func Sources() []Source {
	mu.RLock()
	regs := make([]registration, 0, len(sources))
	for _, r := range sources {
		regs = append(regs, r)
	}
	mu.RUnlock()

	sort.Slice(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority < regs[j].priority
		}
		return regs[i].name < regs[j].name
	})

	out := make([]Source, len(regs))
	for i, r := range regs {
		out[i] = r.factory()
	}
	return out
}

// SupportedSources returns the names of registered sources in resolution order.
func SupportedSources() []string {
	srcs := Sources()
	names := make([]string, len(srcs))
	for i, s := range srcs {
		names[i] = s.Name()
	}
	return names
}

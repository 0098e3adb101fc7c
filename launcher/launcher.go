// Package launcher writes the per-alias shims that let installed packages
// be run by name.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/git-pkgs/paxd/internal/core"
)

// Resolution is a caller's answer to a launcher conflict.
type Resolution int

const (
	// Replace overwrites the existing launcher.
	Replace Resolution = iota
	// Cancel aborts the operation that wanted the launcher.
	Cancel
	// Manual waits for the conflict to be cleared outside the process and
	// then writes the launcher.
	Manual
)

func (r Resolution) String() string {
	switch r {
	case Replace:
		return "replace"
	case Cancel:
		return "cancel"
	case Manual:
		return "manual"
	}
	return "unknown"
}

// Outcome describes what Register did.
type Outcome int

const (
	Created Outcome = iota
	Unchanged
)

// ConflictError is returned when an alias already has a launcher that
// points somewhere else.
type ConflictError struct {
	Alias          string
	Path           string
	ExistingTarget string
}

func (e *ConflictError) Error() string {
	if e.ExistingTarget != "" {
		return fmt.Sprintf("launcher %q already exists at %s (runs %s)", e.Alias, e.Path, e.ExistingTarget)
	}
	return fmt.Sprintf("launcher %q already exists at %s", e.Alias, e.Path)
}

func (e *ConflictError) Unwrap() error {
	return core.ErrLauncherConflict
}

// Registrar manages shims in a single launcher directory.
type Registrar struct {
	dir         string
	interpreter string
	runner      string
	goos        string
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithGOOS selects the shim flavour. Defaults to runtime.GOOS.
func WithGOOS(goos string) Option {
	return func(r *Registrar) {
		r.goos = goos
	}
}

// New creates a Registrar. Each shim runs "interpreter runner target args...";
// empty interpreter or runner are left out of the command line.
func New(dir, interpreter, runner string, opts ...Option) *Registrar {
	r := &Registrar{
		dir:         dir,
		interpreter: interpreter,
		runner:      runner,
		goos:        runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the launcher directory.
func (r *Registrar) Dir() string {
	return r.dir
}

func (r *Registrar) windows() bool {
	return r.goos == "windows"
}

// Extension returns the shim file extension, including the dot.
func (r *Registrar) Extension() string {
	if r.windows() {
		return ".bat"
	}
	return ".sh"
}

// Path returns the shim file for alias.
func (r *Registrar) Path(alias string) string {
	return filepath.Join(r.dir, alias+r.Extension())
}

// Shim returns the two-line launcher content for target.
func (r *Registrar) Shim(target string) string {
	var args []string
	for _, a := range []string{r.interpreter, r.runner, target} {
		if a != "" {
			args = append(args, `"`+a+`"`)
		}
	}
	cmd := strings.Join(args, " ")
	if r.windows() {
		return "@echo off\r\n" + cmd + " %*\r\n"
	}
	return "#!/bin/sh\nexec " + cmd + ` "$@"` + "\n"
}

func checkAlias(alias string) error {
	if alias == "" || alias == "." || alias == ".." || strings.ContainsAny(alias, `/\`) {
		return &core.InvalidPathError{Path: alias, Reason: "not a usable launcher name"}
	}
	return nil
}

// Register creates the launcher for alias. An existing launcher with the
// same content is left alone; one with different content is a conflict.
func (r *Registrar) Register(alias, target string) (Outcome, error) {
	if err := checkAlias(alias); err != nil {
		return 0, err
	}
	path := r.Path(alias)
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if string(existing) == r.Shim(target) {
			return Unchanged, nil
		}
		return 0, &ConflictError{Alias: alias, Path: path, ExistingTarget: parseTarget(string(existing))}
	case !errors.Is(err, os.ErrNotExist):
		return 0, fmt.Errorf("reading launcher %s: %w", path, err)
	}
	return Created, r.Write(alias, target)
}

// Write creates or overwrites the launcher for alias.
func (r *Registrar) Write(alias, target string) error {
	if err := checkAlias(alias); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating launcher directory: %w", err)
	}
	path := r.Path(alias)
	if err := os.WriteFile(path, []byte(r.Shim(target)), 0o755); err != nil {
		return fmt.Errorf("writing launcher %s: %w", path, err)
	}
	return nil
}

// Exists reports whether alias has a launcher.
func (r *Registrar) Exists(alias string) bool {
	_, err := os.Stat(r.Path(alias))
	return err == nil
}

// Lookup returns the target a launcher runs.
func (r *Registrar) Lookup(alias string) (string, bool) {
	data, err := os.ReadFile(r.Path(alias))
	if err != nil {
		return "", false
	}
	target := parseTarget(string(data))
	return target, target != ""
}

// Remove deletes the launcher for alias. A missing launcher is not an error.
func (r *Registrar) Remove(alias string) error {
	if err := checkAlias(alias); err != nil {
		return err
	}
	if err := os.Remove(r.Path(alias)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveTargetsUnder deletes every launcher whose target lies inside dir
// and returns the removed aliases in sorted order.
func (r *Registrar) RemoveTargetsUnder(dir string) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var removed []string
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != r.Extension() {
			continue
		}
		alias := strings.TrimSuffix(name, r.Extension())
		target, ok := r.Lookup(alias)
		if !ok || !Within(dir, target) {
			continue
		}
		if err := r.Remove(alias); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, alias)
	}
	sort.Strings(removed)
	return removed, errors.Join(errs...)
}

// Within reports whether path lies inside dir.
func Within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// parseTarget returns the last quoted argument on the shim's command line,
// ignoring the argument-forwarding token.
func parseTarget(shim string) string {
	lines := strings.Split(strings.ReplaceAll(shim, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return ""
	}
	parts := strings.Split(lines[1], `"`)
	var target string
	// Quoted values sit at the odd indices.
	for i := 1; i < len(parts); i += 2 {
		if parts[i] != "$@" {
			target = parts[i]
		}
	}
	return target
}

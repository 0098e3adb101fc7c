// Package store manages the on-disk package store: one directory per
// installed package, holding its files and two marker files.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/git-pkgs/paxd/internal/core"
)

const (
	// VersionMarker holds the installed version string.
	VersionMarker = ".VERSION"
	// UserMarker exists only for packages the user installed directly.
	UserMarker = ".USER_INSTALLED"

	// FirstRunMarker is shipped inside a freshly installed client package
	// and removed once first-run setup has happened.
	FirstRunMarker = ".FIRSTRUN"

	// UnknownVersion is reported when the version marker is missing.
	UnknownVersion = "Unknown"
)

// InstalledPackage describes a package directory in the store.
type InstalledPackage struct {
	ID            string
	Version       string
	UserInstalled bool
	Path          string
}

// Store is a package store rooted at a directory. It assumes a single
// process per root.
type Store struct {
	root string
}

// New returns a store rooted at root. The directory is created on first write.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the directory a package is installed into.
func (s *Store) Path(id string) string {
	return filepath.Join(s.root, id)
}

// StagingPath returns the hidden sibling directory a package is built in
// before it is published.
func (s *Store) StagingPath(id string) string {
	return filepath.Join(s.root, "."+id+".staging")
}

// BackupPath returns the hidden sibling directory an update snapshots into.
func (s *Store) BackupPath(id string) string {
	return filepath.Join(s.root, "."+id+".backup")
}

func (s *Store) retiredPath(id string) string {
	return filepath.Join(s.root, "."+id+".old")
}

// Exists reports whether the package is installed.
func (s *Store) Exists(id string) bool {
	if core.CheckPackageID(id) != nil {
		return false
	}
	info, err := os.Stat(s.Path(id))
	return err == nil && info.IsDir()
}

// Read returns the installed state of a package.
func (s *Store) Read(id string) (*InstalledPackage, error) {
	if err := core.CheckPackageID(id); err != nil {
		return nil, err
	}
	if !s.Exists(id) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotInstalled, id)
	}
	return s.read(id), nil
}

func (s *Store) read(id string) *InstalledPackage {
	dir := s.Path(id)
	pkg := &InstalledPackage{ID: id, Version: UnknownVersion, Path: dir}

	if data, err := os.ReadFile(filepath.Join(dir, VersionMarker)); err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			pkg.Version = v
		}
	}
	if _, err := os.Stat(filepath.Join(dir, UserMarker)); err == nil {
		pkg.UserInstalled = true
	}
	return pkg
}

// List returns every installed package sorted by identifier. Hidden
// staging and backup directories are not packages.
func (s *Store) List() ([]InstalledPackage, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}

	var pkgs []InstalledPackage
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		pkgs = append(pkgs, *s.read(entry.Name()))
	}
	sort.Slice(pkgs, func(i, j int) bool {
		return pkgs[i].ID < pkgs[j].ID
	})
	return pkgs, nil
}

// Remove deletes a package directory wholesale.
func (s *Store) Remove(id string) error {
	if err := core.CheckPackageID(id); err != nil {
		return err
	}
	if !s.Exists(id) {
		return fmt.Errorf("%w: %s", core.ErrNotInstalled, id)
	}
	return os.RemoveAll(s.Path(id))
}

// WriteMarkers writes the version marker into dir and creates or removes
// the user marker.
func WriteMarkers(dir, version string, userInstalled bool) error {
	if err := WriteVersion(dir, version); err != nil {
		return err
	}
	userPath := filepath.Join(dir, UserMarker)
	if userInstalled {
		return os.WriteFile(userPath, []byte("true"), 0o644)
	}
	if err := os.Remove(userPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// WriteVersion overwrites the version marker in dir.
func WriteVersion(dir, version string) error {
	return os.WriteFile(filepath.Join(dir, VersionMarker), []byte(version), 0o644)
}

// MarkUser creates the user marker for an installed package, promoting a
// dependency to a user install.
func (s *Store) MarkUser(id string) error {
	return os.WriteFile(filepath.Join(s.Path(id), UserMarker), []byte("true"), 0o644)
}

// Init creates the store root.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating store root: %w", err)
	}
	return nil
}

// TakeFirstRun removes the first-run marker of id and reports whether it
// was there.
func (s *Store) TakeFirstRun(id string) (bool, error) {
	err := os.Remove(filepath.Join(s.Path(id), FirstRunMarker))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, err
}

// PrepareStaging returns an empty staging directory for id, removing any
// leftover from an interrupted install.
func (s *Store) PrepareStaging(id string) (string, error) {
	if err := core.CheckPackageID(id); err != nil {
		return "", err
	}
	staging := s.StagingPath(id)
	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("clearing staging directory: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	return staging, nil
}

// Publish moves a fully built staging directory into place as the package
// directory, replacing any existing installation. If the final rename
// fails the previous installation is put back.
func (s *Store) Publish(id, staging string) error {
	final := s.Path(id)
	retired := s.retiredPath(id)
	_ = os.RemoveAll(retired)

	hadPrevious := s.Exists(id)
	if hadPrevious {
		if err := os.Rename(final, retired); err != nil {
			return fmt.Errorf("moving previous installation aside: %w", err)
		}
	}

	if err := os.Rename(staging, final); err != nil {
		if hadPrevious {
			_ = os.Rename(retired, final)
		}
		return fmt.Errorf("publishing %s: %w", id, err)
	}

	if hadPrevious {
		_ = os.RemoveAll(retired)
	}
	return nil
}

// Snapshot copies the package directory to its backup path, replacing any
// stale backup.
func (s *Store) Snapshot(id string) (string, error) {
	backup := s.BackupPath(id)
	if err := os.RemoveAll(backup); err != nil {
		return "", fmt.Errorf("removing stale backup: %w", err)
	}
	if err := CopyDir(s.Path(id), backup); err != nil {
		_ = os.RemoveAll(backup)
		return "", fmt.Errorf("backing up %s: %w", id, err)
	}
	return backup, nil
}

// Restore replaces the live package directory with its backup. The backup
// is consumed: it is renamed into place, or copied and then deleted.
func (s *Store) Restore(id string) error {
	final := s.Path(id)
	backup := s.BackupPath(id)

	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("removing failed update: %w", err)
	}
	if err := os.Rename(backup, final); err == nil {
		return nil
	}
	if err := CopyDir(backup, final); err != nil {
		return fmt.Errorf("restoring %s from backup: %w", id, err)
	}
	return os.RemoveAll(backup)
}

// DiscardBackup deletes the backup for id, if any.
func (s *Store) DiscardBackup(id string) error {
	return os.RemoveAll(s.BackupPath(id))
}

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/git-pkgs/paxd/internal/core"
)

func install(t *testing.T, s *Store, id, version string, user bool, files map[string]string) {
	t.Helper()
	dir := s.Path(id)
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if version != "" {
		if err := WriteMarkers(dir, version, user); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRead(t *testing.T) {
	s := New(t.TempDir())
	install(t, s, "a.b", "1.2", true, nil)
	install(t, s, "dep.only", "0.1", false, nil)
	install(t, s, "no.marker", "", false, nil)

	tests := []struct {
		id      string
		version string
		user    bool
	}{
		{"a.b", "1.2", true},
		{"dep.only", "0.1", false},
		{"no.marker", UnknownVersion, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			pkg, err := s.Read(tt.id)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if pkg.Version != tt.version {
				t.Errorf("Version = %q, want %q", pkg.Version, tt.version)
			}
			if pkg.UserInstalled != tt.user {
				t.Errorf("UserInstalled = %v, want %v", pkg.UserInstalled, tt.user)
			}
		})
	}

	if _, err := s.Read("missing"); !errors.Is(err, core.ErrNotInstalled) {
		t.Errorf("Read(missing) = %v, want ErrNotInstalled", err)
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	install(t, s, "zeta", "1", true, nil)
	install(t, s, "alpha", "2", false, nil)
	install(t, s, "mid", "3", true, nil)

	if err := os.MkdirAll(s.StagingPath("alpha"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	pkgs, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(pkgs) != len(want) {
		t.Fatalf("List = %v, want %v", pkgs, want)
	}
	for i, id := range want {
		if pkgs[i].ID != id {
			t.Errorf("pkgs[%d] = %q, want %q", i, pkgs[i].ID, id)
		}
	}
	if pkgs[0].UserInstalled {
		t.Error("alpha should be a dependency install")
	}
}

func TestList_MissingRoot(t *testing.T) {
	pkgs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil || pkgs != nil {
		t.Errorf("List = %v, %v; want nil, nil", pkgs, err)
	}
}

func TestRemove(t *testing.T) {
	s := New(t.TempDir())
	install(t, s, "a.b", "1", true, map[string]string{"src/x.py": "x"})

	if err := s.Remove("a.b"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if s.Exists("a.b") {
		t.Error("package still exists")
	}
	if err := s.Remove("a.b"); !errors.Is(err, core.ErrNotInstalled) {
		t.Errorf("second Remove = %v, want ErrNotInstalled", err)
	}
	if err := s.Remove("../x"); !errors.Is(err, core.ErrInvalidPackageID) {
		t.Errorf("Remove(../x) = %v, want ErrInvalidPackageID", err)
	}
}

func TestPublish_ReplacesExisting(t *testing.T) {
	s := New(t.TempDir())
	install(t, s, "a.b", "1", true, map[string]string{"old.txt": "old"})

	staging, err := s.PrepareStaging("a.b")
	if err != nil {
		t.Fatalf("PrepareStaging failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "new.txt"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteMarkers(staging, "2", true); err != nil {
		t.Fatal(err)
	}

	if err := s.Publish("a.b", staging); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(s.Path("a.b"), "old.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Error("old file survived publish")
	}
	pkg, _ := s.Read("a.b")
	if pkg.Version != "2" {
		t.Errorf("Version = %q, want 2", pkg.Version)
	}
	if _, err := os.Stat(staging); !errors.Is(err, os.ErrNotExist) {
		t.Error("staging directory left behind")
	}
	entries, _ := os.ReadDir(s.Root())
	if len(entries) != 1 {
		t.Errorf("root has %d entries, want 1", len(entries))
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := New(t.TempDir())
	install(t, s, "a.b", "1", true, map[string]string{"x.txt": "one", "lib/y.txt": "two"})

	backup, err := s.Snapshot("a.b")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(s.Path("a.b"), "x.txt"), []byte("broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Path("a.b"), "extra.txt"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Restore("a.b"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(s.Path("a.b"), "x.txt"))
	if string(got) != "one" {
		t.Errorf("x.txt = %q, want %q", got, "one")
	}
	got, _ = os.ReadFile(filepath.Join(s.Path("a.b"), "lib", "y.txt"))
	if string(got) != "two" {
		t.Errorf("lib/y.txt = %q, want %q", got, "two")
	}
	if _, err := os.Stat(filepath.Join(s.Path("a.b"), "extra.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Error("file added after the snapshot survived restore")
	}
	if _, err := os.Stat(backup); !errors.Is(err, os.ErrNotExist) {
		t.Error("backup left behind after restore")
	}
}

func TestWriteMarkers_DependencyClearsUserMarker(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMarkers(dir, "1", true); err != nil {
		t.Fatal(err)
	}
	if err := WriteMarkers(dir, "1", false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, UserMarker)); !errors.Is(err, os.ErrNotExist) {
		t.Error("user marker not removed")
	}
	data, _ := os.ReadFile(filepath.Join(dir, VersionMarker))
	if string(data) != "1" {
		t.Errorf("version marker = %q", data)
	}
}

func TestTakeFirstRun(t *testing.T) {
	s := New(t.TempDir())
	install(t, s, "x.y", "1.0", true, map[string]string{FirstRunMarker: ""})

	first, err := s.TakeFirstRun("x.y")
	if err != nil || !first {
		t.Fatalf("TakeFirstRun = %v, %v; want true, nil", first, err)
	}
	again, err := s.TakeFirstRun("x.y")
	if err != nil || again {
		t.Errorf("second TakeFirstRun = %v, %v; want false, nil", again, err)
	}
	if missing, err := s.TakeFirstRun("not.installed"); err != nil || missing {
		t.Errorf("TakeFirstRun on missing package = %v, %v; want false, nil", missing, err)
	}
}

func TestInit(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "PaxD")
	if err := New(root).Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("store root not created: %v", err)
	}
}

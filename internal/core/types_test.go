package core

import (
	"errors"
	"testing"
)

func validManifest() *Manifest {
	return &Manifest{
		Info: PackageInfo{Name: "Demo", Author: "me", Version: "1.0", Description: "d", License: "MIT"},
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Manifest)
		wantErr error
	}{
		{"valid", func(m *Manifest) {}, nil},
		{"missing license", func(m *Manifest) { m.Info.License = "" }, ErrManifestInvalid},
		{"missing version", func(m *Manifest) { m.Info.Version = "" }, ErrManifestInvalid},
		{"nested include", func(m *Manifest) { m.Install.Include = []string{"src/main.py"} }, nil},
		{"escaping include", func(m *Manifest) { m.Install.Include = []string{"../../x"} }, ErrManifestInvalid},
		{"absolute include", func(m *Manifest) { m.Install.Include = []string{"/etc/passwd"} }, ErrManifestInvalid},
		{"drive include", func(m *Manifest) { m.Install.Include = []string{`C:\x`} }, ErrManifestInvalid},
		{"escaping mainfile", func(m *Manifest) { m.Install.MainFile = ".." }, ErrManifestInvalid},
		{"alias with separator", func(m *Manifest) { m.Install.Alias = "bin/x" }, ErrManifestInvalid},
		{"bad internal dependency", func(m *Manifest) {
			m.Install.Depend = []Dependency{{Kind: Internal, Ref: "../x"}}
		}, ErrInvalidPackageID},
		{"external dependency is opaque", func(m *Manifest) {
			m.Install.Depend = []Dependency{{Kind: External, Ref: "requests>=2.0"}}
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMissingFieldName(t *testing.T) {
	m := validManifest()
	m.Info.Author = ""
	var fieldErr *MissingFieldError
	if !errors.As(m.Validate(), &fieldErr) || fieldErr.Field != "author" {
		t.Errorf("expected MissingFieldError for author, got %v", m.Validate())
	}
}

func TestLauncherAlias(t *testing.T) {
	tests := []struct {
		alias, mainfile, want string
	}{
		{"", "", ""},
		{"tool", "src/main.py", "tool"},
		{"", "src/main.py", "main"},
		{"", `src\run.tool.py`, "run.tool"},
		{"", "launch", "launch"},
	}
	for _, tt := range tests {
		m := validManifest()
		m.Install.Alias = tt.alias
		m.Install.MainFile = tt.mainfile
		if got := m.LauncherAlias(); got != tt.want {
			t.Errorf("LauncherAlias(%q, %q) = %q, want %q", tt.alias, tt.mainfile, got, tt.want)
		}
	}
}

func TestDependencyString(t *testing.T) {
	if got := (Dependency{Kind: External, Ref: "requests"}).String(); got != "pip:requests" {
		t.Errorf("String = %q", got)
	}
	if got := (Dependency{Kind: Internal, Ref: "a.b"}).String(); got != "paxd:a.b" {
		t.Errorf("String = %q", got)
	}
}

func TestTransactionErrorCause(t *testing.T) {
	inner := &TransactionError{Op: "install", Package: "dep", Err: ErrChecksumMismatch}
	outer := &TransactionError{Op: "install", Package: "top", Err: inner}

	if !errors.Is(outer, ErrChecksumMismatch) {
		t.Error("errors.Is through nested transactions failed")
	}
	if outer.Cause() != ErrChecksumMismatch {
		t.Errorf("Cause = %v, want %v", outer.Cause(), ErrChecksumMismatch)
	}
}

func TestCheckPackageID(t *testing.T) {
	valid := []string{"a.b", "com.mralfiem591.paxd-imp", "tool_2"}
	invalid := []string{"", ".", "..", ".staging", "a/b", `a\b`, "c:x", " a"}
	for _, id := range valid {
		if err := CheckPackageID(id); err != nil {
			t.Errorf("CheckPackageID(%q) = %v", id, err)
		}
	}
	for _, id := range invalid {
		if err := CheckPackageID(id); !errors.Is(err, ErrInvalidPackageID) {
			t.Errorf("CheckPackageID(%q) = %v, want ErrInvalidPackageID", id, err)
		}
	}
}

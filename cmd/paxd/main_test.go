package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/git-pkgs/paxd"
	"github.com/git-pkgs/paxd/config"
	"github.com/git-pkgs/paxd/installer"
	"github.com/git-pkgs/paxd/launcher"
	"github.com/git-pkgs/paxd/store"
)

func newPrompt(input string, yes bool) (*promptPolicy, *bytes.Buffer) {
	var out bytes.Buffer
	return &promptPolicy{in: bufio.NewReader(strings.NewReader(input)), out: &out, yes: yes}, &out
}

func TestPromptPolicy_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		p, out := newPrompt(tt.input, false)
		if got := p.ConfirmReinstall("a.b"); got != tt.want {
			t.Errorf("ConfirmReinstall with input %q = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "a.b is already installed") {
			t.Errorf("prompt = %q, want reinstall question", out.String())
		}
	}

	p, out := newPrompt("", true)
	if !p.ConfirmUninstall("a.b") {
		t.Error("ConfirmUninstall with yes = false, want true")
	}
	if out.Len() != 0 {
		t.Errorf("prompt written with yes set: %q", out.String())
	}
}

func TestPromptPolicy_ResolveLauncherConflict(t *testing.T) {
	conflict := &launcher.ConflictError{Alias: "tool", Path: "/bin/tool"}
	tests := []struct {
		input string
		want  launcher.Resolution
	}{
		{"r\n", launcher.Replace},
		{"replace\n", launcher.Replace},
		{"m\n", launcher.Manual},
		{"c\n", launcher.Cancel},
		{"what\n", launcher.Cancel},
		{"", launcher.Cancel},
	}

	for _, tt := range tests {
		p, _ := newPrompt(tt.input, false)
		if got := p.ResolveLauncherConflict(conflict); got != tt.want {
			t.Errorf("ResolveLauncherConflict with input %q = %v, want %v", tt.input, got, tt.want)
		}
	}

	p, _ := newPrompt("", true)
	if got := p.ResolveLauncherConflict(conflict); got != launcher.Replace {
		t.Errorf("ResolveLauncherConflict with yes = %v, want replace", got)
	}
}

func TestPromptPolicy_AwaitManualResolution(t *testing.T) {
	conflict := &launcher.ConflictError{Alias: "tool", Path: "/bin/tool"}

	p, out := newPrompt("\n", false)
	if err := p.AwaitManualResolution(context.Background(), conflict); err != nil {
		t.Errorf("AwaitManualResolution failed: %v", err)
	}
	if !strings.Contains(out.String(), "/bin/tool") {
		t.Errorf("prompt = %q, want launcher path", out.String())
	}

	p, _ = newPrompt("", false)
	if err := p.AwaitManualResolution(context.Background(), conflict); !errors.Is(err, paxd.ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled on closed input", err)
	}
}

func TestListCommand(t *testing.T) {
	root := t.TempDir()
	for id, user := range map[string]bool{"a.b": true, "c.d": false} {
		dir := filepath.Join(root, id)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := store.WriteMarkers(dir, "1.0", user); err != nil {
			t.Fatal(err)
		}
	}
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("store_root: "+root+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	a := newApp(strings.NewReader(""), &out, log.New(io.Discard))
	cmd := a.rootCmd()
	cmd.SetArgs([]string{"--config", cfgFile, "list"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header and 2 rows:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "a.b") || !strings.Contains(lines[1], "user") {
		t.Errorf("row = %q, want a.b installed by user", lines[1])
	}
	if !strings.HasPrefix(lines[2], "c.d") || !strings.Contains(lines[2], "dependency") {
		t.Errorf("row = %q, want c.d installed as dependency", lines[2])
	}
}

func TestListCommand_Empty(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("store_root: "+t.TempDir()+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	a := newApp(strings.NewReader(""), &out, log.New(io.Discard))
	cmd := a.rootCmd()
	cmd.SetArgs([]string{"--config", cfgFile, "list"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := out.String(); got != "No packages installed\n" {
		t.Errorf("output = %q, want %q", got, "No packages installed\n")
	}
}

func writeConfig(t *testing.T, root, repo string) string {
	t.Helper()
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	body := "store_root: " + root + "\nlauncher_dir: " + filepath.Join(root, "bin") + "\nrepository: " + repo + "\n"
	if err := os.WriteFile(cfgFile, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgFile
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(strings.NewReader(""), &out, log.New(io.Discard))
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSetupCommand(t *testing.T) {
	root := filepath.Join(t.TempDir(), "PaxD")
	cfgFile := writeConfig(t, root, "optimised::https://repo.example.com/main/")

	out, err := run(t, "--config", cfgFile, "setup")
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if !strings.Contains(out, "Repository configured: https://repo.example.com/main\n") {
		t.Errorf("output = %q, want resolved repository", out)
	}
	for _, dir := range []string{root, filepath.Join(root, "bin")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

func TestSetupCommand_NoRepository(t *testing.T) {
	root := t.TempDir()
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	body := "store_root: " + root + "\nrepository_file: " + filepath.Join(root, "missing") + "\n"
	if err := os.WriteFile(cfgFile, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "--config", cfgFile, "setup"); !errors.Is(err, config.ErrNoRepository) {
		t.Errorf("err = %v, want ErrNoRepository", err)
	}
}

func TestFirstRun(t *testing.T) {
	root := t.TempDir()
	cfgFile := writeConfig(t, root, "https://repo.example.com")
	self := filepath.Join(root, config.SelfID)
	if err := os.MkdirAll(self, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(self, store.FirstRunMarker), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgFile, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.HasPrefix(out, "Welcome to PaxD Improved!") {
		t.Errorf("output = %q, want first-run setup first", out)
	}
	if _, err := os.Stat(filepath.Join(self, store.FirstRunMarker)); !os.IsNotExist(err) {
		t.Error("first-run marker not removed")
	}

	out, err = run(t, "--config", cfgFile, "list")
	if err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if strings.Contains(out, "Welcome") {
		t.Errorf("setup ran twice: %q", out)
	}
}

func TestSwitchbackCommand(t *testing.T) {
	root := t.TempDir()
	cfgFile := writeConfig(t, root, "https://repo.example.com")

	if _, err := run(t, "--config", cfgFile, "switchback"); !errors.Is(err, paxd.ErrNotInstalled) {
		t.Fatalf("err = %v, want ErrNotInstalled", err)
	}

	native := filepath.Join(root, installer.ProtectedID)
	if err := os.MkdirAll(native, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(native, installer.NativeEntry), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "--config", cfgFile, "switchback")
	if err != nil {
		t.Fatalf("switchback failed: %v", err)
	}
	if !strings.Contains(out, filepath.Join(root, "bin", installer.NativeAlias)) {
		t.Errorf("output = %q, want launcher path", out)
	}
}

package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/git-pkgs/paxd/internal/core"
	"github.com/git-pkgs/paxd/launcher"
	"github.com/git-pkgs/paxd/store"
)

const (
	// NativeEntry is the native client's script inside its package directory.
	NativeEntry = "paxd.py"
	// NativeAlias is the command name the native client is run as.
	NativeAlias = "paxd"
)

// Switchback points the paxd launcher in lr back at the native client
// installed in st, overwriting whatever it ran before. lr should run
// targets directly, without a package runner. It returns the launcher path.
func Switchback(st *store.Store, lr *launcher.Registrar) (string, error) {
	if !st.Exists(ProtectedID) {
		return "", fmt.Errorf("%w: %s", core.ErrNotInstalled, ProtectedID)
	}
	entry := filepath.Join(st.Path(ProtectedID), NativeEntry)
	if _, err := os.Stat(entry); err != nil {
		return "", fmt.Errorf("native client entry point: %w", err)
	}
	if err := lr.Write(NativeAlias, entry); err != nil {
		return "", err
	}
	return lr.Path(NativeAlias), nil
}

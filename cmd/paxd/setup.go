package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/paxd/config"
	"github.com/git-pkgs/paxd/installer"
	"github.com/git-pkgs/paxd/launcher"
	"github.com/git-pkgs/paxd/store"
)

func (a *app) setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the package store and check the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.setup(cfg)
		},
	}
}

func (a *app) setup(cfg *config.Config) error {
	if err := store.New(cfg.StoreRoot).Init(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.LauncherDir, 0o755); err != nil {
		return fmt.Errorf("creating launcher directory: %w", err)
	}

	repo := config.ResolveRepository(a.repository)
	if repo == "" {
		var err error
		if repo, err = cfg.RepositoryURL(); err != nil {
			return err
		}
	}
	a.printf("Repository configured: %s\n", repo)
	a.printf("Packages are installed under %s\n", cfg.StoreRoot)
	a.printf("Launchers are written to %s; add it to your PATH.\n\n", cfg.LauncherDir)
	a.printf("Try:\n  paxd search <term>\n  paxd list\n  paxd info <package>\n")
	return nil
}

// firstRun runs setup once after a fresh install of this client, which
// ships a first-run marker in its package directory.
func (a *app) firstRun() {
	cfg, err := a.loadConfig()
	if err != nil {
		return
	}
	first, err := store.New(cfg.StoreRoot).TakeFirstRun(config.SelfID)
	if err != nil {
		a.logger.Warn("first-run marker", "err", err)
		return
	}
	if !first {
		return
	}
	a.printf("Welcome to PaxD Improved!\n")
	if err := a.setup(cfg); err != nil {
		a.logger.Warn("setup incomplete", "err", err)
	}
}

func (a *app) switchbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switchback",
		Short: "Point the paxd command back at the native PaxD client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			path, err := installer.Switchback(
				store.New(cfg.StoreRoot),
				launcher.New(cfg.LauncherDir, cfg.Interpreter, ""),
			)
			if err != nil {
				return err
			}
			a.printf("paxd now runs the native client: %s\n", path)
			return nil
		},
	}
}

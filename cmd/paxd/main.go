// Command paxd installs, updates and removes PaxD packages.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	_ "github.com/git-pkgs/paxd/all"
)

var version = "1.0.0"

func main() {
	a := newApp(os.Stdin, os.Stdout, log.NewWithOptions(os.Stderr, log.Options{Prefix: "paxd"}))
	if err := a.rootCmd().Execute(); err != nil {
		a.logger.Error(err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paxd",
		Short: "Transactional package installer for PaxD repositories",
		Long: `paxd installs packages from a PaxD repository.

Installs are staged and only published once every file has been
downloaded and verified. Updates snapshot the installed package and
restore it if anything fails.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if a.verbose {
				a.logger.SetLevel(log.DebugLevel)
			}
			if cmd.Name() != "setup" {
				a.firstRun()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is <config dir>/paxd/config.yaml)")
	flags.StringVar(&a.repository, "repository", "", "repository location, overriding the repository file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log every step")
	flags.BoolVarP(&a.yes, "yes", "y", false, "answer yes to every prompt")

	root.AddCommand(
		a.installCmd(),
		a.updateCmd(),
		a.uninstallCmd(),
		a.listCmd(),
		a.searchCmd(),
		a.infoCmd(),
		a.setupCmd(),
		a.switchbackCmd(),
	)
	return root
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/paxd"
	"github.com/git-pkgs/paxd/installer"
	"github.com/git-pkgs/paxd/store"
)

// target resolves a command-line package argument, which may be a bare
// identifier or a pkg:paxd Package URL carrying its own repository.
func (a *app) target(arg string) (*installer.Installer, string, error) {
	ident, err := paxd.ParseIdentifier(arg)
	if err != nil {
		return nil, "", err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, "", err
	}
	in, err := a.installer(cfg, ident.Repository)
	if err != nil {
		return nil, "", err
	}
	if ident.Version != "" {
		a.logger.Warn("version pins are ignored; installing the latest manifest", "package", ident.ID, "requested", ident.Version)
	}
	return in, ident.ID, nil
}

func (a *app) installCmd() *cobra.Command {
	var skipChecksum bool

	cmd := &cobra.Command{
		Use:   "install <package>...",
		Short: "Install packages and their dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, arg := range args {
				in, id, err := a.target(arg)
				if err == nil {
					var res *installer.Result
					if res, err = in.Install(cmd.Context(), id, skipChecksum); err == nil {
						a.printResult("Installed", res)
						continue
					}
				}
				if errors.Is(err, paxd.ErrAlreadyInstalled) {
					a.printf("%s is already installed\n", arg)
					continue
				}
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&skipChecksum, "skip-checksum", false, "do not verify declared checksums")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var force, skipChecksum, all bool

	cmd := &cobra.Command{
		Use:   "update [package]...",
		Short: "Update installed packages to their latest versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				ids, err := a.userInstalled()
				if err != nil {
					return err
				}
				args = append(args, ids...)
			}
			if len(args) == 0 {
				return errors.New("name a package to update or pass --all")
			}

			var errs []error
			for _, arg := range args {
				in, id, err := a.target(arg)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				res, err := in.Update(cmd.Context(), id, force, skipChecksum)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if res.UpToDate {
					a.printf("%s is already up to date (%s)\n", res.ID, res.Version)
					continue
				}
				a.printResult("Updated", res)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "update even when the version is unchanged")
	cmd.Flags().BoolVar(&skipChecksum, "skip-checksum", false, "do not verify declared checksums")
	cmd.Flags().BoolVar(&all, "all", false, "update every user-installed package")
	return cmd
}

func (a *app) uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <package>...",
		Aliases: []string{"remove"},
		Short:   "Remove installed packages and their launchers",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, arg := range args {
				in, id, err := a.target(arg)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				aliases, err := in.Uninstall(cmd.Context(), id)
				if errors.Is(err, paxd.ErrCancelled) {
					a.printf("Kept %s\n", id)
					continue
				}
				if err != nil {
					errs = append(errs, err)
					continue
				}
				a.printf("Uninstalled %s\n", id)
				for _, alias := range aliases {
					a.printf("  removed launcher %s\n", alias)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func (a *app) userInstalled() ([]string, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	pkgs, err := store.New(cfg.StoreRoot).List()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range pkgs {
		if p.UserInstalled {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (a *app) listCmd() *cobra.Command {
	var purls bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			pkgs, err := store.New(cfg.StoreRoot).List()
			if err != nil {
				return err
			}
			if len(pkgs) == 0 {
				a.printf("No packages installed\n")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "PACKAGE\tVERSION\tINSTALLED BY")
			for _, p := range pkgs {
				by := "dependency"
				if p.UserInstalled {
					by = "user"
				}
				name := p.ID
				if purls {
					name = paxd.FormatPURL(p.ID, p.Version)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Version, by)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&purls, "purl", false, "show Package URLs instead of identifiers")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the repository index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			in, err := a.installer(cfg, "")
			if err != nil {
				return err
			}
			results, err := in.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				a.printf("No packages match %q\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "PACKAGE\tVERSION\tAUTHOR\tDESCRIPTION")
			for _, r := range results {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Version, r.Author, r.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many results")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <package>",
		Short: "Show a package's manifest and install status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, id, err := a.target(args[0])
			if err != nil {
				return err
			}
			info, err := in.Info(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.printInfo(info)
			return nil
		},
	}
}

func (a *app) printResult(verb string, res *installer.Result) {
	if res.PreviousVersion != "" && res.PreviousVersion != res.Version {
		a.printf("%s %s %s -> %s", verb, res.ID, res.PreviousVersion, res.Version)
	} else {
		a.printf("%s %s %s", verb, res.ID, res.Version)
	}
	a.printf(" (%d files from %s)\n", len(res.Files), res.Source)
	if len(res.Dependencies) > 0 {
		a.printf("  dependencies: %s\n", strings.Join(res.Dependencies, ", "))
	}
	if res.Launcher != "" {
		a.printf("  launcher: %s\n", res.Launcher)
	}
}

func (a *app) printInfo(info *installer.Info) {
	m := info.Manifest
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			_, _ = fmt.Fprintf(w, "%s:\t%s\n", k, v)
		}
	}
	row("Package", info.ID)
	row("Name", m.Info.Name)
	row("Author", m.Info.Author)
	row("Version", m.Info.Version)
	row("License", m.Info.License)
	row("Description", m.Info.Description)
	row("Tags", strings.Join(m.Info.Tags, ", "))
	row("Manifest", info.Source)
	row("PURL", info.PURL)

	deps := make([]string, len(m.Install.Depend))
	for i, d := range m.Install.Depend {
		deps[i] = d.String()
	}
	row("Dependencies", strings.Join(deps, ", "))

	status := "not installed"
	if info.Installed {
		status = "installed " + info.InstalledVersion
		if info.UpToDate {
			status += " (up to date)"
		} else {
			status += " (update available)"
		}
	}
	row("Status", status)
	_ = w.Flush()
}

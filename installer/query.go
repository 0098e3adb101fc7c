package installer

import (
	"context"

	"github.com/git-pkgs/paxd/internal/core"
	"github.com/git-pkgs/paxd/store"
)

// Uninstall removes an installed package and every launcher that runs a
// file inside it. It returns the removed launcher aliases.
func (in *Installer) Uninstall(ctx context.Context, id string) ([]string, error) {
	if id == ProtectedID {
		return nil, &core.ProtectedError{Op: "uninstalled", Package: id}
	}
	if _, err := in.store.Read(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !in.policy.ConfirmUninstall(id) {
		in.report(core.Event{Kind: core.EventCancelled, Package: id, Message: "uninstall declined"})
		return nil, core.ErrCancelled
	}

	aliases, err := in.launchers.RemoveTargetsUnder(in.store.Path(id))
	for _, alias := range aliases {
		in.report(core.Event{Kind: core.EventLauncherRemoved, Package: id, File: in.launchers.Path(alias)})
	}
	if err != nil {
		in.report(core.Event{Kind: core.EventCleanupFailed, Package: id, Err: err})
	}

	if err := in.store.Remove(id); err != nil {
		return aliases, err
	}
	in.report(core.Event{Kind: core.EventUninstalled, Package: id})
	return aliases, nil
}

// Listed is an installed package as shown by List.
type Listed struct {
	store.InstalledPackage
	PURL string
}

// List returns the installed packages sorted by identifier.
func (in *Installer) List() ([]Listed, error) {
	pkgs, err := in.store.List()
	if err != nil {
		return nil, err
	}
	out := make([]Listed, len(pkgs))
	for i, p := range pkgs {
		out[i] = Listed{InstalledPackage: p, PURL: core.FormatPURL(p.ID, p.Version)}
	}
	return out, nil
}

// Info describes a package in the repository and its local state.
type Info struct {
	ID       string
	Manifest *core.Manifest
	Source   string
	PURL     string

	Installed        bool
	InstalledVersion string
	UserInstalled    bool
	UpToDate         bool
}

// Info resolves the latest manifest for id and compares it with the
// installed copy, if any.
func (in *Installer) Info(ctx context.Context, id string) (*Info, error) {
	m, err := in.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	info := &Info{
		ID:       id,
		Manifest: m,
		Source:   m.Source,
		PURL:     core.FormatPURL(id, m.Info.Version),
	}
	if pkg, err := in.store.Read(id); err == nil {
		info.Installed = true
		info.InstalledVersion = pkg.Version
		info.UserInstalled = pkg.UserInstalled
		info.UpToDate = pkg.Version == m.Info.Version
	}
	return info, nil
}

// Search matches term against the repository search index.
func (in *Installer) Search(ctx context.Context, term string, limit int) ([]core.SearchEntry, error) {
	return in.resolver.Search(ctx, term, limit)
}

package installer

import (
	"context"
	"fmt"

	"github.com/git-pkgs/paxd/internal/core"
	"github.com/git-pkgs/paxd/store"
)

// Update brings an installed package to the latest manifest version. The
// live directory is snapshotted first; any failure puts the snapshot back
// so the package is left exactly as it was. When the installed version
// already matches and force is false nothing is downloaded.
func (in *Installer) Update(ctx context.Context, id string, force, skipChecksum bool) (*Result, error) {
	if id == ProtectedID {
		if !in.redirectProtected {
			return nil, &core.ProtectedError{Op: "updated", Package: id}
		}
		id = SelfID
	}
	if err := core.CheckPackageID(id); err != nil {
		return nil, err
	}

	res, err := in.update(ctx, id, force, skipChecksum)
	return res, txError("update", id, err)
}

func (in *Installer) update(ctx context.Context, id string, force, skipChecksum bool) (*Result, error) {
	current, err := in.store.Read(id)
	if err != nil {
		return nil, err
	}
	if err := in.resolver.Probe(ctx); err != nil {
		return nil, err
	}
	m, err := in.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:              id,
		Version:         m.Info.Version,
		PreviousVersion: current.Version,
		Source:          m.Source,
		Manifest:        m,
	}
	if m.Info.Version == current.Version && !force {
		res.UpToDate = true
		in.report(core.Event{Kind: core.EventUpToDate, Package: id, Message: current.Version})
		return res, nil
	}

	// id is already installed, so a dependency that points back at it is
	// skipped rather than treated as a cycle.
	r := in.newRun(skipChecksum)
	if err := r.dependencies(ctx, id, m); err != nil {
		return nil, err
	}
	res.Dependencies = r.installed

	backup, err := in.store.Snapshot(id)
	if err != nil {
		return nil, err
	}
	in.report(core.Event{Kind: core.EventBackup, Package: id, File: backup})

	live := in.store.Path(id)
	files, err := r.transferAll(ctx, id, m, live)
	if err == nil {
		res.Files = files
		if err = store.WriteVersion(live, m.Info.Version); err != nil {
			err = fmt.Errorf("writing version marker: %w", err)
		}
	}
	if err == nil {
		res.Launcher, _, err = in.registerLauncher(ctx, id, m, live)
	}
	if err != nil {
		in.restore(id)
		return nil, err
	}

	if err := in.store.DiscardBackup(id); err != nil {
		in.report(core.Event{Kind: core.EventCleanupFailed, Package: id, File: backup, Err: err})
	}
	in.report(core.Event{Kind: core.EventUpdated, Package: id, Message: m.Info.Version})
	return res, nil
}

// restore puts the snapshot back after a failed update. If that fails
// the backup is kept so nothing is lost.
func (in *Installer) restore(id string) {
	if err := in.store.Restore(id); err != nil {
		in.report(core.Event{Kind: core.EventCleanupFailed, Package: id, File: in.store.BackupPath(id), Err: err})
		return
	}
	in.report(core.Event{Kind: core.EventRestore, Package: id})
}

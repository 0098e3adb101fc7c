package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/git-pkgs/paxd/client"
	"github.com/git-pkgs/paxd/fetch"
	"github.com/git-pkgs/paxd/internal/core"
	"github.com/git-pkgs/paxd/launcher"
	"github.com/git-pkgs/paxd/store"
)

// run carries the state of one top-level request across dependency
// recursion.
type run struct {
	in           *Installer
	skipChecksum bool

	inProgress map[string]bool
	stack      []string
	installed  []string // dependencies installed so far, in completion order
}

func (in *Installer) newRun(skipChecksum bool) *run {
	return &run{
		in:           in,
		skipChecksum: skipChecksum,
		inProgress:   make(map[string]bool),
	}
}

// Install installs a package and its dependencies. The package is built in
// a staging directory and published only after every file, its launcher
// and its markers are in place; a failed install leaves the store as it
// was. Reinstalling asks the policy for confirmation first.
func (in *Installer) Install(ctx context.Context, id string, skipChecksum bool) (*Result, error) {
	if id == ProtectedID {
		return nil, &core.ProtectedError{Op: "installed", Package: id}
	}
	if err := core.CheckPackageID(id); err != nil {
		return nil, err
	}
	if err := in.resolver.Probe(ctx); err != nil {
		return nil, txError("install", id, err)
	}

	r := in.newRun(skipChecksum)
	res, err := r.install(ctx, id, true)
	if err != nil {
		return nil, err
	}
	res.Dependencies = r.installed
	return res, nil
}

func (r *run) install(ctx context.Context, id string, user bool) (*Result, error) {
	if r.inProgress[id] {
		start := slices.Index(r.stack, id)
		path := append(slices.Clone(r.stack[start:]), id)
		return nil, txError("install", id, &core.CycleError{Path: path})
	}
	if id == ProtectedID {
		return nil, txError("install", id, &core.ProtectedError{Op: "installed", Package: id})
	}

	r.inProgress[id] = true
	r.stack = append(r.stack, id)
	defer func() {
		delete(r.inProgress, id)
		r.stack = r.stack[:len(r.stack)-1]
	}()

	res, err := r.installOne(ctx, id, user)
	return res, txError("install", id, err)
}

func (r *run) installOne(ctx context.Context, id string, user bool) (*Result, error) {
	in := r.in
	res := &Result{ID: id}

	if prev, err := in.store.Read(id); err == nil {
		if !in.policy.ConfirmReinstall(id) {
			in.report(core.Event{Kind: core.EventCancelled, Package: id, Message: "reinstall declined"})
			if user && !prev.UserInstalled {
				// Asking for a dependency by name makes it a user install.
				if err := in.store.MarkUser(id); err != nil {
					in.report(core.Event{Kind: core.EventCleanupFailed, Package: id, File: store.UserMarker, Err: err})
				}
			}
			return nil, core.ErrAlreadyInstalled
		}
		res.PreviousVersion = prev.Version
	}

	m, err := in.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Manifest = m
	res.Version = m.Info.Version
	res.Source = m.Source

	if err := r.dependencies(ctx, id, m); err != nil {
		return nil, err
	}

	staging, err := in.store.PrepareStaging(id)
	if err != nil {
		return nil, err
	}
	published := false
	defer func() {
		if !published {
			in.discard(id, staging)
		}
	}()

	files, err := r.transferAll(ctx, id, m, staging)
	if err != nil {
		return nil, err
	}
	res.Files = files

	shim, outcome, err := in.registerLauncher(ctx, id, m, in.store.Path(id))
	if err != nil {
		return nil, err
	}
	res.Launcher = shim

	if err := store.WriteMarkers(staging, m.Info.Version, user); err != nil {
		in.dropLauncher(id, m, outcome)
		return nil, fmt.Errorf("writing markers: %w", err)
	}
	if err := in.store.Publish(id, staging); err != nil {
		in.dropLauncher(id, m, outcome)
		return nil, err
	}
	published = true

	in.report(core.Event{Kind: core.EventInstalled, Package: id, Message: m.Info.Version})
	return res, nil
}

// dependencies installs the manifest's dependencies in declaration order.
// External installer failures are reported and otherwise ignored.
func (r *run) dependencies(ctx context.Context, id string, m *core.Manifest) error {
	in := r.in
	for _, dep := range m.Install.Depend {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch dep.Kind {
		case core.External:
			if err := in.installExternal(ctx, id, dep.Ref); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				in.report(core.Event{Kind: core.EventExternalFailed, Package: id, Message: dep.Ref, Err: err})
			}
		case core.Internal:
			if !r.inProgress[dep.Ref] && in.store.Exists(dep.Ref) {
				continue
			}
			in.report(core.Event{Kind: core.EventDependency, Package: id, Message: dep.Ref})
			if _, err := r.install(ctx, dep.Ref, false); err != nil {
				return err
			}
			r.installed = append(r.installed, dep.Ref)
		}
	}
	return nil
}

func (in *Installer) installExternal(ctx context.Context, id, ref string) error {
	if in.index != nil {
		err := in.index.Check(ctx, ref)
		switch {
		case err == nil:
		case errors.Is(err, client.ErrNotFound), ctx.Err() != nil:
			return err
		default:
			// The index being unreachable does not block pip.
			in.report(core.Event{Kind: core.EventExternalFailed, Package: id, Message: ref + ": index check failed", Err: err})
		}
	}
	in.report(core.Event{Kind: core.EventExternalDependency, Package: id, Message: ref})
	return in.external.Install(ctx, ref)
}

// transferAll downloads every include entry into dir, in manifest order.
// On failure the files written so far are deleted again.
func (r *run) transferAll(ctx context.Context, id string, m *core.Manifest, dir string) ([]string, error) {
	in := r.in
	jobs, err := in.jobs.Resolve(id, m, dir)
	if err != nil {
		return nil, err
	}

	var done []fetch.FileJob
	for _, job := range jobs {
		err := ctx.Err()
		if err == nil {
			err = os.MkdirAll(filepath.Dir(job.Path), 0o755)
		}
		if err == nil {
			err = in.transfer.Transfer(ctx, job.URL, job.Path, job.Checksum, r.skipChecksum)
		}
		if err != nil {
			in.rollback(id, done)
			return nil, err
		}
		in.report(core.Event{Kind: core.EventFileTransferred, Package: id, File: job.Rel})
		done = append(done, job)
	}

	files := make([]string, len(done))
	for i, job := range done {
		files[i] = job.Rel
	}
	return files, nil
}

func (in *Installer) rollback(id string, done []fetch.FileJob) {
	for i := len(done) - 1; i >= 0; i-- {
		path := done[i].Path
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			in.report(core.Event{Kind: core.EventCleanupFailed, Package: id, File: path, Err: err})
			continue
		}
		in.report(core.Event{Kind: core.EventRollback, Package: id, File: done[i].Rel})
	}
}

func (in *Installer) discard(id, staging string) {
	if err := os.RemoveAll(staging); err != nil {
		in.report(core.Event{Kind: core.EventCleanupFailed, Package: id, File: staging, Err: err})
	}
}

// registerLauncher points the manifest's alias at its mainfile inside
// pkgDir. A launcher that already runs something inside pkgDir belongs to
// an earlier install of the same package and is overwritten silently;
// any other conflict goes to the policy.
func (in *Installer) registerLauncher(ctx context.Context, id string, m *core.Manifest, pkgDir string) (string, launcher.Outcome, error) {
	alias := m.LauncherAlias()
	if alias == "" {
		return "", launcher.Unchanged, nil
	}
	target := filepath.Join(pkgDir, filepath.FromSlash(strings.ReplaceAll(m.Install.MainFile, `\`, "/")))

	for {
		if err := ctx.Err(); err != nil {
			return "", launcher.Unchanged, err
		}
		outcome, err := in.launchers.Register(alias, target)
		if err == nil {
			in.report(core.Event{Kind: core.EventLauncherRegistered, Package: id, File: in.launchers.Path(alias)})
			return in.launchers.Path(alias), outcome, nil
		}
		var conflict *launcher.ConflictError
		if !errors.As(err, &conflict) {
			return "", launcher.Unchanged, err
		}

		resolution := launcher.Replace
		if conflict.ExistingTarget == "" || !launcher.Within(pkgDir, conflict.ExistingTarget) {
			resolution = in.policy.ResolveLauncherConflict(conflict)
		}
		switch resolution {
		case launcher.Replace:
			if err := in.launchers.Write(alias, target); err != nil {
				return "", launcher.Unchanged, err
			}
			in.report(core.Event{Kind: core.EventLauncherRegistered, Package: id, File: conflict.Path})
			// Replaced launchers are not ours to remove on rollback.
			return conflict.Path, launcher.Unchanged, nil
		case launcher.Manual:
			if err := in.policy.AwaitManualResolution(ctx, conflict); err != nil {
				return "", launcher.Unchanged, err
			}
		default:
			in.report(core.Event{Kind: core.EventCancelled, Package: id, Message: conflict.Error()})
			return "", launcher.Unchanged, fmt.Errorf("%w: %w", core.ErrCancelled, conflict)
		}
	}
}

// dropLauncher removes a launcher created by this install when the install
// fails after registering it.
func (in *Installer) dropLauncher(id string, m *core.Manifest, outcome launcher.Outcome) {
	alias := m.LauncherAlias()
	if alias == "" || outcome != launcher.Created {
		return
	}
	if err := in.launchers.Remove(alias); err != nil {
		in.report(core.Event{Kind: core.EventCleanupFailed, Package: id, File: in.launchers.Path(alias), Err: err})
		return
	}
	in.report(core.Event{Kind: core.EventLauncherRemoved, Package: id, File: in.launchers.Path(alias)})
}

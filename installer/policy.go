package installer

import (
	"context"

	"github.com/git-pkgs/paxd/launcher"
)

// Policy answers the questions a transaction would otherwise ask
// interactively. Implementations may block, for example on a prompt.
type Policy interface {
	// ConfirmReinstall is asked before reinstalling an installed package.
	ConfirmReinstall(id string) bool

	// ResolveLauncherConflict chooses what to do when an alias is taken.
	ResolveLauncherConflict(conflict *launcher.ConflictError) launcher.Resolution

	// AwaitManualResolution blocks until the user has dealt with the
	// conflict outside the process. A non-nil error aborts the operation.
	AwaitManualResolution(ctx context.Context, conflict *launcher.ConflictError) error

	// ConfirmUninstall is asked before removing a package.
	ConfirmUninstall(id string) bool
}

// AutoPolicy answers every question with fixed values. The zero value
// declines reinstalls and uninstalls but overwrites a conflicting
// launcher, since Replace is the zero Resolution. Set Conflict to Cancel
// to keep foreign launchers untouched. Manual behaves like Cancel.
type AutoPolicy struct {
	Reinstall bool
	Conflict  launcher.Resolution
	Uninstall bool
}

func (p AutoPolicy) ConfirmReinstall(string) bool { return p.Reinstall }

func (p AutoPolicy) ResolveLauncherConflict(*launcher.ConflictError) launcher.Resolution {
	if p.Conflict == launcher.Manual {
		// Nobody is there to resolve it.
		return launcher.Cancel
	}
	return p.Conflict
}

func (p AutoPolicy) AwaitManualResolution(context.Context, *launcher.ConflictError) error {
	return nil
}

func (p AutoPolicy) ConfirmUninstall(string) bool { return p.Uninstall }

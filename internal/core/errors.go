package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRepositoryUnreachable = errors.New("repository unreachable")
	ErrManifestNotFound      = errors.New("manifest not found")
	ErrManifestInvalid       = errors.New("manifest invalid")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrTransferFailed        = errors.New("transfer failed")
	ErrAlreadyInstalled      = errors.New("package already installed")
	ErrNotInstalled          = errors.New("package not installed")
	ErrLauncherConflict      = errors.New("launcher conflict")
	ErrProtectedPackage      = errors.New("protected package")
	ErrCyclicDependency      = errors.New("cyclic dependency")
	ErrInvalidPackageID      = errors.New("invalid package identifier")
	ErrCancelled             = errors.New("operation cancelled")
)

// SourceError records why a single manifest source could not be used.
type SourceError struct {
	Source string
	URL    string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ResolveError is returned when no manifest source resolved.
type ResolveError struct {
	Package  string
	Attempts []*SourceError
}

func (e *ResolveError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("manifest for %s not found: no sources registered", e.Package)
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("manifest for %s not found (%s)", e.Package, strings.Join(parts, "; "))
}

func (e *ResolveError) Unwrap() []error {
	errs := []error{ErrManifestNotFound}
	for _, a := range e.Attempts {
		errs = append(errs, a)
	}
	return errs
}

// MissingFieldError is returned when a required manifest field is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrManifestInvalid
}

// InvalidPathError is returned for manifest paths that would escape the
// package directory.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) Unwrap() error {
	return ErrManifestInvalid
}

// ProtectedError refuses an operation on the native client's own package.
type ProtectedError struct {
	Op      string
	Package string
}

func (e *ProtectedError) Error() string {
	return fmt.Sprintf("%s is the native PaxD client and cannot be %s through PaxD Improved; use paxd itself to manage it", e.Package, e.Op)
}

func (e *ProtectedError) Unwrap() error {
	return ErrProtectedPackage
}

// CycleError is returned when internal dependencies form a cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

// TransactionError is the single failure surfaced by an install or update.
type TransactionError struct {
	Op      string
	Package string
	Err     error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Cause returns the innermost error, skipping nested transaction errors
// from dependency installs.
func (e *TransactionError) Cause() error {
	err := e.Err
	var inner *TransactionError
	for errors.As(err, &inner) {
		err = inner.Err
	}
	return err
}

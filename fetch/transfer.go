package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/git-pkgs/paxd/internal/core"
)

// TransferError is returned when a file could not be downloaded or published.
type TransferError struct {
	URL  string
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transferring %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *TransferError) Unwrap() []error {
	return []error{core.ErrTransferFailed, e.Err}
}

// StagingSuffix is appended to a final path while its download is in flight.
const StagingSuffix = ".tmp"

// Transfer downloads single files to a staging path and renames them into
// place once they are complete and verified.
type Transfer struct {
	fetcher  FetcherInterface
	verifier *Verifier
	reporter core.Reporter
}

// TransferOption configures a Transfer.
type TransferOption func(*Transfer)

// WithTransferReporter sets where download failures are reported.
func WithTransferReporter(r core.Reporter) TransferOption {
	return func(t *Transfer) {
		t.reporter = r
	}
}

// NewTransfer creates a Transfer. A nil verifier uses NewVerifier().
func NewTransfer(f FetcherInterface, v *Verifier, opts ...TransferOption) *Transfer {
	if v == nil {
		v = NewVerifier()
	}
	t := &Transfer{fetcher: f, verifier: v, reporter: core.NopReporter{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transfer fetches url into finalPath. When checksum is non-empty and
// skipVerify is false the staged file must match it. On any failure the
// staged file is removed and finalPath is left as it was. The rename is
// the last disk mutation.
func (t *Transfer) Transfer(ctx context.Context, url, finalPath, checksum string, skipVerify bool) error {
	staged := finalPath + StagingSuffix

	if err := t.download(ctx, url, staged); err != nil {
		t.discard(staged)
		t.reporter.Report(core.Event{Kind: core.EventTransferFailed, File: finalPath, Err: err})
		return &TransferError{URL: url, Path: finalPath, Err: err}
	}

	if checksum != "" && !skipVerify {
		if err := t.verifier.Check(ctx, staged, checksum); err != nil {
			t.discard(staged)
			var sumErr *ChecksumError
			if errors.As(err, &sumErr) {
				sumErr.File = finalPath
			}
			return err
		}
	}

	if err := os.Remove(finalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.discard(staged)
		return &TransferError{URL: url, Path: finalPath, Err: err}
	}
	if err := os.Rename(staged, finalPath); err != nil {
		t.discard(staged)
		return &TransferError{URL: url, Path: finalPath, Err: err}
	}
	return nil
}

func (t *Transfer) download(ctx context.Context, url, staged string) error {
	artifact, err := t.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = artifact.Body.Close() }()

	f, err := os.OpenFile(staged, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	n, err := io.Copy(f, artifact.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if artifact.Size >= 0 && n != artifact.Size {
		return fmt.Errorf("short download: got %d of %d bytes", n, artifact.Size)
	}
	return nil
}

func (t *Transfer) discard(staged string) {
	if err := os.Remove(staged); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.reporter.Report(core.Event{Kind: core.EventCleanupFailed, File: staged, Err: err})
	}
}

package fetch

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha3"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cenk/backoff"
	"github.com/git-pkgs/paxd/internal/core"
)

// ChecksumError is returned when a file never matched its declared digest.
type ChecksumError struct {
	File      string
	Algorithm string
	Expected  string
	Got       string // empty when the digest could not be computed
	Attempts  int
	Err       error // last hashing failure, if any
}

func (e *ChecksumError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checksum of %s failed after %d attempts: %v", e.File, e.Attempts, e.Err)
	}
	return fmt.Sprintf("checksum mismatch for %s after %d attempts: expected %s:%s, got %s", e.File, e.Attempts, e.Algorithm, e.Expected, e.Got)
}

func (e *ChecksumError) Unwrap() error {
	return core.ErrChecksumMismatch
}

var hashes = map[string]func() hash.Hash{
	"md5":      md5.New,
	"sha1":     sha1.New,
	"sha224":   sha256.New224,
	"sha256":   sha256.New,
	"sha384":   sha512.New384,
	"sha512":   sha512.New,
	"sha3_224": func() hash.Hash { return sha3.New224() },
	"sha3_256": func() hash.Hash { return sha3.New256() },
	"sha3_384": func() hash.Hash { return sha3.New384() },
	"sha3_512": func() hash.Hash { return sha3.New512() },
}

// SupportedAlgorithm reports whether algo can be verified.
func SupportedAlgorithm(algo string) bool {
	_, ok := hashes[normalizeAlgorithm(algo)]
	return ok
}

// normalizeAlgorithm maps spellings like SHA-256 and sha3-256 onto the
// keys of hashes.
func normalizeAlgorithm(algo string) string {
	algo = strings.ToLower(strings.TrimSpace(algo))
	if strings.HasPrefix(algo, "sha3") {
		return strings.ReplaceAll(algo, "-", "_")
	}
	return strings.NewReplacer("-", "", "_", "").Replace(algo)
}

// FileDigest streams path through algo and returns the hex digest.
func FileDigest(path, algo string) (string, error) {
	newHash, ok := hashes[normalizeAlgorithm(algo)]
	if !ok {
		return "", fmt.Errorf("unsupported checksum algorithm %q", algo)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verifier compares a file against an "algorithm:hex" checksum, retrying
// with exponential backoff between attempts.
type Verifier struct {
	attempts int
	initial  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	reporter core.Reporter
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithAttempts sets the total number of attempts. Defaults to 4.
func WithAttempts(n int) VerifierOption {
	return func(v *Verifier) {
		if n > 0 {
			v.attempts = n
		}
	}
}

// WithInitialWait sets the wait after the first failed attempt. Each later
// wait doubles. Defaults to 500ms.
func WithInitialWait(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.initial = d
	}
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) VerifierOption {
	return func(v *Verifier) {
		v.sleep = fn
	}
}

// WithVerifierReporter sets where failed attempts are reported.
func WithVerifierReporter(r core.Reporter) VerifierOption {
	return func(v *Verifier) {
		v.reporter = r
	}
}

// NewVerifier creates a Verifier: 4 attempts, waits of 0.5s, 1s and 2s.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		attempts: 4,
		initial:  500 * time.Millisecond,
		sleep:    sleepContext,
		reporter: core.NopReporter{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Verify reports whether path matches expected. It never fails: an
// unreadable file or unknown algorithm counts as a mismatch.
func (v *Verifier) Verify(ctx context.Context, path, expected string) bool {
	return v.Check(ctx, path, expected) == nil
}

// Check is Verify with the reason for failure. It returns a *ChecksumError
// after the last attempt, or the context error if cancelled while waiting.
func (v *Verifier) Check(ctx context.Context, path, expected string) error {
	algo, want, _ := strings.Cut(expected, ":")
	want = strings.TrimSpace(want)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = v.initial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = v.initial << uint(v.attempts)
	b.MaxElapsedTime = 0
	b.Reset()

	result := &ChecksumError{File: path, Algorithm: algo, Expected: want, Attempts: v.attempts}
	for attempt := 0; attempt < v.attempts; attempt++ {
		got, err := FileDigest(path, algo)
		if err == nil && want != "" && strings.EqualFold(got, want) {
			return nil
		}
		result.Got, result.Err = got, err

		v.reporter.Report(core.Event{
			Kind:     core.EventChecksumRetry,
			File:     path,
			Attempt:  attempt,
			Expected: expected,
			Got:      got,
			Err:      err,
		})

		if attempt == v.attempts-1 {
			break
		}
		if err := v.sleep(ctx, b.NextBackOff()); err != nil {
			return err
		}
	}

	v.reporter.Report(core.Event{
		Kind:     core.EventChecksumFailed,
		File:     path,
		Attempt:  v.attempts,
		Expected: expected,
		Got:      result.Got,
		Err:      result.Err,
	})
	return result
}

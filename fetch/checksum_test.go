package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/git-pkgs/paxd/internal/core"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

type recordingSleep struct {
	waits []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestVerify_Match(t *testing.T) {
	path := writeFile(t, "hello")
	rec := &recordingSleep{}
	v := NewVerifier(WithSleep(rec.sleep))

	if !v.Verify(context.Background(), path, "sha256:"+sha256Hex("hello")) {
		t.Error("Verify = false, want true")
	}
	if len(rec.waits) != 0 {
		t.Errorf("waits = %v, want none", rec.waits)
	}
}

func TestVerify_CaseInsensitiveDigest(t *testing.T) {
	path := writeFile(t, "hello")
	upper := "SHA256:" + hexUpper(sha256Hex("hello"))
	if !NewVerifier().Verify(context.Background(), path, upper) {
		t.Error("Verify = false for upper-case digest")
	}
}

func hexUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func TestVerify_RetrySchedule(t *testing.T) {
	path := writeFile(t, "hello")
	rec := &recordingSleep{}

	var attempts []int
	rep := core.ReporterFunc(func(e core.Event) {
		if e.Kind == core.EventChecksumRetry {
			attempts = append(attempts, e.Attempt)
			if e.Got != sha256Hex("hello") {
				t.Errorf("reported Got = %q", e.Got)
			}
		}
	})

	v := NewVerifier(WithSleep(rec.sleep), WithVerifierReporter(rep))
	if v.Verify(context.Background(), path, "sha256:deadbeef") {
		t.Fatal("Verify = true, want false")
	}

	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	if len(rec.waits) != len(want) {
		t.Fatalf("waits = %v, want %v", rec.waits, want)
	}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, rec.waits[i], want[i])
		}
	}
	if len(attempts) != 4 || attempts[0] != 0 || attempts[3] != 3 {
		t.Errorf("reported attempts = %v, want [0 1 2 3]", attempts)
	}
}

func TestCheck_Errors(t *testing.T) {
	path := writeFile(t, "hello")
	quick := WithSleep(func(context.Context, time.Duration) error { return nil })

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"mismatch", path, "sha256:00"},
		{"unknown algorithm", path, "crc32:" + sha256Hex("hello")},
		{"no separator", path, sha256Hex("hello")},
		{"empty digest", path, "sha256:"},
		{"missing file", filepath.Join(t.TempDir(), "nope"), "sha256:" + sha256Hex("hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewVerifier(quick).Check(context.Background(), tt.path, tt.expected)
			if !errors.Is(err, core.ErrChecksumMismatch) {
				t.Fatalf("Check = %v, want ErrChecksumMismatch", err)
			}
			var sumErr *ChecksumError
			if !errors.As(err, &sumErr) || sumErr.Attempts != 4 {
				t.Errorf("expected *ChecksumError with 4 attempts, got %v", err)
			}
		})
	}
}

func TestCheck_ContextCancelledDuringWait(t *testing.T) {
	path := writeFile(t, "hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewVerifier(WithInitialWait(time.Hour)).Check(ctx, path, "sha256:00")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Check = %v, want context.Canceled", err)
	}
}

func TestFileDigest(t *testing.T) {
	path := writeFile(t, "abc")
	tests := []struct {
		algo string
		want string
	}{
		{"md5", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha1", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA-256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA_256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA-1", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha3_256", "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
		{"SHA3-256", "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
	}
	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			got, err := FileDigest(path, tt.algo)
			if err != nil {
				t.Fatalf("FileDigest failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("FileDigest = %s, want %s", got, tt.want)
			}
		})
	}

	if SupportedAlgorithm("whirlpool") {
		t.Error("SupportedAlgorithm(whirlpool) = true")
	}
}

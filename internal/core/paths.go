package core

import (
	"fmt"
	"path"
	"strings"
)

// InvalidIDError describes a rejected package identifier.
type InvalidIDError struct {
	ID     string
	Reason string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid package identifier %q: %s", e.ID, e.Reason)
}

func (e *InvalidIDError) Unwrap() error {
	return ErrInvalidPackageID
}

// CheckPackageID reports whether id can name a directory in the package
// store: a single non-hidden path element.
func CheckPackageID(id string) error {
	var reason string
	switch {
	case id == "":
		reason = "empty"
	case strings.ContainsAny(id, `/\:`):
		reason = "contains a path separator"
	case strings.HasPrefix(id, "."):
		reason = "starts with a dot"
	case strings.TrimSpace(id) != id:
		reason = "surrounded by whitespace"
	default:
		return nil
	}
	return &InvalidIDError{ID: id, Reason: reason}
}

// CheckRelativePath reports whether p is a relative path that stays inside
// the directory it is joined to.
func CheckRelativePath(p string) error {
	if p == "" {
		return &InvalidPathError{Path: p, Reason: "empty"}
	}
	slashed := strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(slashed, "/") || (len(slashed) > 1 && slashed[1] == ':') {
		return &InvalidPathError{Path: p, Reason: "must be relative"}
	}
	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return &InvalidPathError{Path: p, Reason: "escapes the package directory"}
	}
	return nil
}

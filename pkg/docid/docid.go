// Package docid defines the canonical document identity used as the sole
// key for view-mode lookups.
package docid

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SchemeFile marks identities backed by a filesystem resource. Only these
// can be existence-probed; identities with any other scheme (untitled
// buffers, virtual documents) are assumed live.
const SchemeFile = "file"

// Identity is an opaque canonical locator for a document. Two identities
// are equal iff their canonical string forms are equal. The zero value is
// invalid.
type Identity struct {
	raw    string
	scheme string
	path   string
}

// Parse interprets a raw locator string as an Identity. The string must be
// a valid URI with a scheme; anything else is an error, which the
// reconciler treats as a definitively stale key.
func Parse(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, fmt.Errorf("empty document identity")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("unparsable document identity %q: %w", raw, err)
	}
	if u.Scheme == "" {
		return Identity{}, fmt.Errorf("document identity %q has no scheme", raw)
	}
	p := u.Path
	if u.Opaque != "" {
		p = u.Opaque
	}
	return Identity{raw: raw, scheme: u.Scheme, path: p}, nil
}

// FromPath builds a canonical file identity from a local filesystem path.
func FromPath(path string) (Identity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Identity{}, fmt.Errorf("cannot canonicalize path %q: %w", path, err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	raw := SchemeFile + "://" + abs
	return Identity{raw: raw, scheme: SchemeFile, path: abs}, nil
}

// String returns the canonical string form.
func (id Identity) String() string { return id.raw }

// Scheme returns the identity's URI scheme.
func (id Identity) Scheme() string { return id.scheme }

// IsZero reports whether the identity is the invalid zero value.
func (id Identity) IsZero() bool { return id.raw == "" }

// IsFileBacked reports whether the identity refers to a filesystem
// resource whose existence can be verified.
func (id Identity) IsFileBacked() bool { return id.scheme == SchemeFile }

// Filepath returns the host filesystem path for file-backed identities,
// and the empty string otherwise.
func (id Identity) Filepath() string {
	if !id.IsFileBacked() {
		return ""
	}
	return filepath.FromSlash(id.path)
}

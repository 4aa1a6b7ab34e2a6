// Package store provides the durable key-value mirror of per-document view
// modes, plus the key naming convention shared by all backends.
package store

import (
	"strings"

	"viewstate/pkg/docid"
)

// Store is the durable key-value capability the tracker persists into.
// Implementations must be read-after-write consistent within a process.
// ListKeys returns every key in the store regardless of namespace; callers
// filter with the helpers below.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
	Delete(key string) error
	ListKeys() ([]string, error)
}

// ModePrefix namespaces view-mode entries inside a store shared with other
// subsystems. The full key is the prefix followed by the canonical
// identity string; the value is a mode wire literal.
const ModePrefix = "viewstate.mode."

// ModeKey builds the durable key for a document identity.
func ModeKey(id docid.Identity) string {
	return ModePrefix + id.String()
}

// RawIdentity strips the namespace prefix from a durable key, returning
// the raw identity string. The second return is false for keys outside
// this package's namespace.
func RawIdentity(key string) (string, bool) {
	if !strings.HasPrefix(key, ModePrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, ModePrefix), true
}

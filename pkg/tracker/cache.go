package tracker

import (
	gocache "github.com/patrickmn/go-cache"

	"viewstate/pkg/docid"
	"viewstate/pkg/mode"
)

// Cache is the in-memory identity-to-mode mapping. It is authoritative for
// the running session; entries never expire and are only removed by the
// reconciler.
type Cache struct {
	c *gocache.Cache
}

// NewCache creates an empty mode cache.
func NewCache() *Cache {
	// No expiration and no janitor: entries live for the process lifetime.
	return &Cache{c: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the cached mode for an identity, if present.
func (mc *Cache) Get(id docid.Identity) (mode.Mode, bool) {
	v, ok := mc.c.Get(id.String())
	if !ok {
		return mode.ModeSource, false
	}
	m, ok := v.(mode.Mode)
	return m, ok
}

// Set records the mode for an identity, replacing any previous entry.
func (mc *Cache) Set(id docid.Identity, m mode.Mode) {
	mc.c.Set(id.String(), m, gocache.NoExpiration)
}

// Delete removes the entry for an identity, if present.
func (mc *Cache) Delete(id docid.Identity) {
	mc.c.Delete(id.String())
}

// Len returns the number of cached entries.
func (mc *Cache) Len() int {
	return mc.c.ItemCount()
}

package tracker

import (
	"context"

	"viewstate/pkg/docid"
	"viewstate/pkg/store"
)

// Cleanup scans the durable store for mode entries whose backing resource
// no longer exists and deletes them, returning the number removed.
//
// Only entries in this subsystem's namespace are considered. An entry is
// removed when its key does not parse as an identity, or when it is
// file-backed and the probe cannot confirm the file exists. Entries for
// non-file-backed identities (untitled buffers, virtual documents) are
// never removed: they cannot be verified and are assumed live.
func (t *Tracker) Cleanup(ctx context.Context) (int, error) {
	keys, err := t.store.ListKeys()
	if err != nil {
		return 0, t.logger.Wrap(err, "cleanup: list durable keys")
	}

	unparsable := 0
	missing := 0

	for _, key := range keys {
		raw, ok := store.RawIdentity(key)
		if !ok {
			continue
		}

		id, parseErr := docid.Parse(raw)
		if parseErr != nil {
			// Definitively stale: the key can never be resolved again.
			if delErr := t.store.Delete(key); delErr != nil {
				t.logger.Warn("cleanup: failed to delete unparsable entry %q: %v", key, delErr)
				continue
			}
			t.logger.Debug("cleanup: removed unparsable entry %q", key)
			unparsable++
			continue
		}

		if !id.IsFileBacked() {
			continue
		}

		exists, probeErr := t.probe.Exists(ctx, id)
		if probeErr != nil {
			t.logger.Debug("cleanup: probe failed for %s, treating as missing: %v", id, probeErr)
		}
		if exists {
			continue
		}

		if delErr := t.store.Delete(key); delErr != nil {
			t.logger.Warn("cleanup: failed to delete stale entry for %s: %v", id, delErr)
			continue
		}
		t.cache.Delete(id)
		t.logger.Debug("cleanup: removed stale entry for %s", id)
		missing++
	}

	t.recorder.ObserveCleanup(unparsable, missing)
	return unparsable + missing, nil
}

// StartupCleanup runs Cleanup for the automatic once-per-start pass.
// Errors are logged and swallowed: a failed reconciliation must never
// abort host startup.
func (t *Tracker) StartupCleanup(ctx context.Context) {
	removed, err := t.Cleanup(ctx)
	if err != nil {
		t.logger.Warn("startup cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		t.logger.Info("startup cleanup removed %d stale entr%s", removed, entrySuffix(removed))
	}
}

func entrySuffix(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

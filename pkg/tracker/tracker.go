// Package tracker implements the view-mode state core: the in-memory mode
// cache, the toggle engine, and the stale-entry reconciler. All host and
// storage capabilities are injected at construction; the package keeps no
// ambient state.
package tracker

import (
	"context"
	"fmt"
	"sync"

	"viewstate/pkg/docid"
	"viewstate/pkg/host"
	"viewstate/pkg/logx"
	"viewstate/pkg/metrics"
	"viewstate/pkg/mode"
	"viewstate/pkg/presentation"
	"viewstate/pkg/store"
)

// Settings supplies the configuration the tracker reads at runtime. The
// default mode is read fresh on every resolution so configuration changes
// take effect without a restart. *config.Config satisfies this.
type Settings interface {
	DefaultMode() mode.Mode
	IsManagedKind(kind string) bool
}

// Tracker owns the per-document view-mode state for one host process.
type Tracker struct {
	cache    *Cache
	store    store.Store
	host     host.Host
	probe    host.Probe
	settings Settings
	recorder metrics.Recorder
	logger   *logx.Logger

	// mu guards the session-only bookkeeping below. Toggle and Cleanup
	// themselves are not serialized against each other: a concurrent
	// toggle re-resolves from scratch and mode writes are idempotent, so
	// interleaving produces at worst a redundant identical transition.
	mu          sync.Mutex
	lastToggled docid.Identity
	positions   map[string]host.Position
	dirty       map[string]bool // durable writes that failed and await retry
}

// Option configures optional Tracker collaborators.
type Option func(*Tracker)

// WithRecorder wires a metrics recorder. The default discards metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithLogger overrides the default component logger.
func WithLogger(l *logx.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New creates a Tracker bound to the given store, host, existence probe,
// and settings.
func New(st store.Store, h host.Host, probe host.Probe, settings Settings, opts ...Option) *Tracker {
	t := &Tracker{
		cache:     NewCache(),
		store:     st,
		host:      h,
		probe:     probe,
		settings:  settings,
		recorder:  metrics.NopRecorder{},
		logger:    logx.NewLogger("tracker"),
		positions: make(map[string]host.Position),
		dirty:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resolve returns the current mode for an identity: cache, then durable
// store, then the configured default. Store hits are back-filled into the
// cache so the next resolution takes the fast path.
func (t *Tracker) Resolve(id docid.Identity) mode.Mode {
	if m, ok := t.cache.Get(id); ok {
		return m
	}

	value, ok, err := t.store.Get(store.ModeKey(id))
	if err != nil {
		t.logger.Warn("durable read failed for %s: %v", id, err)
	} else if ok {
		m, parseErr := mode.Parse(value)
		if parseErr != nil {
			// A corrupt value under a valid key is treated as absent; the
			// next toggle overwrites it.
			t.logger.Warn("ignoring corrupt stored mode for %s: %v", id, parseErr)
		} else {
			t.cache.Set(id, m)
			return m
		}
	}

	return t.settings.DefaultMode()
}

// Toggle flips the view mode of the current target document and invokes
// the matching host action. The target is the focused managed document,
// or the last-toggled identity when nothing is focused. Returns the mode
// now in effect for the target.
func (t *Tracker) Toggle(ctx context.Context) (mode.Mode, error) {
	defer t.refreshStatus()

	target, err := t.target()
	if err != nil {
		t.host.Notify("Nothing to toggle: open a managed document first.", host.SeverityWarning)
		return mode.ModeSource, err
	}

	current := t.Resolve(target)
	next := current.Toggle()

	if err := t.invoke(ctx, target, next); err != nil {
		actionErr := &HostActionError{ID: target, Next: next, Err: err}
		t.host.Notify(actionErr.Error(), host.SeverityError)
		t.recorder.ObserveToggle(next.String(), false)
		t.logger.Debug("toggle %s -> %s failed: %v", current, next, err)
		// No state change: the mode stays at the pre-attempt resolution,
		// so retrying resumes the same transition.
		return current, actionErr
	}

	// The cache write is synchronous and unconditional: an in-session
	// inconsistency with the durable store is less harmful than losing
	// the UI transition that already happened.
	t.cache.Set(target, next)
	t.persist(target, next)

	t.mu.Lock()
	t.lastToggled = target
	t.mu.Unlock()

	t.recorder.ObserveToggle(next.String(), true)
	t.logger.Debug("toggled %s: %s -> %s", target, current, next)
	return next, nil
}

// RecordPosition remembers the view position for an identity so a later
// switch back to source can restore it. Session-only, like the
// last-toggled identity.
func (t *Tracker) RecordPosition(id docid.Identity, pos host.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions[id.String()] = pos
}

// target determines which document a toggle applies to. A focused
// document must be of a managed kind; the last-toggled fallback applies
// only when nothing is focused at all, which is the usual state while a
// rendered preview has focus.
func (t *Tracker) target() (docid.Identity, error) {
	if doc, ok := t.host.FocusedDocument(); ok {
		if !t.settings.IsManagedKind(doc.Kind) {
			return docid.Identity{}, fmt.Errorf("%w: focused document is not a managed kind", ErrNoTarget)
		}
		return doc.ID, nil
	}

	t.mu.Lock()
	last := t.lastToggled
	t.mu.Unlock()

	if last.IsZero() {
		return docid.Identity{}, ErrNoTarget
	}
	return last, nil
}

// invoke performs the host action for the requested next mode.
func (t *Tracker) invoke(ctx context.Context, id docid.Identity, next mode.Mode) error {
	if next == mode.ModePreview {
		return t.host.ShowPreview(ctx, id)
	}
	return t.host.ShowSource(ctx, id, t.positionHint(id))
}

// positionHint returns the remembered view position for an identity, or
// nil for the host's default position.
func (t *Tracker) positionHint(id docid.Identity) *host.Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positions[id.String()]
	if !ok {
		return nil
	}
	return &pos
}

// persist mirrors a cache write into the durable store. Failures are
// logged and counted, never surfaced and never rolled back; the entry is
// marked dirty and retried on the next successful persist.
func (t *Tracker) persist(id docid.Identity, m mode.Mode) {
	if err := t.store.Put(store.ModeKey(id), m.String()); err != nil {
		t.logger.Warn("durable write failed for %s: %v", id, err)
		t.recorder.IncStoreWriteFailure()
		t.mu.Lock()
		t.dirty[id.String()] = true
		t.mu.Unlock()
		return
	}

	t.mu.Lock()
	delete(t.dirty, id.String())
	pending := make([]string, 0, len(t.dirty))
	for raw := range t.dirty {
		pending = append(pending, raw)
	}
	t.mu.Unlock()

	t.retryDirty(pending)
}

// retryDirty opportunistically re-persists entries whose earlier durable
// write failed, using the cache as the source of truth.
func (t *Tracker) retryDirty(pending []string) {
	for _, raw := range pending {
		id, err := docid.Parse(raw)
		if err != nil {
			continue
		}
		m, ok := t.cache.Get(id)
		if !ok {
			continue
		}
		if err := t.store.Put(store.ModeKey(id), m.String()); err != nil {
			t.logger.Debug("dirty retry failed for %s: %v", id, err)
			continue
		}
		t.mu.Lock()
		delete(t.dirty, raw)
		t.mu.Unlock()
		t.logger.Debug("dirty retry succeeded for %s", id)
	}
}

// refreshStatus re-derives the mode indicator for the focused document.
// Runs after every toggle attempt, success or failure, so the visible
// indicator always reflects the resolved state.
func (t *Tracker) refreshStatus() {
	doc, ok := t.host.FocusedDocument()
	if !ok {
		return
	}
	status := presentation.Status(t.Resolve(doc.ID))
	t.host.SetStatus(status.Label, status.Tooltip)
}

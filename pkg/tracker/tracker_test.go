package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewstate/pkg/config"
	"viewstate/pkg/docid"
	"viewstate/pkg/host"
	"viewstate/pkg/mode"
	"viewstate/pkg/store"
)

// fakeHost records every host action the tracker invokes.
type fakeHost struct {
	focused *host.Document

	previewErr error
	sourceErr  error

	previewIDs []docid.Identity
	sourceIDs  []docid.Identity
	sourcePos  []*host.Position

	notes       []string
	noteSev     []host.Severity
	statusLabel string
}

func (f *fakeHost) ShowPreview(_ context.Context, id docid.Identity) error {
	if f.previewErr != nil {
		return f.previewErr
	}
	f.previewIDs = append(f.previewIDs, id)
	return nil
}

func (f *fakeHost) ShowSource(_ context.Context, id docid.Identity, pos *host.Position) error {
	if f.sourceErr != nil {
		return f.sourceErr
	}
	f.sourceIDs = append(f.sourceIDs, id)
	f.sourcePos = append(f.sourcePos, pos)
	return nil
}

func (f *fakeHost) FocusedDocument() (host.Document, bool) {
	if f.focused == nil {
		return host.Document{}, false
	}
	return *f.focused, true
}

func (f *fakeHost) Notify(message string, severity host.Severity) {
	f.notes = append(f.notes, message)
	f.noteSev = append(f.noteSev, severity)
}

func (f *fakeHost) SetStatus(label, _ string) {
	f.statusLabel = label
}

// flakyStore injects Put failures over a MemStore.
type flakyStore struct {
	*store.MemStore
	failPuts bool
}

func (s *flakyStore) Put(key, value string) error {
	if s.failPuts {
		return errors.New("durable write rejected")
	}
	return s.MemStore.Put(key, value)
}

// fakeProbe answers existence checks from a fixed map.
type fakeProbe struct {
	exists map[string]bool
	errs   map[string]error
}

func (p fakeProbe) Exists(_ context.Context, id docid.Identity) (bool, error) {
	if err, ok := p.errs[id.String()]; ok {
		return false, err
	}
	return p.exists[id.String()], nil
}

func mustID(t *testing.T, raw string) docid.Identity {
	t.Helper()
	id, err := docid.Parse(raw)
	require.NoError(t, err)
	return id
}

func focusMarkdown(id docid.Identity) *host.Document {
	return &host.Document{ID: id, Kind: "markdown"}
}

func newTestTracker(t *testing.T) (*Tracker, *fakeHost, *flakyStore, *config.Config) {
	t.Helper()

	h := &fakeHost{}
	st := &flakyStore{MemStore: store.NewMemStore()}
	cfg := config.Default()
	tr := New(st, h, fakeProbe{}, cfg)
	return tr, h, st, cfg
}

func TestResolve_DefaultWhenUnknown(t *testing.T) {
	tr, _, _, cfg := newTestTracker(t)
	id := mustID(t, "file:///a.md")

	assert.Equal(t, mode.ModeSource, tr.Resolve(id))
	// Repeated resolution without an intervening toggle is stable.
	assert.Equal(t, tr.Resolve(id), tr.Resolve(id))

	cfg.SetDefaultMode(mode.ModePreview)
	assert.Equal(t, mode.ModePreview, tr.Resolve(id))
}

func TestResolve_StoreHitBackfillsCache(t *testing.T) {
	tr, _, st, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")

	require.NoError(t, st.MemStore.Put(store.ModeKey(id), "preview"))
	assert.Equal(t, mode.ModePreview, tr.Resolve(id))

	// The store entry was back-filled; a later store divergence is not
	// consulted because the cache is authoritative for the session.
	require.NoError(t, st.MemStore.Put(store.ModeKey(id), "source"))
	assert.Equal(t, mode.ModePreview, tr.Resolve(id))
}

func TestResolve_CorruptStoreValueFallsBackToDefault(t *testing.T) {
	tr, _, st, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")

	require.NoError(t, st.MemStore.Put(store.ModeKey(id), "rendered"))
	assert.Equal(t, mode.ModeSource, tr.Resolve(id))
}

func TestToggle_FirstToggleFromDefault(t *testing.T) {
	tr, h, st, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)

	got, err := tr.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mode.ModePreview, got)

	// Default is source, so the first toggle moves away from it.
	require.Len(t, h.previewIDs, 1)
	assert.Equal(t, id, h.previewIDs[0])
	assert.Empty(t, h.sourceIDs)
	assert.Equal(t, mode.ModePreview, tr.Resolve(id))

	// Cache and store agree after a successful toggle.
	value, ok, err := st.Get(store.ModeKey(id))
	require.NoError(t, err)
	require.True(t, ok)
	cached, inCache := tr.cache.Get(id)
	require.True(t, inCache)
	assert.Equal(t, cached.String(), value)
}

func TestToggle_IsInvolution(t *testing.T) {
	tr, h, st, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)
	ctx := context.Background()

	before := tr.Resolve(id)

	_, err := tr.Toggle(ctx)
	require.NoError(t, err)
	after, err := tr.Toggle(ctx)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, before, tr.Resolve(id))
	assert.Len(t, h.previewIDs, 1)
	assert.Len(t, h.sourceIDs, 1)

	value, ok, err := st.Get(store.ModeKey(id))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before.String(), value)
}

func TestToggle_NoTarget(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)

	_, err := tr.Toggle(context.Background())
	require.ErrorIs(t, err, ErrNoTarget)

	// No host action was invoked and the user saw a warning, not an error.
	assert.Empty(t, h.previewIDs)
	assert.Empty(t, h.sourceIDs)
	require.Len(t, h.notes, 1)
	assert.Equal(t, host.SeverityWarning, h.noteSev[0])
}

func TestToggle_UnmanagedFocusedDocument(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)
	id := mustID(t, "file:///a.go")
	h.focused = &host.Document{ID: id, Kind: "go"}

	_, err := tr.Toggle(context.Background())
	require.ErrorIs(t, err, ErrNoTarget)
	assert.Empty(t, h.previewIDs)
}

func TestToggle_LastToggledFallback(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)
	ctx := context.Background()

	_, err := tr.Toggle(ctx)
	require.NoError(t, err)

	// Focus moves to the preview, so no document is focused; the toggle
	// recovers the target from the last-toggled identity.
	h.focused = nil
	got, err := tr.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, mode.ModeSource, got)
	require.Len(t, h.sourceIDs, 1)
	assert.Equal(t, id, h.sourceIDs[0])
}

func TestToggle_HostFailureLeavesStateUntouched(t *testing.T) {
	tr, h, st, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)
	h.previewErr = errors.New("webview crashed")
	ctx := context.Background()

	got, err := tr.Toggle(ctx)
	require.Error(t, err)

	var actionErr *HostActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, mode.ModePreview, actionErr.Next)

	// The resolved mode is unchanged and nothing was persisted.
	assert.Equal(t, mode.ModeSource, got)
	assert.Equal(t, mode.ModeSource, tr.Resolve(id))
	assert.Equal(t, 0, st.Len())
	require.NotEmpty(t, h.notes)
	assert.Equal(t, host.SeverityError, h.noteSev[len(h.noteSev)-1])

	// A retry resumes the same transition once the host recovers.
	h.previewErr = nil
	got, err = tr.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, mode.ModePreview, got)
}

func TestToggle_DurableWriteFailureKeepsCacheAuthoritative(t *testing.T) {
	tr, h, st, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)
	st.failPuts = true
	ctx := context.Background()

	got, err := tr.Toggle(ctx)
	require.NoError(t, err, "a durable write failure must not fail the toggle")
	assert.Equal(t, mode.ModePreview, got)

	// Cache is authoritative for the session even though the store lags.
	assert.Equal(t, mode.ModePreview, tr.Resolve(id))
	assert.Equal(t, 0, st.Len())

	// The write is retried opportunistically on the next successful
	// persist and the store catches up to the cache.
	st.failPuts = false
	_, err = tr.Toggle(ctx)
	require.NoError(t, err)

	value, ok, getErr := st.Get(store.ModeKey(id))
	require.NoError(t, getErr)
	require.True(t, ok)
	assert.Equal(t, tr.Resolve(id).String(), value)
}

func TestToggle_RestoresRecordedPosition(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)
	ctx := context.Background()

	tr.RecordPosition(id, host.Position{Line: 42, Column: 7})

	_, err := tr.Toggle(ctx) // source -> preview
	require.NoError(t, err)
	_, err = tr.Toggle(ctx) // preview -> source, with position hint
	require.NoError(t, err)

	require.Len(t, h.sourcePos, 1)
	require.NotNil(t, h.sourcePos[0])
	assert.Equal(t, 42, h.sourcePos[0].Line)
	assert.Equal(t, 7, h.sourcePos[0].Column)
}

func TestToggle_NoPositionHintWithoutRecord(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)
	ctx := context.Background()

	_, err := tr.Toggle(ctx)
	require.NoError(t, err)
	_, err = tr.Toggle(ctx)
	require.NoError(t, err)

	require.Len(t, h.sourcePos, 1)
	assert.Nil(t, h.sourcePos[0])
}

func TestToggle_UpdatesStatusIndicator(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)

	_, err := tr.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Preview", h.statusLabel)
}

func TestToggle_StatusRefreshedEvenOnFailure(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)
	id := mustID(t, "file:///a.md")
	h.focused = focusMarkdown(id)
	h.previewErr = errors.New("boom")

	_, err := tr.Toggle(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Source", h.statusLabel, "indicator must reflect the unchanged mode")
}

func TestToggle_ScenarioSourcePreviewSource(t *testing.T) {
	tr, h, _, _ := newTestTracker(t)
	id := mustID(t, "doc://a")
	h.focused = focusMarkdown(id)
	ctx := context.Background()

	assert.Equal(t, mode.ModeSource, tr.Resolve(id))

	got, err := tr.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, mode.ModePreview, got)
	assert.Equal(t, mode.ModePreview, tr.Resolve(id))
	assert.Len(t, h.previewIDs, 1)

	got, err = tr.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, mode.ModeSource, got)
	assert.Equal(t, mode.ModeSource, tr.Resolve(id))
	assert.Len(t, h.sourceIDs, 1)
}

// Package clihost implements the host capability surface on top of a
// terminal. It exists so the tracker can be driven end to end by the
// viewstate CLI; editor integrations provide their own host instead.
package clihost

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"viewstate/pkg/docid"
	"viewstate/pkg/host"
	"viewstate/pkg/render"
)

// Host is a terminal-backed implementation of host.Host. "Showing" a
// document means printing it: rendered HTML for previews, raw bytes for
// source.
type Host struct {
	out      io.Writer
	errOut   io.Writer
	renderer *render.Renderer

	focused *host.Document
	label   string
	tooltip string
}

// New creates a terminal host writing documents to out and notifications
// to errOut.
func New(out, errOut io.Writer) *Host {
	return &Host{
		out:      out,
		errOut:   errOut,
		renderer: render.New(),
	}
}

// Focus marks a document as the focused one for subsequent toggles.
func (h *Host) Focus(id docid.Identity, kind string) {
	h.focused = &host.Document{ID: id, Kind: kind}
}

// ShowPreview renders the document's markdown and prints the HTML.
func (h *Host) ShowPreview(_ context.Context, id docid.Identity) error {
	source, err := h.readSource(id)
	if err != nil {
		return err
	}

	html, err := h.renderer.Render(source)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(h.out, html)
	return err
}

// ShowSource prints the raw document. The position hint becomes a header
// line so the caller can see what an editor would scroll to.
func (h *Host) ShowSource(_ context.Context, id docid.Identity, pos *host.Position) error {
	source, err := h.readSource(id)
	if err != nil {
		return err
	}

	if pos != nil {
		fmt.Fprintf(h.out, "-- %s:%d:%d --\n", id.Filepath(), pos.Line, pos.Column)
	}
	_, err = h.out.Write(source)
	return err
}

// FocusedDocument returns the document set by Focus, if any.
func (h *Host) FocusedDocument() (host.Document, bool) {
	if h.focused == nil {
		return host.Document{}, false
	}
	return *h.focused, true
}

// Notify prints a user-facing message to the error stream.
func (h *Host) Notify(message string, severity host.Severity) {
	fmt.Fprintf(h.errOut, "%s: %s\n", severity, message)
}

// SetStatus records the indicator text for Status.
func (h *Host) SetStatus(label, tooltip string) {
	h.label = label
	h.tooltip = tooltip
}

// Status returns the last indicator pushed by the tracker.
func (h *Host) Status() (label, tooltip string) {
	return h.label, h.tooltip
}

// readSource loads the bytes behind a file-backed identity.
func (h *Host) readSource(id docid.Identity) ([]byte, error) {
	path := id.Filepath()
	if path == "" {
		return nil, fmt.Errorf("cannot display non-file document %s", id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// DetectKind maps a file path to a host content kind by extension.
func DetectKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown":
		return "markdown"
	case ".adoc", ".asciidoc":
		return "asciidoc"
	default:
		return "plaintext"
	}
}

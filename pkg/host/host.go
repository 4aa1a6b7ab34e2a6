// Package host declares the capabilities the tracker consumes from its
// embedding editor or workbench. The tracker never talks to a UI or a
// filesystem directly; everything outward goes through these interfaces.
package host

import (
	"context"

	"viewstate/pkg/docid"
)

// Severity classifies user-facing notifications.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a lowercase label for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Position is a view position hint (cursor or scroll anchor) used to
// restore the editor view when switching back to source.
type Position struct {
	Line   int
	Column int
}

// Document describes a document the host currently has focused. Kind is
// the host's content-type label; only documents of the managed kind are
// toggle targets.
type Document struct {
	ID   docid.Identity
	Kind string
}

// Host is the set of UI-side actions the tracker invokes. Show actions
// are asynchronous from the host's point of view and may fail; the
// tracker treats a returned error as "nothing happened".
type Host interface {
	// ShowPreview displays the rendered preview for the document.
	ShowPreview(ctx context.Context, id docid.Identity) error

	// ShowSource displays the source editor for the document, restoring
	// pos when non-nil.
	ShowSource(ctx context.Context, id docid.Identity, pos *Position) error

	// FocusedDocument returns the currently focused document, if any.
	FocusedDocument() (Document, bool)

	// Notify surfaces a message to the user.
	Notify(message string, severity Severity)

	// SetStatus updates the host's mode indicator.
	SetStatus(label, tooltip string)
}

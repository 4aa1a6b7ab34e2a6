// Package mode defines the two-valued document view mode.
package mode

import "fmt"

// Mode is the view mode associated with a document: either the source
// editor or the rendered preview. The zero value is ModeSource.
//
// "Unknown" is deliberately not a Mode. Callers that need to express the
// absence of a mode use a (Mode, bool) pair, matching the convention that
// an absent entry, not a third value, represents the unset state.
type Mode int

const (
	// ModeSource shows the raw document in a text editor.
	ModeSource Mode = iota
	// ModePreview shows the rendered preview of the document.
	ModePreview
)

// Wire literals persisted in the durable store. These are the only
// serialized representation of a Mode.
const (
	wireSource  = "source"
	wirePreview = "preview"
)

// String returns the wire literal for the mode.
func (m Mode) String() string {
	if m == ModePreview {
		return wirePreview
	}
	return wireSource
}

// Toggle returns the other mode. Source and preview are the only two
// states; toggling twice always returns to the starting mode.
func (m Mode) Toggle() Mode {
	if m == ModePreview {
		return ModeSource
	}
	return ModePreview
}

// Parse converts a wire literal into a Mode. Anything other than the two
// exact literals is an error.
func Parse(s string) (Mode, error) {
	switch s {
	case wireSource:
		return ModeSource, nil
	case wirePreview:
		return ModePreview, nil
	default:
		return ModeSource, fmt.Errorf("invalid mode %q", s)
	}
}

// Package presentation derives the human-readable mode indicator shown by
// the host UI. It is a pure consumer of resolved modes; no state lives
// here.
package presentation

import "viewstate/pkg/mode"

// StatusInfo is the rendered indicator for a document's current mode.
// Label is short enough for a status bar; Tooltip explains what a click
// (toggle) will do next.
type StatusInfo struct {
	Label   string
	Tooltip string
}

// Status derives the indicator for a resolved mode.
func Status(m mode.Mode) StatusInfo {
	if m == mode.ModePreview {
		return StatusInfo{
			Label:   "Preview",
			Tooltip: "Showing rendered preview. Toggle to edit the source.",
		}
	}
	return StatusInfo{
		Label:   "Source",
		Tooltip: "Showing source. Toggle to see the rendered preview.",
	}
}

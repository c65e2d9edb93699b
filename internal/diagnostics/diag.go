// Package diagnostics defines the structured events the hub pushes to
// diagnostic websocket clients.
package diagnostics

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is one event: a stable code plus human-readable context.
// Codes in use: PROGRAM.LOADED, TRACK.FINISHED, CONTROL.UNKNOWN,
// PROGRAM.INVALID.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

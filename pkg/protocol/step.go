// Package protocol defines the wire format for the tapvolt Connection Engine
// WebSocket protocol: outbound client frames, inbound server frames, and the
// tagged Step union that composes an Action.
package protocol

import (
	"fmt"
	"math"
)

// Step kinds. A Step is a tagged union with exactly one constructor per kind.
const (
	StepShortcut = "shortcut"
	StepText     = "text"
	StepDelay    = "delay"
	StepKey      = "key"
	StepCommand  = "command"
)

// Step is one atomic host operation. Exactly one of the kind-specific
// fields is populated, selected by Type.
type Step struct {
	Type string `json:"type"`

	// StepShortcut
	Keys []string `json:"keys,omitempty"`

	// StepText
	Value string `json:"value,omitempty"`

	// StepDelay, milliseconds
	Duration float64 `json:"duration,omitempty"`

	// StepKey
	Key string `json:"key,omitempty"`

	// StepCommand
	Command string `json:"command,omitempty"`
}

// Shortcut builds a shortcut step from an ordered list of key names.
func Shortcut(keys ...string) Step { return Step{Type: StepShortcut, Keys: keys} }

// Text builds a text-injection step.
func Text(value string) Step { return Step{Type: StepText, Value: value} }

// Delay builds a timed-delay step, duration in milliseconds.
func Delay(ms float64) Step { return Step{Type: StepDelay, Duration: ms} }

// Key builds a single key-press step.
func Key(key string) Step { return Step{Type: StepKey, Key: key} }

// Command builds a shell command-line step.
func Command(line string) Step { return Step{Type: StepCommand, Command: line} }

// ShapeError describes why a Step or Action failed shape validation.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string { return e.Reason }

// ValidateShape checks that a Step carries the required fields for its
// declared Type, with the correct kind. It does not enforce the local
// bounds (max steps, max text length) — that is the Action Validator's
// first pass, layered on top of this.
func (s Step) ValidateShape() error {
	switch s.Type {
	case StepShortcut:
		if len(s.Keys) == 0 {
			return &ShapeError{Reason: "shortcut step requires a non-empty key list"}
		}
		for _, k := range s.Keys {
			if k == "" {
				return &ShapeError{Reason: "shortcut step contains an empty key name"}
			}
		}
		return nil
	case StepText:
		return nil
	case StepDelay:
		if math.IsInf(s.Duration, 0) || math.IsNaN(s.Duration) {
			return &ShapeError{Reason: "delay step duration must be finite"}
		}
		if s.Duration < 0 {
			return &ShapeError{Reason: "delay step duration must be non-negative"}
		}
		return nil
	case StepKey:
		if s.Key == "" {
			return &ShapeError{Reason: "key step requires a non-empty key"}
		}
		return nil
	case StepCommand:
		if s.Command == "" {
			return &ShapeError{Reason: "command step requires a non-empty command line"}
		}
		return nil
	default:
		return &ShapeError{Reason: fmt.Sprintf("unrecognized step type %q", s.Type)}
	}
}

// Action is a single client-originated request to execute a bounded
// sequence of steps on the host.
type Action struct {
	ID    string `json:"id"`
	Steps []Step `json:"steps"`
}

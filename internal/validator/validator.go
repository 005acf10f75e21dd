// Package validator implements the two-pass Action Validator: local bounds
// first, then per-step shape.
package validator

import (
	"fmt"
	"unicode/utf8"

	"github.com/n1shantvarma/tapvolt-app/pkg/protocol"
)

const (
	MaxSteps      = 50
	MaxTextLength = 1000
)

// Result carries the outcome of validating an Action.
type Result struct {
	Code    string
	Message string
	// Warning is set to a non-fatal advisory when the action contains a
	// command step; non-command actions clear any prior warning by
	// leaving this empty.
	Warning string
}

// OK reports whether validation passed.
func (r Result) OK() bool { return r.Code == "" }

// Validate runs both passes over action in order: bounds, then shape. On
// the first failure it returns immediately with the corresponding code.
func Validate(action protocol.Action) Result {
	if len(action.Steps) > MaxSteps {
		return Result{Code: protocol.ErrMaxStepsExceeded, Message: "Action exceeds the maximum number of steps."}
	}
	for _, step := range action.Steps {
		if step.Type == protocol.StepText && utf8.RuneCountInString(step.Value) > MaxTextLength {
			return Result{Code: protocol.ErrMaxTextLengthExceeded, Message: "Text step exceeds the maximum length."}
		}
	}

	if action.ID == "" {
		return Result{Code: protocol.ErrClientError, Message: "Action id must be non-empty."}
	}
	if len(action.Steps) == 0 {
		return Result{Code: protocol.ErrClientError, Message: "Action must contain at least one step."}
	}

	hasCommand := false
	for _, step := range action.Steps {
		if err := step.ValidateShape(); err != nil {
			return Result{Code: protocol.ErrClientError, Message: fmt.Sprintf("Invalid action step: %s", err)}
		}
		if step.Type == protocol.StepCommand {
			hasCommand = true
		}
	}

	result := Result{}
	if hasCommand {
		result.Warning = "Command execution may be disabled on desktop."
	}
	return result
}

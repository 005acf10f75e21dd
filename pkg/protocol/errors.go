package protocol

import "strings"

// Error codes surfaced to the caller via onError (spec.md §3).
const (
	ErrClientError              = "CLIENT_ERROR"
	ErrSocketError              = "SOCKET_ERROR"
	ErrInvalidServerMessage     = "INVALID_SERVER_MESSAGE"
	ErrMaxStepsExceeded         = "MAX_STEPS_EXCEEDED"
	ErrMaxTextLengthExceeded    = "MAX_TEXT_LENGTH_EXCEEDED"
	ErrCommandExecutionDisabled = "COMMAND_EXECUTION_DISABLED"
	ErrDeviceNotAuthorized      = "DEVICE_NOT_AUTHORIZED"
	ErrUnknownServerError       = "UNKNOWN_SERVER_ERROR"
)

// ErrorEnvelope is what the engine surfaces to the caller via onError.
type ErrorEnvelope struct {
	Code    string
	Message string
}

// serverErrorMessages maps a resolved, normalized server error code to the
// caller-facing message (spec.md §4.B).
var serverErrorMessages = map[string]string{
	ErrMaxStepsExceeded:         "Action exceeds the maximum number of steps.",
	ErrMaxTextLengthExceeded:    "Text step exceeds the maximum length.",
	ErrCommandExecutionDisabled: "Terminal commands are disabled on the desktop.",
	ErrDeviceNotAuthorized:      "This device is not authorized.",
}

const unknownServerErrorMessage = "Unexpected desktop error."

// ClassifyServerErrorCode normalizes a resolved code string (trim+uppercase)
// and maps it against the fixed table. Unknown codes classify as
// ErrUnknownServerError with the generic fallback message.
func ClassifyServerErrorCode(raw string) ErrorEnvelope {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if msg, ok := serverErrorMessages[normalized]; ok {
		return ErrorEnvelope{Code: normalized, Message: msg}
	}
	return ErrorEnvelope{Code: ErrUnknownServerError, Message: unknownServerErrorMessage}
}

// IsAuthErrorCode reports whether a raw (pre-normalization) code/message
// string should be classified as an auth failure rather than a generic
// error, per spec.md §4.B's substring heuristic. This is a best-effort
// classification: the check may misclassify an unrelated error whose text
// happens to contain one of these words (spec.md §9 Open Questions);
// prefer structured server codes once the host guarantees them.
func IsAuthErrorCode(raw string) bool {
	lower := strings.ToLower(raw)
	for _, needle := range []string{"auth", "unauthorized", "not authorized"} {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

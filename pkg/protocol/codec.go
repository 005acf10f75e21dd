package protocol

import "encoding/json"

// InboundKind discriminates a successfully decoded server message.
type InboundKind int

const (
	InboundPing InboundKind = iota
	InboundAuthSuccess
	InboundAuthFailure
	InboundError
	InboundActionResult
	InboundInvalid
)

// InboundMessage is the normalized result of decoding one server text
// frame, per spec.md §4.B. Only one payload field is meaningful, selected
// by Kind.
type InboundMessage struct {
	Kind InboundKind

	// InboundError
	IsAuthFailure bool
	ErrorRaw      string // the raw resolved code/message string, pre-classification
	Error         ErrorEnvelope

	// InboundActionResult
	Result ActionResultPayload

	// InboundInvalid
	RawFrame string // original text, for diagnostics
}

// Decode parses one inbound text frame per spec.md §4.B. Anything that
// isn't valid JSON, lacks a string "type", or carries an unrecognized
// "type" decodes as InboundInvalid.
func Decode(frame []byte) InboundMessage {
	var raw RawFrame
	if err := json.Unmarshal(frame, &raw); err != nil || raw.Type == "" {
		return InboundMessage{Kind: InboundInvalid, RawFrame: string(frame)}
	}

	switch raw.Type {
	case TypePing:
		return InboundMessage{Kind: InboundPing}
	case TypeAuthSuccess:
		return InboundMessage{Kind: InboundAuthSuccess}
	case TypeAuthFailure:
		return InboundMessage{Kind: InboundAuthFailure}
	case TypeError:
		return decodeError(raw)
	case TypeActionResult:
		return decodeActionResult(raw)
	default:
		return InboundMessage{Kind: InboundInvalid, RawFrame: string(frame)}
	}
}

// decodeError resolves the error code by priority: payload.code -> top
// level code -> payload.message -> top level message -> empty, per
// spec.md §4.B. It then classifies auth-like codes to the auth-failure
// sink instead of the generic error sink.
func decodeError(raw RawFrame) InboundMessage {
	var payload ErrorPayload
	if len(raw.Payload) > 0 {
		_ = json.Unmarshal(raw.Payload, &payload)
	}

	resolved := firstNonEmpty(payload.Code, raw.Code, payload.Message, raw.Message)

	if IsAuthErrorCode(resolved) {
		return InboundMessage{Kind: InboundAuthFailure, IsAuthFailure: true, ErrorRaw: resolved}
	}

	return InboundMessage{
		Kind:     InboundError,
		ErrorRaw: resolved,
		Error:    ClassifyServerErrorCode(resolved),
	}
}

// decodeActionResult validates the ACTION_RESULT payload shape: string id,
// status in {success,error}, numeric executionTime, optional string error.
// Any deviation yields InboundInvalid.
func decodeActionResult(raw RawFrame) InboundMessage {
	if len(raw.Payload) == 0 {
		return InboundMessage{Kind: InboundInvalid}
	}

	var loose struct {
		ID            interface{} `json:"id"`
		Status        interface{} `json:"status"`
		ExecutionTime interface{} `json:"executionTime"`
		Error         interface{} `json:"error"`
	}
	if err := json.Unmarshal(raw.Payload, &loose); err != nil {
		return InboundMessage{Kind: InboundInvalid}
	}

	id, ok := loose.ID.(string)
	if !ok || id == "" {
		return InboundMessage{Kind: InboundInvalid}
	}

	status, ok := loose.Status.(string)
	if !ok || (status != ActionStatusSuccess && status != ActionStatusError) {
		return InboundMessage{Kind: InboundInvalid}
	}

	execTime, ok := loose.ExecutionTime.(float64)
	if !ok || execTime < 0 {
		return InboundMessage{Kind: InboundInvalid}
	}

	result := ActionResultPayload{ID: id, Status: status, ExecutionTime: execTime}
	if loose.Error != nil {
		errStr, ok := loose.Error.(string)
		if !ok {
			return InboundMessage{Kind: InboundInvalid}
		}
		result.Error = errStr
	}

	return InboundMessage{Kind: InboundActionResult, Result: result}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

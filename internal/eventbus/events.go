package eventbus

import (
	"time"

	"assetd/pkg/types"
)

// Type names one bus event. Lifecycle types map 1:1 onto state transitions;
// state_change is derived and carries the authoritative before/after pair.
type Type string

const (
	TypeLoadingStart    Type = "loading_start"
	TypeLoadingSuccess  Type = "loading_success"
	TypeLoadingFailure  Type = "loading_failure"
	TypeLoadingTimeout  Type = "loading_timeout"
	TypeFallbackStart   Type = "fallback_start"
	TypeFallbackFailure Type = "fallback_failure"
	TypeStateChange     Type = "state_change"
)

// Payload is the closed set of event payloads. Consumers type-switch on the
// concrete variant instead of probing optional fields.
type Payload interface{ payload() }

// LoadPayload accompanies loading_start and loading_success.
type LoadPayload struct {
	ResourceID string
	URL        string
	Kind       types.Kind
	Group      string
	Priority   string
	// 1-based index of the candidate URL within the fallback chain.
	Attempt   int
	AttemptID string
}

func (LoadPayload) payload() {}

// FailurePayload accompanies loading_failure and loading_timeout.
type FailurePayload struct {
	LoadPayload
	// load-error or timeout.
	Reason string
	// Candidates left untried after this attempt. Zero means the attempt was
	// the end of its chain, which makes the failure terminal (all_failed).
	Remaining int
}

// FallbackPayload accompanies fallback_start (URL is the next candidate) and
// fallback_failure (URL is the last candidate tried, Remaining is zero).
type FallbackPayload struct {
	ResourceID string
	URL        string
	Kind       types.Kind
	Group      string
	Priority   string
	Attempt    int
	Remaining  int
	Reason     string
}

func (FallbackPayload) payload() {}

// StateChangePayload accompanies state_change.
type StateChangePayload struct {
	ResourceID string
	From       types.State
	To         types.State
	URL        string
	Reason     string
}

func (StateChangePayload) payload() {}

// Event is the envelope handed to every handler. Timestamp is stamped by Emit.
type Event struct {
	Type      Type
	Timestamp time.Time
	Payload   Payload
}

// DTO flattens the envelope for the JSON surfaces (/events, assetctl).
func (e Event) DTO() types.EventDTO {
	dto := types.EventDTO{
		Type:      string(e.Type),
		Timestamp: e.Timestamp.UnixMilli(),
	}
	switch p := e.Payload.(type) {
	case LoadPayload:
		dto.ResourceID = p.ResourceID
		dto.URL = p.URL
		dto.Kind = string(p.Kind)
		dto.Group = p.Group
		dto.Priority = p.Priority
		dto.Attempt = p.Attempt
		dto.AttemptID = p.AttemptID
	case FailurePayload:
		dto.ResourceID = p.ResourceID
		dto.URL = p.URL
		dto.Kind = string(p.Kind)
		dto.Group = p.Group
		dto.Priority = p.Priority
		dto.Attempt = p.Attempt
		dto.AttemptID = p.AttemptID
		dto.Reason = p.Reason
		dto.Remaining = p.Remaining
	case FallbackPayload:
		dto.ResourceID = p.ResourceID
		dto.URL = p.URL
		dto.Kind = string(p.Kind)
		dto.Group = p.Group
		dto.Priority = p.Priority
		dto.Attempt = p.Attempt
		dto.Remaining = p.Remaining
		dto.Reason = p.Reason
	case StateChangePayload:
		dto.ResourceID = p.ResourceID
		dto.URL = p.URL
		dto.From = string(p.From)
		dto.To = string(p.To)
		dto.Reason = p.Reason
	}
	return dto
}

// payloadIdentity pulls the fields every state transition needs out of a
// lifecycle payload.
func payloadIdentity(p Payload) (id, url, reason string) {
	switch v := p.(type) {
	case LoadPayload:
		return v.ResourceID, v.URL, ""
	case FailurePayload:
		return v.ResourceID, v.URL, v.Reason
	case FallbackPayload:
		return v.ResourceID, v.URL, v.Reason
	case StateChangePayload:
		return v.ResourceID, v.URL, v.Reason
	}
	return "", "", ""
}

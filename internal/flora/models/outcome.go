package models

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind names the write that produced an outcome. Its value doubles as the
// routing key outcome events are published under.
type OutcomeKind string

const (
	KindCreated OutcomeKind = "flora-created"
	KindUpdated OutcomeKind = "flora-updated"
)

// Method is the HTTP verb the original write maps to, carried as "type" on the wire.
func (k OutcomeKind) Method() string {
	if k == KindUpdated {
		return "PUT"
	}
	return "POST"
}

// OutcomeStatus is success or error.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusError   OutcomeStatus = "error"
)

// Codes carried on outcome events.
const (
	CodeCreated  = 201
	CodeUpdated  = 200
	CodeNotFound = 404
	CodeFailed   = 500
)

// OutcomeEvent reports the result of one coordinator invocation. Payload is the
// record id on success and the error description on failure.
type OutcomeEvent struct {
	Kind    OutcomeKind
	Status  OutcomeStatus
	Code    int
	Payload string
}

// Succeeded builds a success outcome for id.
func Succeeded(kind OutcomeKind, code int, id string) OutcomeEvent {
	return OutcomeEvent{Kind: kind, Status: StatusSuccess, Code: code, Payload: id}
}

// Errored builds an error outcome describing err.
func Errored(kind OutcomeKind, code int, err error) OutcomeEvent {
	payload := ""
	if err != nil {
		payload = err.Error()
	}
	return OutcomeEvent{Kind: kind, Status: StatusError, Code: code, Payload: payload}
}

type outcomeWire struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Code   int    `json:"code"`
	Data   string `json:"data"`
}

// MarshalJSON renders the notification body consumed by stream clients.
func (e OutcomeEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeWire{
		Type:   e.Kind.Method(),
		Status: string(e.Status),
		Code:   e.Code,
		Data:   e.Payload,
	})
}

// DecodeOutcome parses a notification body back into an event. The kind is
// recovered from the wire "type".
func DecodeOutcome(body []byte) (OutcomeEvent, error) {
	var w outcomeWire
	if err := json.Unmarshal(body, &w); err != nil {
		return OutcomeEvent{}, fmt.Errorf("decode outcome: %w", err)
	}
	kind := KindCreated
	switch w.Type {
	case "POST":
	case "PUT":
		kind = KindUpdated
	default:
		return OutcomeEvent{}, fmt.Errorf("decode outcome: unknown type %q", w.Type)
	}
	return OutcomeEvent{Kind: kind, Status: OutcomeStatus(w.Status), Code: w.Code, Payload: w.Data}, nil
}

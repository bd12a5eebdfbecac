// Package conversation orchestrates the inbound SMS pipeline: compliance
// gate, intent extraction, booking negotiation, reply composition, and the
// paced dispatch of the final draft. All work flows through the queue so the
// API process stays thin and delayed sends survive restarts.
package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type jobKind string

const (
	jobKindInbound  jobKind = "inbound"
	jobKindDispatch jobKind = "dispatch"
)

// InboundJob is one webhook-received message, resolved to an agent and lead
// by the HTTP handler before enqueueing.
type InboundJob struct {
	MessageSID string    `json:"message_sid"`
	AgentID    string    `json:"agent_id"`
	LeadID     string    `json:"lead_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// DispatchJob is one composed reply waiting out its human delay on the
// queue. DraftHash keys the Redis dedup claim; SendAt is set when quiet
// hours pushed the send into the next morning.
type DispatchJob struct {
	AgentID    string     `json:"agent_id"`
	LeadID     string     `json:"lead_id"`
	To         string     `json:"to"`
	From       string     `json:"from"`
	Draft      string     `json:"draft"`
	DraftHash  string     `json:"draft_hash"`
	SendAt     *time.Time `json:"send_at,omitempty"`
	ComposedAt time.Time  `json:"composed_at"`
}

type queuePayload struct {
	ID       string       `json:"id"`
	Kind     jobKind      `json:"kind"`
	Inbound  *InboundJob  `json:"inbound,omitempty"`
	Dispatch *DispatchJob `json:"dispatch,omitempty"`
}

func encodePayload(payload queuePayload) (string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("conversation: failed to encode payload: %w", err)
	}
	return string(body), nil
}

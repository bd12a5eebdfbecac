// Package messaging owns the SMS transport surface: Twilio webhook
// validation and parsing, the message ledger, and the outbound sender.
package messaging

import "time"

// Direction distinguishes inbound from outbound messages.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Status is the delivery lifecycle of a message. Inbound messages are
// created as received; outbound rows move queued → scheduled/sent →
// delivered/failed via provider status callbacks.
type Status string

const (
	StatusReceived  Status = "received"
	StatusQueued    Status = "queued"
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Message is one ledger row. Immutable after creation except for
// status/timestamp updates driven by delivery callbacks.
type Message struct {
	ID                string    `json:"id"`
	AgentID           string    `json:"agent_id"`
	LeadID            string    `json:"lead_id"`
	Direction         Direction `json:"direction"`
	FromNumber        string    `json:"from_number"`
	ToNumber          string    `json:"to_number"`
	Body              string    `json:"body"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Status            Status    `json:"status"`
	Automated         bool      `json:"automated"`

	QueuedAt    *time.Time `json:"queued_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Package agents holds the tenant registry: each agent owns an SMS number,
// a timezone, booking settings, and an A2P registration state.
package agents

import (
	"errors"
	"time"

	"github.com/coverlinehq/coverline/internal/booking"
)

// Agent is one insurance agent (tenant). The SMS number is the webhook
// routing key: inbound To-number ownership determines the agent.
type Agent struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	SMSNumber   string            `json:"sms_number"`
	Timezone    string            `json:"timezone"`
	A2PReady    bool              `json:"a2p_ready"`
	CalendarID  string            `json:"calendar_id"`
	NotifyEmail string            `json:"notify_email"`
	Booking     *booking.Settings `json:"booking_settings,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Location resolves the agent timezone; the booking settings zone wins when
// both are set, keeping webhook-time math consistent with enforcement.
func (a *Agent) Location() *time.Location {
	if a.Booking != nil && a.Booking.Timezone != "" {
		return a.Booking.Location()
	}
	if a.Timezone != "" {
		if loc, err := time.LoadLocation(a.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

var (
	// ErrAgentNotFound indicates no agent matched the lookup.
	ErrAgentNotFound = errors.New("agents: agent not found")
	// ErrMissingSMSNumber indicates an agent without a routing number.
	ErrMissingSMSNumber = errors.New("agents: sms number is required")
)

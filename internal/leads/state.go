package leads

import (
	"errors"
	"fmt"
	"time"
)

// ConversationState is the tagged conversation-memory state. Transitions go
// through the methods below; nothing else should assign the field.
type ConversationState string

const (
	StateIdle         ConversationState = "idle"
	StateAwaitingTime ConversationState = "awaiting_time"
	StateScheduled    ConversationState = "scheduled"
	StateQA           ConversationState = "qa"
)

// ErrOptedOut rejects any automated transition on an opted-out lead.
var ErrOptedOut = errors.New("leads: lead has opted out")

// ProposeTime records a slot the system offered and moves the conversation
// to awaiting_time.
func (l *Lead) ProposeTime(t time.Time) error {
	if l.OptedOut {
		return ErrOptedOut
	}
	if t.IsZero() {
		return errors.New("leads: proposed time must be set")
	}
	l.LastProposed = &t
	l.PendingAppointment = &t
	l.ConversationState = StateAwaitingTime
	return nil
}

// ConfirmAppointment books the slot: scheduled state always carries a
// confirmed time.
func (l *Lead) ConfirmAppointment(t, at time.Time) error {
	if l.OptedOut {
		return ErrOptedOut
	}
	if t.IsZero() {
		return errors.New("leads: confirmed time must be set")
	}
	l.ConfirmedAppointment = &t
	l.PendingAppointment = nil
	l.LastConfirmationAt = &at
	l.ConversationState = StateScheduled
	return nil
}

// EnterQA marks the conversation as question-answering and remembers the
// raised topic (bounded history of one).
func (l *Lead) EnterQA(topic string) error {
	if l.OptedOut {
		return ErrOptedOut
	}
	if l.ConversationState == StateScheduled {
		// A booked lead asking questions stays scheduled.
		l.rememberTopic(topic)
		return nil
	}
	l.ConversationState = StateQA
	l.rememberTopic(topic)
	return nil
}

// OptOut honors a STOP: compliance flags flip, pending automation clears,
// and the conversation parks in idle for good.
func (l *Lead) OptOut() {
	l.OptedOut = true
	l.OptedIn = false
	l.PendingAppointment = nil
	l.LastProposed = nil
	l.ConversationState = StateIdle
}

// OptIn honors a START: re-engagement resumes on the next inbound message.
func (l *Lead) OptIn() {
	l.OptedOut = false
	l.OptedIn = true
}

func (l *Lead) rememberTopic(topic string) {
	if topic == "" {
		return
	}
	l.LastAskedTopics = []string{topic}
}

// Validate checks the conversation-memory invariants.
func (l *Lead) Validate() error {
	if l.OptedOut && l.OptedIn {
		return errors.New("leads: opted_out and opted_in are mutually exclusive")
	}
	if l.ConversationState == StateScheduled && l.ConfirmedAppointment == nil {
		return errors.New("leads: scheduled state requires a confirmed appointment")
	}
	if l.OptedOut && l.ConversationState != StateIdle {
		return fmt.Errorf("leads: opted-out lead cannot be %s", l.ConversationState)
	}
	switch l.ConversationState {
	case StateIdle, StateAwaitingTime, StateScheduled, StateQA, "":
		return nil
	default:
		return fmt.Errorf("leads: unknown conversation state %q", l.ConversationState)
	}
}

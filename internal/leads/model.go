package leads

import (
	"time"
)

// Lead is an inbound SMS prospect: identity, conversation memory, and
// compliance flags. Conversation memory is only mutated through the
// transition methods in state.go.
type Lead struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Phone     string `json:"phone"`
	AltPhone  string `json:"alt_phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	USState   string `json:"us_state,omitempty"`
	Source    string `json:"source"`

	ConversationState ConversationState `json:"conversation_state"`
	// LastAskedTopics holds at most one recently raised topic, used to vary
	// phrasing on repeat objections.
	LastAskedTopics []string `json:"last_asked_topics,omitempty"`

	PendingAppointment   *time.Time `json:"pending_appointment,omitempty"`
	ConfirmedAppointment *time.Time `json:"confirmed_appointment,omitempty"`
	LastProposed         *time.Time `json:"last_proposed,omitempty"`

	LastAIResponseAt   *time.Time `json:"last_ai_response_at,omitempty"`
	LastConfirmationAt *time.Time `json:"last_confirmation_at,omitempty"`
	LastDraftText      string     `json:"last_draft_text,omitempty"`

	OptedOut bool `json:"opted_out"`
	OptedIn  bool `json:"opted_in"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceInboundSMS tags leads auto-created from an unrecognized sender.
const SourceInboundSMS = "inbound_sms"

// PhoneMatches reports whether candidate number e164 refers to this lead:
// exact normalized match, +1+last-10 equality, or anchored last-10 suffix,
// against any phone-bearing field.
func (l *Lead) PhoneMatches(e164 string) bool {
	digits := SanitizeDigits(e164)
	if digits == "" {
		return false
	}
	for _, stored := range []string{l.Phone, l.AltPhone} {
		storedDigits := SanitizeDigits(stored)
		if storedDigits == "" {
			continue
		}
		if storedDigits == digits {
			return true
		}
		if last := LastTen(digits); last != "" && last == LastTen(storedDigits) {
			return true
		}
	}
	return false
}

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/coverlinehq/coverline/pkg/logging"
)

// Service sends agent-facing notifications. A nil Service is safe to call
// and does nothing, so callers never guard the "email disabled" case.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// AppointmentBooked emails the agent that a lead confirmed an appointment.
// Failures are logged, never propagated; the booking already happened.
func (s *Service) AppointmentBooked(ctx context.Context, agentEmail, agentName, leadPhone string, at time.Time, loc *time.Location) {
	if s == nil || s.email == nil || agentEmail == "" {
		return
	}
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)

	msg := EmailMessage{
		To:      agentEmail,
		ToName:  agentName,
		Subject: fmt.Sprintf("Appointment booked for %s", local.Format("Mon Jan 2, 3:04 PM MST")),
		Body: fmt.Sprintf(
			"A lead at %s confirmed a call on %s.\n\nThis appointment is on your calendar.",
			leadPhone, local.Format("Monday, January 2 at 3:04 PM MST")),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("appointment booked notification failed", "error", err, "agent_email", agentEmail)
	}
}

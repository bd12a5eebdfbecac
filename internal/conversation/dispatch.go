package conversation

import (
	"context"
	"fmt"

	"github.com/coverlinehq/coverline/internal/messaging"
)

// HandleDispatch runs the fire-time checks for a delayed reply and sends it.
// The lead is re-fetched so the decision reflects the latest state, not the
// state at compose time. Aborts return nil; the job must not be redelivered.
func (e *Engine) HandleDispatch(ctx context.Context, job DispatchJob) error {
	ctx, span := tracer.Start(ctx, "conversation.dispatch")
	defer span.End()

	lead, err := e.leads.GetByID(ctx, job.AgentID, job.LeadID)
	if err != nil {
		return fmt.Errorf("conversation: load lead for dispatch: %w", err)
	}

	if lead.OptedOut {
		e.logger.Info("dispatch aborted, lead opted out", "lead_id", lead.ID)
		e.metrics.ObserveOutbound("aborted", true)
		return nil
	}

	// A newer inbound message superseded this draft; the race resolves
	// toward the latest lead state.
	if lead.LastDraftText != "" && lead.LastDraftText != job.Draft {
		e.logger.Info("dispatch aborted, draft superseded", "lead_id", lead.ID)
		e.metrics.ObserveOutbound("aborted", true)
		return nil
	}

	// An appointment confirmed after this draft was composed cancels the
	// pending reply.
	if lead.ConfirmedAppointment != nil && lead.LastConfirmationAt != nil &&
		lead.LastConfirmationAt.After(job.ComposedAt) {
		e.logger.Info("dispatch aborted, appointment confirmed since compose", "lead_id", lead.ID)
		e.metrics.ObserveOutbound("aborted", true)
		return nil
	}

	// Dedup: identical to the immediately preceding automated message.
	// Still stamp the attempt so tight inbound loops don't re-enter.
	prev, err := e.messages.RecentAutomatedBodies(ctx, job.AgentID, job.LeadID, 1)
	if err != nil {
		e.logger.Warn("could not load last automated reply", "error", err, "lead_id", lead.ID)
	}
	if len(prev) > 0 && prev[0] == job.Draft {
		e.logger.Info("dispatch aborted, duplicate of last reply", "lead_id", lead.ID)
		e.metrics.ObserveOutbound("deduped", true)
		if err := e.leads.StampResponseAttempt(ctx, job.AgentID, job.LeadID, e.now()); err != nil {
			e.logger.Warn("could not stamp response attempt", "error", err, "lead_id", lead.ID)
		}
		return nil
	}

	// Queue redelivery carries the same draft hash; only the first claim
	// may send.
	claimed, err := e.guard.ClaimDraft(ctx, job.LeadID, job.Draft)
	if err != nil {
		return err
	}
	if !claimed {
		e.logger.Info("dispatch aborted, draft already claimed", "lead_id", lead.ID)
		return nil
	}

	ok, err := e.guard.AcquireCooldown(ctx, job.LeadID)
	if err != nil {
		return err
	}
	if !ok {
		e.logger.Info("dispatch aborted, cooldown active", "lead_id", lead.ID)
		e.metrics.ObserveOutbound("cooldown", true)
		return nil
	}

	req := messaging.SendRequest{To: job.To, From: job.From, Body: job.Draft}
	if job.SendAt != nil {
		if e.sender.SupportsScheduling() {
			req.SendAt = job.SendAt
		} else {
			e.logger.Warn("quiet hours deferral unavailable with fixed from number, sending now",
				"lead_id", lead.ID, "send_at", job.SendAt.UTC().Format("2006-01-02T15:04:05Z"))
		}
	}

	result, err := e.sender.Send(ctx, req)
	if err != nil {
		if relErr := e.guard.ReleaseCooldown(ctx, job.LeadID); relErr != nil {
			e.logger.Warn("cooldown release failed", "error", relErr, "lead_id", lead.ID)
		}
		if relErr := e.guard.ReleaseDraft(ctx, job.LeadID, job.Draft); relErr != nil {
			e.logger.Warn("draft release failed", "error", relErr, "lead_id", lead.ID)
		}
		e.metrics.ObserveOutbound("failed", false)
		return fmt.Errorf("conversation: send reply: %w", err)
	}

	now := e.now()
	status := messaging.StatusSent
	sentAt := &now
	if result.Scheduled {
		status = messaging.StatusScheduled
		sentAt = nil
	}
	msg := &messaging.Message{
		AgentID:           job.AgentID,
		LeadID:            job.LeadID,
		Direction:         messaging.DirectionOutbound,
		FromNumber:        job.From,
		ToNumber:          job.To,
		Body:              job.Draft,
		ProviderMessageID: result.ProviderMessageID,
		Status:            status,
		Automated:         true,
		QueuedAt:          &job.ComposedAt,
		SentAt:            sentAt,
	}
	if err := e.messages.RecordOutbound(ctx, msg); err != nil {
		e.logger.Error("could not record outbound message", "error", err, "lead_id", lead.ID)
	}
	if err := e.leads.StampResponseAttempt(ctx, job.AgentID, job.LeadID, now); err != nil {
		e.logger.Warn("could not stamp response attempt", "error", err, "lead_id", lead.ID)
	}

	e.metrics.ObserveOutbound(string(status), false)
	e.logger.Info("reply dispatched", "lead_id", lead.ID, "scheduled", result.Scheduled)
	return nil
}

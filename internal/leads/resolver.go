package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/coverlinehq/coverline/pkg/logging"
)

// LastOutboundFinder locates the lead the most recent outbound message to a
// number was threaded against. Implemented by the messaging store.
type LastOutboundFinder interface {
	LastOutboundLeadID(ctx context.Context, agentID, toNumber string) (string, error)
}

// Resolver maps a sending phone number to a lead for the owning agent,
// creating a minimal record when nothing matches.
type Resolver struct {
	repo     Repository
	outbound LastOutboundFinder
	logger   *logging.Logger
}

// NewResolver wires a resolver; outbound may be nil (skips the thread tier).
func NewResolver(repo Repository, outbound LastOutboundFinder, logger *logging.Logger) *Resolver {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{repo: repo, outbound: outbound, logger: logger}
}

// Resolve finds or creates the lead for sender from under agentID. Matching
// order: prior outbound thread, exact E.164, +1+last-10, anchored last-10
// suffix; every tier additionally requires the candidate's own stored phone
// to match the sender, so a mis-threaded outbound record cannot bleed one
// lead's conversation into another's.
func (r *Resolver) Resolve(ctx context.Context, agentID, from string) (*Lead, error) {
	e164 := NormalizeE164(from)
	if e164 == "" {
		return nil, ErrMissingPhone
	}

	if r.outbound != nil {
		if leadID, err := r.outbound.LastOutboundLeadID(ctx, agentID, e164); err == nil && leadID != "" {
			lead, err := r.repo.GetByID(ctx, agentID, leadID)
			if err == nil && lead.PhoneMatches(e164) {
				return lead, nil
			}
		}
	}

	if lead, err := r.repo.FindByExactPhone(ctx, agentID, e164); err == nil && lead.PhoneMatches(e164) {
		return lead, nil
	}

	if last := LastTen(e164); last != "" {
		if lead, err := r.repo.FindByExactPhone(ctx, agentID, "+1"+last); err == nil && lead.PhoneMatches(e164) {
			return lead, nil
		}
		if lead, err := r.repo.FindByLastTen(ctx, agentID, last); err == nil && lead.PhoneMatches(e164) {
			return lead, nil
		}
	}

	lead := &Lead{
		AgentID:           agentID,
		Phone:             e164,
		Source:            SourceInboundSMS,
		ConversationState: StateIdle,
	}
	if err := r.repo.Create(ctx, lead); err != nil {
		if errors.Is(err, ErrMissingAgentID) || errors.Is(err, ErrMissingPhone) {
			return nil, err
		}
		return nil, fmt.Errorf("leads: create fallback lead: %w", err)
	}
	r.logger.Info("created lead from inbound sms", "agent_id", agentID, "lead_id", lead.ID)
	return lead, nil
}

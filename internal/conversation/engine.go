package conversation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/coverlinehq/coverline/internal/agents"
	"github.com/coverlinehq/coverline/internal/booking"
	"github.com/coverlinehq/coverline/internal/compliance"
	"github.com/coverlinehq/coverline/internal/delivery"
	"github.com/coverlinehq/coverline/internal/intent"
	"github.com/coverlinehq/coverline/internal/leads"
	"github.com/coverlinehq/coverline/internal/messaging"
	"github.com/coverlinehq/coverline/internal/notify"
	"github.com/coverlinehq/coverline/internal/observability/metrics"
	"github.com/coverlinehq/coverline/internal/reply"
	"github.com/coverlinehq/coverline/pkg/logging"
)

var tracer = otel.Tracer("coverline.internal.conversation")

// CalendarProvider yields a free/busy calendar for an agent's connected
// calendar id. A nil calendar (no id configured) disables booking checks.
type CalendarProvider interface {
	ForCalendarID(ctx context.Context, calendarID string) (booking.Calendar, error)
}

// Engine runs the conversation pipeline for inbound jobs and the fire-time
// checks for dispatch jobs.
type Engine struct {
	agents    agents.Repository
	leads     leads.Repository
	messages  messaging.Store
	detector  *compliance.Detector
	gate      compliance.RegistrationGate
	extractor *intent.Extractor
	calendars CalendarProvider
	guard     *delivery.Guard
	scheduler *delivery.Scheduler
	queue     delivery.Queue
	sender    messaging.Sender
	notifier  *notify.Service
	metrics   *metrics.MessagingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// EngineDeps carries the engine's collaborators. Calendars, Notifier, and
// Metrics are optional; everything else is required.
type EngineDeps struct {
	Agents    agents.Repository
	Leads     leads.Repository
	Messages  messaging.Store
	Detector  *compliance.Detector
	Extractor *intent.Extractor
	Calendars CalendarProvider
	Guard     *delivery.Guard
	Scheduler *delivery.Scheduler
	Queue     delivery.Queue
	Sender    messaging.Sender
	Notifier  *notify.Service
	Metrics   *metrics.MessagingMetrics
	Logger    *logging.Logger
}

func NewEngine(deps EngineDeps) *Engine {
	if deps.Agents == nil || deps.Leads == nil || deps.Messages == nil {
		panic("conversation: agents, leads, and messages stores are required")
	}
	if deps.Detector == nil {
		deps.Detector = compliance.NewDetector()
	}
	if deps.Extractor == nil {
		panic("conversation: extractor is required")
	}
	if deps.Guard == nil || deps.Scheduler == nil || deps.Queue == nil || deps.Sender == nil {
		panic("conversation: guard, scheduler, queue, and sender are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Engine{
		agents:    deps.Agents,
		leads:     deps.Leads,
		messages:  deps.Messages,
		detector:  deps.Detector,
		extractor: deps.Extractor,
		calendars: deps.Calendars,
		guard:     deps.Guard,
		scheduler: deps.Scheduler,
		queue:     deps.Queue,
		sender:    deps.Sender,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// EnqueueInbound puts a resolved webhook message onto the queue. Called by
// the HTTP handler; processing happens on the worker.
func (e *Engine) EnqueueInbound(ctx context.Context, job InboundJob) error {
	body, err := encodePayload(queuePayload{Kind: jobKindInbound, Inbound: &job})
	if err != nil {
		return err
	}
	if err := e.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("conversation: failed to enqueue inbound job: %w", err)
	}
	return nil
}

// HandleInbound runs the pipeline for one inbound message: compliance gate,
// intent extraction, booking negotiation, composition, then a delayed
// dispatch job. Business suppressions return nil so the queue entry is not
// redelivered; only infrastructure failures propagate.
func (e *Engine) HandleInbound(ctx context.Context, job InboundJob) error {
	ctx, span := tracer.Start(ctx, "conversation.inbound")
	defer span.End()
	span.SetAttributes(attribute.String("coverline.lead_id", job.LeadID))

	agent, err := e.agents.GetByID(ctx, job.AgentID)
	if err != nil {
		return fmt.Errorf("conversation: load agent: %w", err)
	}
	lead, err := e.leads.GetByID(ctx, job.AgentID, job.LeadID)
	if err != nil {
		return fmt.Errorf("conversation: load lead: %w", err)
	}

	switch e.detector.Classify(job.Body) {
	case compliance.KeywordStop:
		lead.OptOut()
		if err := e.leads.Update(ctx, lead); err != nil {
			return fmt.Errorf("conversation: persist opt-out: %w", err)
		}
		e.logger.Info("lead opted out", "lead_id", lead.ID)
		e.metrics.ObserveInbound("sms", "opt_out")
		return nil
	case compliance.KeywordHelp:
		e.logger.Info("help keyword received", "lead_id", lead.ID)
		e.metrics.ObserveInbound("sms", "help")
		return nil
	case compliance.KeywordStart:
		lead.OptIn()
		if err := e.leads.Update(ctx, lead); err != nil {
			return fmt.Errorf("conversation: persist opt-in: %w", err)
		}
		e.logger.Info("lead opted back in", "lead_id", lead.ID)
		e.metrics.ObserveInbound("sms", "opt_in")
		return nil
	}

	if lead.OptedOut {
		e.logger.Info("reply suppressed, lead opted out", "lead_id", lead.ID)
		e.metrics.ObserveOutbound("suppressed", true)
		return nil
	}

	if dec := e.gate.Check(agent.A2PReady, job.To, job.From); !dec.Allowed {
		e.logger.Warn(dec.Note, "agent_id", agent.ID, "lead_id", lead.ID)
		e.metrics.ObserveOutbound("suppressed", true)
		return nil
	}

	draft, err := e.composeReply(ctx, agent, lead, job)
	if err != nil {
		return err
	}
	if draft == "" {
		return nil
	}

	draft = reply.Sanitize(draft)
	lead.LastDraftText = draft
	if err := e.leads.Update(ctx, lead); err != nil {
		return fmt.Errorf("conversation: persist lead state: %w", err)
	}

	plan := e.scheduler.Plan(agent.Location())
	dispatch := DispatchJob{
		AgentID:    agent.ID,
		LeadID:     lead.ID,
		To:         job.From,
		From:       job.To,
		Draft:      draft,
		DraftHash:  delivery.DraftHash(draft),
		SendAt:     plan.SendAt,
		ComposedAt: e.now(),
	}
	body, err := encodePayload(queuePayload{Kind: jobKindDispatch, Dispatch: &dispatch})
	if err != nil {
		return err
	}
	if err := e.queue.SendDelayed(ctx, body, plan.Delay); err != nil {
		return fmt.Errorf("conversation: failed to enqueue dispatch job: %w", err)
	}

	e.logger.Info("reply drafted",
		"lead_id", lead.ID,
		"delay", plan.Delay.String(),
		"deferred", plan.SendAt != nil)
	return nil
}

// composeReply picks the reply source for one inbound message: canned rule,
// booking negotiation, model free text, or the generic scheduling prompt.
// Returns an empty draft when no reply should be sent.
func (e *Engine) composeReply(ctx context.Context, agent *agents.Agent, lead *leads.Lead, job InboundJob) (string, error) {
	ctx = intent.WithUsageTag(ctx, intent.UsageTag{AgentID: agent.ID, LeadID: lead.ID})

	recent, err := e.messages.RecentAutomatedBodies(ctx, agent.ID, lead.ID, 5)
	if err != nil {
		e.logger.Warn("could not load recent replies", "error", err, "lead_id", lead.ID)
	}

	outcome, err := e.extractor.Extract(ctx, intent.Input{
		Body:          job.Body,
		LeadState:     lead.USState,
		LastProposed:  lead.LastProposed,
		RecentReplies: recent,
		Now:           e.now(),
	})
	if err != nil {
		return "", fmt.Errorf("conversation: extract intent: %w", err)
	}

	if outcome.Usage.TotalTokens > 0 {
		tag, _ := intent.UsageTagFrom(ctx)
		e.metrics.ObserveModelUsage(tag.AgentID, outcome.Usage.InputTokens, outcome.Usage.OutputTokens)
	}

	switch {
	case outcome.CannedReply != "":
		text := reply.VaryForRepeatTopic(outcome.CannedReply, lead.LastAskedTopics, outcome.Topic)
		if err := lead.EnterQA(outcome.Topic); err != nil {
			return "", fmt.Errorf("conversation: enter qa: %w", err)
		}
		return text, nil

	case outcome.HasTime():
		return e.negotiateBooking(ctx, agent, lead, outcome)

	case outcome.FreeText != "":
		return outcome.FreeText, nil

	default:
		return reply.GenericSchedulingPrompt, nil
	}
}

// negotiateBooking evaluates the extracted instant against the agent's
// calendar and composes either a confirmation or a suggestion-bearing
// rejection. Booking failures are never surfaced as errors to the lead.
func (e *Engine) negotiateBooking(ctx context.Context, agent *agents.Agent, lead *leads.Lead, outcome intent.Outcome) (string, error) {
	loc := agent.Location()
	requested := outcome.ProposedTime

	var cal booking.Calendar
	if e.calendars != nil && agent.CalendarID != "" {
		var err error
		cal, err = e.calendars.ForCalendarID(ctx, agent.CalendarID)
		if err != nil {
			e.logger.Error("calendar unavailable", "error", err, "agent_id", agent.ID)
			cal = nil
		}
	}

	duration := 30
	if agent.Booking != nil {
		duration = agent.Booking.SlotMinutes()
	}

	res := booking.Evaluate(ctx, cal, agent.Booking, requested, duration, booking.Options{SuggestionLimit: 2})
	e.metrics.ObserveBooking(string(res.Reason))

	if res.OK {
		now := e.now()
		if err := lead.ConfirmAppointment(requested, now); err != nil {
			// Opted-out leads never reach here; treat as a state bug.
			return "", fmt.Errorf("conversation: confirm appointment: %w", err)
		}
		if agent.NotifyEmail != "" {
			e.notifier.AppointmentBooked(ctx, agent.NotifyEmail, agent.Name, lead.Phone, requested, loc)
		}
		return reply.Confirmation(requested, loc), nil
	}

	if len(res.Suggestions) > 0 {
		if err := lead.ProposeTime(res.Suggestions[0]); err != nil {
			return "", fmt.Errorf("conversation: propose time: %w", err)
		}
	}
	return reply.FromRejection(res, loc), nil
}

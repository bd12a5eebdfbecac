package handlers

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/coverlinehq/coverline/internal/agents"
	"github.com/coverlinehq/coverline/internal/conversation"
	"github.com/coverlinehq/coverline/internal/events"
	"github.com/coverlinehq/coverline/internal/leads"
	"github.com/coverlinehq/coverline/internal/messaging"
	observemetrics "github.com/coverlinehq/coverline/internal/observability/metrics"
	"github.com/coverlinehq/coverline/pkg/logging"
)

var webhookTracer = otel.Tracer("coverline.internal.http.handlers")

// emptyTwiML acknowledges a Twilio webhook without instructing any action.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type conversationPublisher interface {
	EnqueueInbound(ctx context.Context, job conversation.InboundJob) error
}

// TwilioWebhookHandler handles the inbound SMS webhook and the delivery
// status callback. Authentication failure is the only non-200 path; every
// business failure acknowledges with 200 so Twilio does not retry-storm.
type TwilioWebhookHandler struct {
	agents       agents.Repository
	resolver     *leads.Resolver
	store        messaging.Store
	processed    events.Store
	conversation conversationPublisher
	logger       *logging.Logger
	metrics      *observemetrics.MessagingMetrics

	authToken     string
	bypassToken   string
	allowUnsigned bool
	production    bool
}

// TwilioWebhookConfig wires the handler's collaborators.
type TwilioWebhookConfig struct {
	Agents       agents.Repository
	Resolver     *leads.Resolver
	Store        messaging.Store
	Processed    events.Store
	Conversation conversationPublisher
	Logger       *logging.Logger
	Metrics      *observemetrics.MessagingMetrics

	AuthToken     string
	BypassToken   string
	AllowUnsigned bool
	Production    bool
}

func NewTwilioWebhookHandler(cfg TwilioWebhookConfig) *TwilioWebhookHandler {
	if cfg.Agents == nil || cfg.Resolver == nil || cfg.Store == nil || cfg.Processed == nil {
		panic("handlers: agents, resolver, store, and processed tracker are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &TwilioWebhookHandler{
		agents:        cfg.Agents,
		resolver:      cfg.Resolver,
		store:         cfg.Store,
		processed:     cfg.Processed,
		conversation:  cfg.Conversation,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		authToken:     cfg.AuthToken,
		bypassToken:   cfg.BypassToken,
		allowUnsigned: cfg.AllowUnsigned,
		production:    cfg.Production,
	}
}

// HandleInbound processes one inbound SMS webhook.
func (h *TwilioWebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "webhook.twilio.inbound")
	defer span.End()
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency("inbound_sms", time.Since(start).Seconds())
	}()

	// Unexpected internal panics must still acknowledge; a 5xx would make
	// Twilio redeliver and duplicate inbound processing.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("inbound webhook panicked", "panic", rec)
			h.ackTwiML(w)
		}
	}()

	if !h.authorized(r) {
		h.metrics.ObserveInbound("inbound_sms", "auth_failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	req, err := messaging.ParseTwilioWebhook(r)
	if err != nil || req.MessageSid == "" || req.From == "" || req.To == "" {
		h.logger.Warn("malformed inbound webhook acknowledged and dropped", "error", err)
		h.metrics.ObserveInbound("inbound_sms", "malformed")
		h.ackTwiML(w)
		return
	}

	first, err := h.processed.MarkProcessed(ctx, "twilio", req.MessageSid)
	if err != nil {
		h.logger.Error("processed-event claim failed, acknowledging", "error", err, "message_sid", req.MessageSid)
		h.ackTwiML(w)
		return
	}
	if !first {
		h.metrics.ObserveInbound("inbound_sms", "replay")
		h.ackTwiML(w)
		return
	}

	agent, err := h.agents.GetBySMSNumber(ctx, leads.NormalizeE164(req.To))
	if err != nil {
		h.logger.Warn("no agent owns recipient number, dropping", "to", req.To, "error", err)
		h.metrics.ObserveInbound("inbound_sms", "no_agent")
		h.ackTwiML(w)
		return
	}

	lead, err := h.resolver.Resolve(ctx, agent.ID, req.From)
	if err != nil {
		h.logger.Error("lead resolution failed, dropping", "error", err, "from", req.From)
		h.metrics.ObserveInbound("inbound_sms", "no_lead")
		h.ackTwiML(w)
		return
	}

	created, err := h.store.RecordInbound(ctx, &messaging.Message{
		AgentID:           agent.ID,
		LeadID:            lead.ID,
		FromNumber:        req.From,
		ToNumber:          req.To,
		Body:              req.Body,
		ProviderMessageID: req.MessageSid,
	})
	if err != nil {
		h.logger.Error("could not record inbound message", "error", err, "message_sid", req.MessageSid)
		h.ackTwiML(w)
		return
	}
	if !created {
		// Ledger already has this SID; a replay slipped past the event claim.
		h.metrics.ObserveInbound("inbound_sms", "replay")
		h.ackTwiML(w)
		return
	}

	if h.conversation != nil {
		job := conversation.InboundJob{
			MessageSID: req.MessageSid,
			AgentID:    agent.ID,
			LeadID:     lead.ID,
			From:       req.From,
			To:         req.To,
			Body:       req.Body,
			ReceivedAt: start.UTC(),
		}
		if err := h.conversation.EnqueueInbound(ctx, job); err != nil {
			h.logger.Error("could not enqueue inbound job", "error", err, "lead_id", lead.ID)
		}
	}

	h.metrics.ObserveInbound("inbound_sms", "accepted")
	h.ackTwiML(w)
}

// HandleStatus applies a Twilio delivery status callback to the ledger.
func (h *TwilioWebhookHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency("status_callback", time.Since(start).Seconds())
	}()

	if !h.authorized(r) {
		h.metrics.ObserveInbound("status_callback", "auth_failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ackTwiML(w)
		return
	}
	sid := r.FormValue("MessageSid")
	status, ok := mapCallbackStatus(r.FormValue("MessageStatus"))
	if sid == "" || !ok {
		h.metrics.ObserveInbound("status_callback", "ignored")
		h.ackTwiML(w)
		return
	}

	if err := h.store.UpdateStatusByProviderID(ctx, sid, status, time.Now().UTC()); err != nil {
		h.logger.Warn("status callback for unknown message", "message_sid", sid, "error", err)
	}
	h.metrics.ObserveInbound("status_callback", string(status))
	h.ackTwiML(w)
}

func (h *TwilioWebhookHandler) authorized(r *http.Request) bool {
	if messaging.BypassAuthorized(r, h.bypassToken, h.allowUnsigned, h.production) {
		return true
	}
	return messaging.ValidateTwilioSignature(r, h.authToken, messaging.BuildAbsoluteURL(r))
}

func (h *TwilioWebhookHandler) ackTwiML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}

// mapCallbackStatus translates Twilio's callback vocabulary onto the ledger's
// status lifecycle. Unknown values are ignored rather than guessed.
func mapCallbackStatus(raw string) (messaging.Status, bool) {
	switch raw {
	case "queued", "accepted":
		return messaging.StatusQueued, true
	case "scheduled":
		return messaging.StatusScheduled, true
	case "sent", "sending":
		return messaging.StatusSent, true
	case "delivered":
		return messaging.StatusDelivered, true
	case "failed", "undelivered", "canceled":
		return messaging.StatusFailed, true
	default:
		return "", false
	}
}

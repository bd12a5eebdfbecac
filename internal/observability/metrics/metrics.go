package metrics

import "github.com/prometheus/client_golang/prometheus"

// MessagingMetrics exposes counters/histograms for the SMS flows.
type MessagingMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
	bookingTotal   *prometheus.CounterVec
	modelTokens    *prometheus.CounterVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coverline",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound Twilio webhooks",
		}, []string{"event_type", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coverline",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound Twilio sends",
		}, []string{"status", "suppressed"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coverline",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of Twilio webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coverline",
			Subsystem: "booking",
			Name:      "evaluations_total",
			Help:      "Booking enforcement evaluations by outcome reason",
		}, []string{"reason"}),
		modelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coverline",
			Subsystem: "intent",
			Name:      "model_tokens_total",
			Help:      "Model tokens consumed, attributed to the billed agent",
		}, []string{"agent_id", "kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.webhookLatency, m.bookingTotal, m.modelTokens)
	return m
}

func (m *MessagingMetrics) ObserveInbound(eventType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(eventType, status).Inc()
}

func (m *MessagingMetrics) ObserveOutbound(status string, suppressed bool) {
	if m == nil {
		return
	}
	label := "false"
	if suppressed {
		label = "true"
	}
	m.outboundTotal.WithLabelValues(status, label).Inc()
}

func (m *MessagingMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}

// ObserveModelUsage records model token spend against an agent. Unattributed
// usage (no billing tag) is counted under "unattributed" so spend is never
// silently dropped.
func (m *MessagingMetrics) ObserveModelUsage(agentID string, inputTokens, outputTokens int32) {
	if m == nil {
		return
	}
	if agentID == "" {
		agentID = "unattributed"
	}
	if inputTokens > 0 {
		m.modelTokens.WithLabelValues(agentID, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.modelTokens.WithLabelValues(agentID, "output").Add(float64(outputTokens))
	}
}

func (m *MessagingMetrics) ObserveBooking(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "ok"
	}
	m.bookingTotal.WithLabelValues(reason).Inc()
}

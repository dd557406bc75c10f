package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges for the conversational core. Registered on the
// default registry and served by promhttp in the app.
var (
	TurnsHandled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpdesk_turns_total",
		Help: "Conversational turns processed by the orchestrator.",
	})
	FAQHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpdesk_faq_hits_total",
		Help: "Turns answered directly from the FAQ knowledge base.",
	})
	ProviderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpdesk_provider_failures_total",
		Help: "Completion provider calls that failed and were degraded.",
	})
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpdesk_sessions_created_total",
		Help: "Sessions materialized on first user message.",
	})
	MessagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_messages_appended_total",
		Help: "Transcript messages appended, by role.",
	}, []string{"role"})
	EscalationsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpdesk_escalations_opened_total",
		Help: "Escalation records created or re-opened.",
	})
	EscalationsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpdesk_escalations_resolved_total",
		Help: "Escalation records resolved by a handler.",
	})
	OpenEscalations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "helpdesk_open_escalations",
		Help: "Escalations currently pending or in progress.",
	})
	HighPriorityOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "helpdesk_open_escalations_high_priority",
		Help: "Open escalations at high or urgent priority.",
	})
)

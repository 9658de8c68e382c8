package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/janhq/money-coach/internal/domain/chatsession"
	"github.com/janhq/money-coach/internal/domain/conversation"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "money_coach",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "money_coach",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "money_coach",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by mode, chat type and outcome",
		},
		[]string{"mode", "chat_type", "outcome"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "money_coach",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end chat turn duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "money_coach",
			Subsystem: "upstream",
			Name:      "duration_seconds",
			Help:      "AI service call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"chat_type"},
	)

	UpstreamFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "money_coach",
			Subsystem: "upstream",
			Name:      "failures_total",
			Help:      "AI service call failures by kind (timeout, network, http_status, decode)",
		},
		[]string{"chat_type", "kind"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "money_coach",
			Subsystem: "identity",
			Name:      "webhook_events_total",
			Help:      "Identity webhook deliveries by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	UsersProvisionedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "money_coach",
			Subsystem: "identity",
			Name:      "lazy_provisioning_total",
			Help:      "Users created by lazy provisioning, by outcome (created or reselected)",
		},
		[]string{"outcome"},
	)
)

// RecordProvisioning counts a lazily provisioned user. Lookups of known users
// are not counted.
func RecordProvisioning(outcome string) {
	if outcome == "" || outcome == "existing" {
		return
	}
	UsersProvisionedTotal.WithLabelValues(outcome).Inc()
}

// RecordRequest records an HTTP request against its route template.
func RecordRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	RequestsTotal.WithLabelValues(method, route, code).Inc()
	RequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

// RecordUpstream records one AI service call; kind is empty on success.
func RecordUpstream(chatType, kind string, elapsed time.Duration) {
	UpstreamDuration.WithLabelValues(chatType).Observe(elapsed.Seconds())
	if kind != "" {
		UpstreamFailuresTotal.WithLabelValues(chatType, kind).Inc()
	}
}

// RecordWebhookEvent records a processed identity webhook delivery
func RecordWebhookEvent(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// TurnRecorder feeds orchestrator measurements into prometheus. Unknown chat
// types share one label so caller input cannot grow the series count.
type TurnRecorder struct{}

var _ chatsession.TurnRecorder = TurnRecorder{}

func NewTurnRecorder() chatsession.TurnRecorder {
	return TurnRecorder{}
}

func (TurnRecorder) RecordTurn(mode chatsession.Mode, chatType conversation.ChatType, outcome string, elapsed time.Duration) {
	label := "invalid"
	if parsed, ok := conversation.ParseChatType(string(chatType)); ok {
		label = string(parsed)
	}
	TurnsTotal.WithLabelValues(string(mode), label, outcome).Inc()
	TurnDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

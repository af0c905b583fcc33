package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engage_webhook_events_total",
		Help: "The total number of webhook events received, by type",
	}, []string{"type"})

	CommentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engage_comments_processed_total",
		Help: "The total number of comment events processed, by terminal outcome",
	}, []string{"outcome"})

	CommentsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engage_comments_removed_total",
		Help: "The total number of comments removed by moderation",
	})

	DMsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engage_dms_sent_total",
		Help: "The total number of outbound messages, by status",
	}, []string{"status"})

	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engage_chat_messages_total",
		Help: "The total number of chat messages persisted, by role",
	}, []string{"role"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engage_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	GraphAPIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engage_graph_api_request_duration_seconds",
		Help:    "Duration of Meta Graph API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	PendingDMBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engage_pending_dm_backlog_size",
		Help: "Number of comments with a generated DM that was never delivered",
	})
)

// Comment outcome label values for CommentsProcessed.
const (
	OutcomeReplied   = "replied"
	OutcomeRemoved   = "removed"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for webhook event metrics
	webhookEventLabels = []string{"event_type", "instance"}

	WebhookEventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_attendance_webhook_events_received_total",
			Help: "Total number of webhook events received from the gateway.",
		},
		webhookEventLabels,
	)
	WebhookEventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_attendance_webhook_events_processed_total",
			Help: "Total number of webhook events successfully processed.",
		},
		webhookEventLabels,
	)
	WebhookEventsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_attendance_webhook_events_failed_total",
			Help: "Total number of webhook events whose processing failed (swallowed at the boundary).",
		},
		[]string{"event_type", "instance", "error_type"},
	)
	WebhookProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_attendance_webhook_processing_duration_seconds",
			Help:    "Histogram of webhook event processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		webhookEventLabels,
	)
)

// Chatbot flow metrics
var (
	BotTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_attendance_bot_transitions_total",
			Help: "Total number of chatbot state transitions applied.",
		},
		[]string{"from_state", "to_state"},
	)
	BotRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_attendance_bot_replies_total",
			Help: "Total number of automatic chatbot replies dispatched, labeled by final status.",
		},
		[]string{"status"},
	)
)

// Gateway client metrics
var (
	gatewayLabels = []string{"operation", "status"}

	GatewayRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_attendance_gateway_request_duration_seconds",
			Help:    "Histogram of outbound gateway API call durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		gatewayLabels,
	)
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_attendance_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// Reply worker pool metrics
var (
	replyTasksSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_attendance_reply_tasks_submitted_total",
		Help: "Total number of reply tasks submitted to the worker pool.",
	})
	replyTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_attendance_reply_tasks_processed_total",
			Help: "Total number of reply tasks processed by the worker pool, labeled by final status.",
		},
		[]string{"status"},
	)
	replyProcessingDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wa_attendance_reply_processing_duration_seconds",
		Help:    "Histogram of processing durations for reply tasks.",
		Buckets: prometheus.DefBuckets,
	})
	replyQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wa_attendance_reply_queue_length",
		Help: "Approximate number of tasks waiting in the reply worker pool queue.",
	})
)

// InitMetrics toggles metric collection. Metrics register themselves via
// promauto; disabling only stops the helpers from recording.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncWebhookEventsReceived increments the events received counter.
func IncWebhookEventsReceived(eventType, instance string) {
	if !metricsEnabled {
		return
	}
	WebhookEventsReceivedTotal.WithLabelValues(eventType, sanitizeInstance(instance)).Inc()
}

// IncWebhookEventsProcessed increments the events processed counter.
func IncWebhookEventsProcessed(eventType, instance string) {
	if !metricsEnabled {
		return
	}
	WebhookEventsProcessedTotal.WithLabelValues(eventType, sanitizeInstance(instance)).Inc()
}

// IncWebhookEventsFailed increments the events failed counter.
func IncWebhookEventsFailed(eventType, instance, errorType string) {
	if !metricsEnabled {
		return
	}
	WebhookEventsFailedTotal.WithLabelValues(eventType, sanitizeInstance(instance), errorType).Inc()
}

// ObserveWebhookProcessingDuration records the duration of one webhook event.
func ObserveWebhookProcessingDuration(eventType, instance string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	WebhookProcessingDurationSeconds.WithLabelValues(eventType, sanitizeInstance(instance)).Observe(duration.Seconds())
}

// IncBotTransition records one applied chatbot state transition.
func IncBotTransition(from, to string) {
	if !metricsEnabled {
		return
	}
	BotTransitionsTotal.WithLabelValues(from, to).Inc()
}

// IncBotReply records the outcome of one dispatched chatbot reply.
func IncBotReply(status string) {
	if !metricsEnabled {
		return
	}
	BotRepliesTotal.WithLabelValues(status).Inc()
}

// ObserveGatewayRequestDuration records the duration of one gateway API call.
func ObserveGatewayRequestDuration(operation string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	GatewayRequestDurationSeconds.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// ObserveDbOperationDuration records the duration and status of a database operation.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(duration.Seconds())
}

// IncReplyTasksSubmitted increments the counter for submitted reply tasks.
func IncReplyTasksSubmitted() {
	if !metricsEnabled {
		return
	}
	replyTasksSubmittedTotal.Inc()
}

// IncReplyTasksProcessed increments the counter for processed reply tasks.
func IncReplyTasksProcessed(status string) {
	if !metricsEnabled {
		return
	}
	replyTasksProcessedTotal.WithLabelValues(status).Inc()
}

// ObserveReplyProcessingDuration records the duration of one reply task.
func ObserveReplyProcessingDuration(duration time.Duration) {
	if !metricsEnabled {
		return
	}
	replyProcessingDurationSeconds.Observe(duration.Seconds())
}

// SetReplyQueueLength sets the gauge for the reply pool queue length.
func SetReplyQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	replyQueueLength.Set(float64(length))
}

// sanitizeInstance ensures the instance label is valid or returns a default value.
func sanitizeInstance(instance string) string {
	if instance == "" {
		return "unknown"
	}
	return instance
}

// SanitizeErrorType buckets an error string into a low-cardinality label value.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	switch {
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "SQL"), strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "connection"):
		return "database"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "gateway"):
		return "gateway"
	case strings.Contains(errStr, "nats"), strings.Contains(errStr, "jetstream"):
		return "nats"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unmarshal"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}

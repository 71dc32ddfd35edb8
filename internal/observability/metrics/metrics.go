package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the lead-capture conversation.
type ChatMetrics struct {
	conversationsStarted prometheus.Counter
	transitions          *prometheus.CounterVec
	rejections           *prometheus.CounterVec
	leadsCaptured        *prometheus.CounterVec
	storeFailures        prometheus.Counter
	notifications        *prometheus.CounterVec
	notifyLatency        *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		conversationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ace",
			Subsystem: "chatbot",
			Name:      "conversations_started_total",
			Help:      "Conversations that displayed the greeting",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ace",
			Subsystem: "chatbot",
			Name:      "step_transitions_total",
			Help:      "Conversation step changes by destination step",
		}, []string{"step"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ace",
			Subsystem: "chatbot",
			Name:      "validation_rejections_total",
			Help:      "Inputs rejected with a same-step reprompt",
		}, []string{"step"}),
		leadsCaptured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ace",
			Subsystem: "chatbot",
			Name:      "leads_captured_total",
			Help:      "Completed conversations",
		}, []string{"after_hours"}),
		storeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ace",
			Subsystem: "chatbot",
			Name:      "lead_store_failures_total",
			Help:      "Lead store appends that failed and were swallowed",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ace",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Lead notification attempts",
		}, []string{"channel", "status"}),
		notifyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ace",
			Subsystem: "notify",
			Name:      "delivery_latency_seconds",
			Help:      "Latency of lead notification attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.conversationsStarted,
		m.transitions,
		m.rejections,
		m.leadsCaptured,
		m.storeFailures,
		m.notifications,
		m.notifyLatency,
	)
	return m
}

func (m *ChatMetrics) ObserveConversationStarted() {
	if m == nil {
		return
	}
	m.conversationsStarted.Inc()
}

func (m *ChatMetrics) ObserveTransition(step string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(step).Inc()
}

func (m *ChatMetrics) ObserveRejection(step string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(step).Inc()
}

func (m *ChatMetrics) ObserveLeadCaptured(afterHours bool) {
	if m == nil {
		return
	}
	label := "false"
	if afterHours {
		label = "true"
	}
	m.leadsCaptured.WithLabelValues(label).Inc()
}

func (m *ChatMetrics) ObserveStoreFailure() {
	if m == nil {
		return
	}
	m.storeFailures.Inc()
}

// ObserveNotification records one delivery attempt. status is "ok", "error" or "dropped".
func (m *ChatMetrics) ObserveNotification(channel, status string, seconds float64) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, status).Inc()
	if status != "dropped" {
		m.notifyLatency.WithLabelValues(channel).Observe(seconds)
	}
}

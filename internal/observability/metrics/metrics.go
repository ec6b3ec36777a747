package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics exposes counters/histograms for the lead qualification flow.
// All methods are nil-safe so callers can run without metrics wired.
type ChatMetrics struct {
	requestsTotal      *prometheus.CounterVec
	leadScoreTotal     *prometheus.CounterVec
	providerLatency    *prometheus.HistogramVec
	notificationsTotal *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadengine",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat requests by outcome",
		}, []string{"outcome"}),
		leadScoreTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadengine",
			Subsystem: "chat",
			Name:      "lead_score_total",
			Help:      "Lead tier assignments per scored turn",
		}, []string{"tier"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadengine",
			Subsystem: "chat",
			Name:      "provider_latency_seconds",
			Help:      "Latency of LLM provider completions",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadengine",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Lead notifications by delivery status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.leadScoreTotal, m.providerLatency, m.notificationsTotal)
	return m
}

func (m *ChatMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveLeadScore(tier string) {
	if m == nil {
		return
	}
	m.leadScoreTotal.WithLabelValues(tier).Inc()
}

func (m *ChatMetrics) ObserveProviderLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *ChatMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(status).Inc()
}

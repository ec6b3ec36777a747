package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestChatMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveRequest("ok")
	m.ObserveRequest("ok")
	m.ObserveRequest("degraded")
	m.ObserveLeadScore("hot")
	m.ObserveNotification("sent")

	assert.Equal(t, 2.0, counterValue(t, reg, "leadengine_chat_requests_total", "ok"))
	assert.Equal(t, 1.0, counterValue(t, reg, "leadengine_chat_requests_total", "degraded"))
	assert.Equal(t, 1.0, counterValue(t, reg, "leadengine_chat_lead_score_total", "hot"))
	assert.Equal(t, 1.0, counterValue(t, reg, "leadengine_notify_notifications_total", "sent"))
}

func TestChatMetricsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveProviderLatency("ok", 1.5)
	m.ObserveProviderLatency("ok", 0.1)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "leadengine_chat_provider_latency_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveRequest("ok")
	m.ObserveLeadScore("hot")
	m.ObserveProviderLatency("ok", 1)
	m.ObserveNotification("sent")
}

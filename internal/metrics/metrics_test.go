package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewIsSingleton(t *testing.T) {
	if New() != New() {
		t.Error("New() returned different instances")
	}
}

func TestRecord(t *testing.T) {
	m := New()
	before := counterValue(t, m.CallbacksTotal.WithLabelValues("ShowCard"))
	m.RecordCallback("ShowCard")
	if got := counterValue(t, m.CallbacksTotal.WithLabelValues("ShowCard")); got != before+1 {
		t.Errorf("callbacks = %v, want %v", got, before+1)
	}

	sent := counterValue(t, m.RemindersTotal.WithLabelValues("sent"))
	failed := counterValue(t, m.RemindersTotal.WithLabelValues("failed"))
	m.RecordReminder(true)
	m.RecordReminder(false)
	m.RecordReminder(false)
	if got := counterValue(t, m.RemindersTotal.WithLabelValues("sent")); got != sent+1 {
		t.Errorf("sent = %v, want %v", got, sent+1)
	}
	if got := counterValue(t, m.RemindersTotal.WithLabelValues("failed")); got != failed+2 {
		t.Errorf("failed = %v, want %v", got, failed+2)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordEvent("message", time.Millisecond)
	m.RecordCallback("x")
	m.RecordDeliveryFailure("send")
	m.RecordPanic()
	m.RecordReminder(true)
	m.RecordSessionStart("typed")
}

func TestHandlerExposesMetrics(t *testing.T) {
	New().RecordEvent("message", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "cardbot_events_total") {
		t.Error("metrics output is missing cardbot_events_total")
	}
}

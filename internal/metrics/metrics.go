// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the bot's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	EventsTotal      *prometheus.CounterVec
	CallbacksTotal   *prometheus.CounterVec
	DeliveryFailures *prometheus.CounterVec
	EventDuration    *prometheus.HistogramVec
	PanicsTotal      prometheus.Counter
	RemindersTotal   *prometheus.CounterVec
	SessionsStarted  *prometheus.CounterVec
}

// New returns the process-wide Metrics, registering collectors on first
// use.
//
// Metrics:
//   - cardbot_events_total{type} - inbound events handled
//   - cardbot_callbacks_total{kind} - button presses by payload kind
//   - cardbot_delivery_failures_total{op} - failed outbound calls
//   - cardbot_event_duration_seconds{type} - handler latency
//   - cardbot_panics_total - recovered handler panics
//   - cardbot_reminders_total{result} - reminder deliveries
//   - cardbot_sessions_started_total{mode} - learning sessions started
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			EventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cardbot_events_total",
					Help: "Total number of inbound events handled",
				},
				[]string{"type"}, // "message" or "callback"
			),
			CallbacksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cardbot_callbacks_total",
					Help: "Total number of button presses by payload kind",
				},
				[]string{"kind"},
			),
			DeliveryFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cardbot_delivery_failures_total",
					Help: "Total number of failed outbound chat calls",
				},
				[]string{"op"},
			),
			EventDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cardbot_event_duration_seconds",
					Help:    "Duration of event handling in seconds",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
				},
				[]string{"type"},
			),
			PanicsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "cardbot_panics_total",
					Help: "Total number of recovered handler panics",
				},
			),
			RemindersTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cardbot_reminders_total",
					Help: "Total number of reminder deliveries",
				},
				[]string{"result"}, // "sent" or "failed"
			),
			SessionsStarted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cardbot_sessions_started_total",
					Help: "Total number of learning sessions started",
				},
				[]string{"mode"},
			),
		}
	})
	return globalMetrics
}

// RecordEvent records a handled event and its latency.
func (m *Metrics) RecordEvent(eventType string, d time.Duration) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(eventType).Inc()
	m.EventDuration.WithLabelValues(eventType).Observe(d.Seconds())
}

// RecordCallback records a button press.
func (m *Metrics) RecordCallback(kind string) {
	if m == nil {
		return
	}
	m.CallbacksTotal.WithLabelValues(kind).Inc()
}

// RecordDeliveryFailure records a failed outbound call.
func (m *Metrics) RecordDeliveryFailure(op string) {
	if m == nil {
		return
	}
	m.DeliveryFailures.WithLabelValues(op).Inc()
}

// RecordPanic records a recovered panic.
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// RecordReminder records a reminder delivery attempt.
func (m *Metrics) RecordReminder(sent bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !sent {
		result = "failed"
	}
	m.RemindersTotal.WithLabelValues(result).Inc()
}

// RecordSessionStart records a started learning session.
func (m *Metrics) RecordSessionStart(mode string) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(mode).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

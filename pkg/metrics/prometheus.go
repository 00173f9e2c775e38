package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	MessagesHandled   *prometheus.HistogramVec
	HoldActions       *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
	ErrorsCount       *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesHandled: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "messages_handled_seconds",
			Help:      "Time taken to handle a queue message, by queue and outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{"queue", "success"}),
		HoldActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hold_actions_total",
			Help:      "The total number of hold reconciliations by outcome",
		}, []string{"outcome"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "The total number of outbound notifications by kind",
		}, []string{"kind"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}

// ObserveMessage records how long one message took to handle.
func (m *Metrics) ObserveMessage(queue string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.MessagesHandled.WithLabelValues(queue, strconv.FormatBool(success)).Observe(elapsed.Seconds())
}

// IncHoldAction counts a hold reconciliation outcome.
func (m *Metrics) IncHoldAction(outcome string) {
	if m == nil {
		return
	}
	m.HoldActions.WithLabelValues(outcome).Inc()
}

// AddNotifications counts notifications handed to the outbound publisher.
func (m *Metrics) AddNotifications(kind string, n int) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind).Add(float64(n))
}

// IncError counts a failed operation.
func (m *Metrics) IncError(operation string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(operation).Inc()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/accountd/accountd/internal/account"
)

// Metrics holds the accountd Prometheus collectors and implements account.Recorder.
type Metrics struct {
	OperationsTotal    *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates the accountd collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_operations_total",
				Help: "Total number of account operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accountd_operation_duration_seconds",
				Help:    "Account operation latency, including password hashing",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_notifications_total",
				Help: "Total number of reset notifications by delivery outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.NotificationsTotal)
	return m
}

// RecordOperation counts one finished operation and observes its latency.
func (m *Metrics) RecordOperation(operation, outcome string, elapsed time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordNotification counts one delivery attempt by outcome.
func (m *Metrics) RecordNotification(outcome string) {
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}

var _ account.Recorder = (*Metrics)(nil)

// Package metrics exposes Prometheus instruments for service use cases,
// escrow fund flows and outbox delivery.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/events"
	"github.com/alexanderramin/tranche/internal/service"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	useCases *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	events   *prometheus.CounterVec
	funds    *prometheus.CounterVec
	outbox   *prometheus.CounterVec
}

// New registers every instrument with reg. Pass a fresh registry in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		useCases: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tranche_use_case_total",
			Help: "Service use cases by outcome (ok or the error kind).",
		}, []string{"use_case", "outcome"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tranche_use_case_duration_seconds",
			Help:    "Service use case latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"use_case"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tranche_events_total",
			Help: "Committed domain events by type.",
		}, []string{"type"}),
		funds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tranche_funds_units_total",
			Help: "Funds moved, in whole units, by direction (deposited, released, refunded).",
		}, []string{"direction"}),
		outbox: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tranche_outbox_messages_total",
			Help: "Outbox publish outcomes (sent, retried, failed).",
		}, []string{"outcome"}),
	}
}

// ObserveUseCase implements service.UseCaseObserver.
func (m *Metrics) ObserveUseCase(_ context.Context, e service.UseCaseEvent) {
	outcome := "ok"
	if e.Err != nil {
		outcome = string(domain.KindOf(e.Err))
		if errors.Is(e.Err, context.Canceled) {
			outcome = "canceled"
		}
	}
	m.useCases.WithLabelValues(e.Name, outcome).Inc()
	m.latency.WithLabelValues(e.Name).Observe(e.Duration.Seconds())
}

// Publish implements events.Sink.
func (m *Metrics) Publish(_ context.Context, evs []domain.Event) {
	for _, e := range evs {
		m.events.WithLabelValues(string(e.Type)).Inc()
		switch p := e.Payload.(type) {
		case domain.FundsDepositedPayload:
			m.funds.WithLabelValues("deposited").Add(p.Amount.Float64())
		case domain.FundsReleasedPayload:
			m.funds.WithLabelValues("released").Add(p.Amount.Float64())
		case domain.FundsRefundedPayload:
			m.funds.WithLabelValues("refunded").Add(p.Amount.Float64())
		}
	}
}

// ObserveDispatch implements events.DispatchObserver.
func (m *Metrics) ObserveDispatch(r events.DispatchResult) {
	m.outbox.WithLabelValues("sent").Add(float64(r.Sent))
	m.outbox.WithLabelValues("retried").Add(float64(r.Retried))
	m.outbox.WithLabelValues("failed").Add(float64(r.Failed))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var (
	_ service.UseCaseObserver = (*Metrics)(nil)
	_ events.Sink             = (*Metrics)(nil)
	_ events.DispatchObserver = (*Metrics)(nil)
)

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	// CheckoutAttempts counts finished attempts by outcome (completed, failed, cancelled, blocked, fallback).
	CheckoutAttempts *prometheus.CounterVec
	PaymentResults   *prometheus.CounterVec
	OrdersCreated    *prometheus.CounterVec
	// PersistFailures counts payments captured without a saved order.
	PersistFailures prometheus.Counter
	CheckoutLatency prometheus.Histogram

	EventsPublished  *prometheus.CounterVec
	OutboxDelivered  prometheus.Counter
	OutboxRetried    prometheus.Counter
	OrderStatusMoves *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
	}, []string{"outcome"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_results_total",
	}, []string{"result"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
	}, []string{"payment_method"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_order_persist_failures_total",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_persist_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_events_published_total",
	}, []string{"type", "result"})
	outboxDelivered := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_outbox_delivered_total"})
	outboxRetried := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_outbox_retried_total"})
	statusMoves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_order_status_transitions_total",
	}, []string{"status"})

	r.MustRegister(
		collectors.NewGoCollector(),
		attempts,
		payments,
		orders,
		persistFailures,
		latency,
		events,
		outboxDelivered,
		outboxRetried,
		statusMoves,
	)

	return &Registry{
		reg:              r,
		CheckoutAttempts: attempts,
		PaymentResults:   payments,
		OrdersCreated:    orders,
		PersistFailures:  persistFailures,
		CheckoutLatency:  latency,
		EventsPublished:  events,
		OutboxDelivered:  outboxDelivered,
		OutboxRetried:    outboxRetried,
		OrderStatusMoves: statusMoves,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

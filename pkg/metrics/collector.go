// Package metrics exposes Prometheus metrics for the cover pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

// Collector owns a private registry so several collectors can coexist in tests.
// All methods are safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	swallowedErrors    *prometheus.CounterVec
	budgetSpent        prometheus.Gauge
	unitsGenerated     prometheus.Gauge
}

// NewCollector registers the pipeline metrics under namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Pipeline requests by outcome",
		}, []string{"outcome"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Artifact cache lookups by result",
		}, []string{"result"}), // hit, miss, error
		generationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Image generation call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"result"}),
		swallowedErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Collaborator errors handled by the error policy",
		}, []string{"collaborator", "behavior"}),
		budgetSpent: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_spent",
			Help:      "Total cost committed to the budget ledger",
		}),
		unitsGenerated: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_generated",
			Help:      "Units committed to the budget ledger",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordOutcome counts one finished request.
func (c *Collector) RecordOutcome(outcome models.Outcome) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordCacheLookup counts a cache lookup with result hit, miss or error.
func (c *Collector) RecordCacheLookup(result string) {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveGeneration records one generation call.
func (c *Collector) ObserveGeneration(result string, d time.Duration) {
	if c == nil {
		return
	}
	c.generationDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordCollaboratorError counts an error and the policy applied to it.
func (c *Collector) RecordCollaboratorError(collaborator, behavior string) {
	if c == nil {
		return
	}
	c.swallowedErrors.WithLabelValues(collaborator, behavior).Inc()
}

// SetBudget publishes the latest committed ledger state.
func (c *Collector) SetBudget(state models.BudgetState) {
	if c == nil {
		return
	}
	c.budgetSpent.Set(state.TotalCostSpent())
	c.unitsGenerated.Set(float64(state.UnitsGenerated))
}

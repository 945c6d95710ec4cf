package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the monitoring pipeline's counters on a private
// registry so tests can instantiate it repeatedly.
type Collector struct {
	registry *prometheus.Registry

	paymentsCreated    prometheus.Counter
	paymentTransitions *prometheus.CounterVec
	alertsGenerated    *prometheus.CounterVec
	evaluatorFailures  *prometheus.CounterVec
	evaluatorTimeouts  *prometheus.CounterVec
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		paymentsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "payments_created_total",
			Help: "Total number of payments created",
		}),
		paymentTransitions: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "payment_status_transitions_total",
			Help: "Total number of applied payment status transitions",
		}, []string{"status"}),
		alertsGenerated: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "monitoring_alerts_generated_total",
			Help: "Total number of alerts generated by the rule engine",
		}, []string{"rule_type", "severity"}),
		evaluatorFailures: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "rule_evaluator_failures_total",
			Help: "Total number of contained rule evaluator failures",
		}, []string{"rule_type"}),
		evaluatorTimeouts: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "rule_evaluator_timeouts_total",
			Help: "Total number of rule evaluations skipped on timeout",
		}, []string{"rule_type"}),
	}
}

func (c *Collector) PaymentCreated() {
	c.paymentsCreated.Inc()
}

func (c *Collector) PaymentTransition(status string) {
	c.paymentTransitions.WithLabelValues(status).Inc()
}

func (c *Collector) AlertGenerated(ruleType, severity string) {
	c.alertsGenerated.WithLabelValues(ruleType, severity).Inc()
}

func (c *Collector) EvaluatorFailure(ruleType string) {
	c.evaluatorFailures.WithLabelValues(ruleType).Inc()
}

func (c *Collector) EvaluatorTimeout(ruleType string) {
	c.evaluatorTimeouts.WithLabelValues(ruleType).Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

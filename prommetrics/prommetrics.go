// Package prommetrics exports Runner metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/hupe1980/assocmem"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements assocmem.MetricsCollector on Prometheus metrics.
type Collector struct {
	registrations prometheus.Counter
	probes        prometheus.Counter
	responses     prometheus.Counter
	batchLatency  *prometheus.HistogramVec
	unitLatency   *prometheus.HistogramVec
	units         *prometheus.CounterVec
}

var _ assocmem.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assocmem_registrations_total",
			Help: "Total codes registered into memories",
		}),
		probes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assocmem_probes_total",
			Help: "Total test probes recognized against a bank",
		}),
		responses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assocmem_responses_total",
			Help: "Total recognizing groups over all probes",
		}),
		batchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assocmem_batch_latency_seconds",
			Help:    "Latency of register and recognize batches",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		unitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assocmem_unit_latency_seconds",
			Help:    "Latency of fold, size and fill units",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"kind", "status"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assocmem_units_total",
			Help: "Total finished units",
		}, []string{"kind", "status"}),
	}

	for _, m := range []prometheus.Collector{
		c.registrations, c.probes, c.responses, c.batchLatency, c.unitLatency, c.units,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordRegister implements assocmem.MetricsCollector.
func (c *Collector) RecordRegister(count int, d time.Duration) {
	c.registrations.Add(float64(count))
	c.batchLatency.WithLabelValues("register").Observe(d.Seconds())
}

// RecordRecognize implements assocmem.MetricsCollector.
func (c *Collector) RecordRecognize(probes, responses int, d time.Duration) {
	c.probes.Add(float64(probes))
	c.responses.Add(float64(responses))
	c.batchLatency.WithLabelValues("recognize").Observe(d.Seconds())
}

// RecordUnit implements assocmem.MetricsCollector.
func (c *Collector) RecordUnit(kind string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.unitLatency.WithLabelValues(kind, status).Observe(d.Seconds())
	c.units.WithLabelValues(kind, status).Inc()
}

package assocmem

import (
	"sync/atomic"
	"time"
)

// Unit kinds passed to MetricsCollector.RecordUnit.
const (
	UnitFold = "fold"
	UnitSize = "size"
	UnitFill = "fill"
)

// MetricsCollector receives operational metrics from a Runner.
// See the prommetrics package for a Prometheus implementation.
type MetricsCollector interface {
	// RecordRegister is called after a batch of registrations into a bank.
	RecordRegister(count int, duration time.Duration)

	// RecordRecognize is called after a batch of probes was recognized
	// against a bank. responses is the total number of recognizing groups.
	RecordRecognize(probes, responses int, duration time.Duration)

	// RecordUnit is called when a fold, size or fill unit finishes.
	RecordUnit(kind string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRegister(int, time.Duration)       {}
func (NoopMetricsCollector) RecordRecognize(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordUnit(string, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	Registrations  atomic.Int64
	RegisterNanos  atomic.Int64
	Probes         atomic.Int64
	Responses      atomic.Int64
	RecognizeNanos atomic.Int64
	Units          atomic.Int64
	UnitErrors     atomic.Int64
	UnitNanos      atomic.Int64
}

// RecordRegister implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegister(count int, duration time.Duration) {
	b.Registrations.Add(int64(count))
	b.RegisterNanos.Add(duration.Nanoseconds())
}

// RecordRecognize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecognize(probes, responses int, duration time.Duration) {
	b.Probes.Add(int64(probes))
	b.Responses.Add(int64(responses))
	b.RecognizeNanos.Add(duration.Nanoseconds())
}

// RecordUnit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnit(_ string, duration time.Duration, err error) {
	b.Units.Add(1)
	b.UnitNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.UnitErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		Registrations: b.Registrations.Load(),
		Probes:        b.Probes.Load(),
		Responses:     b.Responses.Load(),
		Units:         b.Units.Load(),
		UnitErrors:    b.UnitErrors.Load(),
	}
	if s.Probes > 0 {
		s.MeanResponses = float64(s.Responses) / float64(s.Probes)
	}
	if s.Units > 0 {
		s.UnitAvgNanos = b.UnitNanos.Load() / s.Units
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Registrations int64
	Probes        int64
	Responses     int64
	MeanResponses float64
	Units         int64
	UnitErrors    int64
	UnitAvgNanos  int64
}

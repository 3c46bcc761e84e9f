package walcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    hits   prometheus.Counter
//	    misses prometheus.Counter
//	}
//
//	func (p *PrometheusCollector) RecordLookup(hit bool) {
//	    if hit {
//	        p.hits.Inc()
//	    } else {
//	        p.misses.Inc()
//	    }
//	}
type MetricsCollector interface {
	// RecordLookup is called after each cache lookup.
	RecordLookup(hit bool)

	// RecordDeviceRead is called after each read from the log device.
	// n is the number of bytes read, err is nil if successful.
	RecordDeviceRead(n int, duration time.Duration, err error)

	// RecordInsert is called after each cache insertion attempt.
	RecordInsert(outcome InsertOutcome)

	// RecordDisable is called when the cache is disabled.
	RecordDisable()

	// RecordInvariantViolation is called when the cache reports an internal fault.
	RecordInvariantViolation()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLookup(bool)                          {}
func (NoopMetricsCollector) RecordDeviceRead(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordInsert(InsertOutcome)                 {}
func (NoopMetricsCollector) RecordDisable()                             {}
func (NoopMetricsCollector) RecordInvariantViolation()                  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Hits                atomic.Int64
	Misses              atomic.Int64
	DeviceReads         atomic.Int64
	DeviceReadErrors    atomic.Int64
	DeviceReadBytes     atomic.Int64
	DeviceReadNanos     atomic.Int64
	Inserts             atomic.Int64
	InsertRejections    atomic.Int64
	MemoryRejections    atomic.Int64
	Disables            atomic.Int64
	InvariantViolations atomic.Int64
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(hit bool) {
	if hit {
		b.Hits.Add(1)
	} else {
		b.Misses.Add(1)
	}
}

// RecordDeviceRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDeviceRead(n int, duration time.Duration, err error) {
	b.DeviceReads.Add(1)
	b.DeviceReadBytes.Add(int64(n))
	b.DeviceReadNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DeviceReadErrors.Add(1)
	}
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(outcome InsertOutcome) {
	switch outcome {
	case Inserted:
		b.Inserts.Add(1)
	case RejectedMemory:
		b.MemoryRejections.Add(1)
		b.InsertRejections.Add(1)
	default:
		b.InsertRejections.Add(1)
	}
}

// RecordDisable implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDisable() {
	b.Disables.Add(1)
}

// RecordInvariantViolation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInvariantViolation() {
	b.InvariantViolations.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Hits:                b.Hits.Load(),
		Misses:              b.Misses.Load(),
		HitRatio:            b.hitRatio(),
		DeviceReads:         b.DeviceReads.Load(),
		DeviceReadErrors:    b.DeviceReadErrors.Load(),
		DeviceReadBytes:     b.DeviceReadBytes.Load(),
		DeviceReadAvgNanos:  b.getAvgReadNanos(),
		Inserts:             b.Inserts.Load(),
		InsertRejections:    b.InsertRejections.Load(),
		MemoryRejections:    b.MemoryRejections.Load(),
		Disables:            b.Disables.Load(),
		InvariantViolations: b.InvariantViolations.Load(),
	}
}

func (b *BasicMetricsCollector) hitRatio() float64 {
	hits := b.Hits.Load()
	total := hits + b.Misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (b *BasicMetricsCollector) getAvgReadNanos() int64 {
	count := b.DeviceReads.Load()
	if count == 0 {
		return 0
	}
	return b.DeviceReadNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Hits                int64
	Misses              int64
	HitRatio            float64
	DeviceReads         int64
	DeviceReadErrors    int64
	DeviceReadBytes     int64
	DeviceReadAvgNanos  int64
	Inserts             int64
	InsertRejections    int64
	MemoryRejections    int64
	Disables            int64
	InvariantViolations int64
}

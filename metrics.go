package authcore

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID identifies an engine counter or latency histogram. Counter IDs
// come first; every ID from MetricLoginLatency on names a histogram.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricRefreshSuccess
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts presentations of an already-rotated refresh token.
	MetricRefreshReuseDetected
	MetricLogout
	MetricValidateSuccess
	MetricValidateRejected
	MetricBlacklistHit
	MetricRegisterSuccess
	MetricRegisterDuplicate
	MetricVerificationSent
	MetricVerificationRateLimited
	MetricEmailVerified
	MetricAccountDisabled
	MetricAccountEnabled
	MetricDependencyUnavailable

	MetricLoginLatency
	MetricRefreshLatency
	MetricValidateLatency
	metricIDCount
)

const (
	counterCount   = int(MetricLoginLatency)
	histogramCount = int(metricIDCount - MetricLoginLatency)
)

// latencyBounds are the inclusive upper edges of the finite latency buckets.
// Anything slower lands in the trailing overflow bucket.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const latencyBucketCount = len(latencyBounds) + 1

// counterSlot sits alone on a cache line so hot counters do not false-share.
type counterSlot struct {
	n atomic.Uint64
	_ [56]byte
}

type latencyHistogram [latencyBucketCount]atomic.Uint64

// Metrics is the engine's in-process instrumentation. All writes are atomic
// adds; a nil *Metrics is valid and records nothing.
type Metrics struct {
	counting bool
	timing   bool
	counters [counterCount]counterSlot
	latency  [histogramCount]latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram buckets are
// non-cumulative, bounded at 5, 10, 25, 50, 100, 250, 500 ms and +Inf.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		counting: cfg.Enabled,
		timing:   cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.counting
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.counting || !id.isCounter() {
		return
	}
	m.counters[id].n.Add(1)
}

// Observe records d against a latency ID. Counter IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.timing || !id.isLatency() {
		return
	}
	m.latency[id-MetricLoginLatency][latencyBucket(d)].Add(1)
}

// Value reads a single counter. Latency IDs always read zero.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || !id.isCounter() {
		return 0
	}
	return m.counters[id].n.Load()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return snap
	}

	for i := range m.counters {
		snap.Counters[MetricID(i)] = m.counters[i].n.Load()
	}
	if !m.timing {
		return snap
	}
	for i := range m.latency {
		h := &m.latency[i]
		out := make([]uint64, latencyBucketCount)
		for b := range out {
			out[b] = h[b].Load()
		}
		snap.Histograms[MetricLoginLatency+MetricID(i)] = out
	}
	return snap
}

func (id MetricID) isCounter() bool { return id < MetricLoginLatency }

func (id MetricID) isLatency() bool { return id >= MetricLoginLatency && id < metricIDCount }

// latencyBucket returns the first bucket whose bound is >= d, comparing at
// millisecond resolution.
func latencyBucket(d time.Duration) int {
	d = d.Truncate(time.Millisecond)
	return sort.Search(len(latencyBounds), func(i int) bool {
		return d <= latencyBounds[i]
	})
}

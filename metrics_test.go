package authcore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsCountOnlyWhenEnabled(t *testing.T) {
	for _, tc := range []struct {
		name    string
		enabled bool
		want    uint64
	}{
		{name: "disabled", enabled: false, want: 0},
		{name: "enabled", enabled: true, want: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMetrics(MetricsConfig{Enabled: tc.enabled})
			for i := 0; i < 3; i++ {
				m.Inc(MetricRegisterSuccess)
			}
			if got := m.Value(MetricRegisterSuccess); got != tc.want {
				t.Fatalf("register_success = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricLoginLatency, time.Second)
	if m.Enabled() || m.Value(MetricLogout) != 0 {
		t.Fatal("nil metrics must record nothing")
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("nil metrics snapshot = %+v", snap)
	}
}

func TestMetricsParallelIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers, each = 16, 5000
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id MetricID) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				m.Inc(id)
			}
		}(MetricValidateSuccess + MetricID(w%2))
	}
	wg.Wait()

	for _, id := range []MetricID{MetricValidateSuccess, MetricValidateRejected} {
		if got := m.Value(id); got != workers/2*each {
			t.Fatalf("metric %d = %d, want %d", id, got, workers/2*each)
		}
	}
}

func TestLatencyBucket(t *testing.T) {
	cases := map[time.Duration]int{
		0:                       0,
		-time.Millisecond:       0,
		5 * time.Millisecond:    0,
		5900 * time.Microsecond: 0,
		6 * time.Millisecond:    1,
		24 * time.Millisecond:   2,
		26 * time.Millisecond:   3,
		100 * time.Millisecond:  4,
		101 * time.Millisecond:  5,
		499 * time.Millisecond:  6,
		501 * time.Millisecond:  7,
		3 * time.Second:         7,
	}
	for d, want := range cases {
		if got := latencyBucket(d); got != want {
			t.Errorf("latencyBucket(%v) = %d, want %d", d, got, want)
		}
	}
}

func TestMetricsSnapshotShape(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(MetricEmailVerified)
	m.Inc(MetricBlacklistHit)
	m.Inc(MetricBlacklistHit)
	m.Observe(MetricRefreshLatency, 40*time.Millisecond)
	m.Observe(MetricRefreshLatency, 2*time.Second)
	m.Observe(MetricLogout, time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Counters) != counterCount {
		t.Fatalf("counters = %d, want %d", len(snap.Counters), counterCount)
	}
	if snap.Counters[MetricEmailVerified] != 1 || snap.Counters[MetricBlacklistHit] != 2 {
		t.Fatalf("unexpected counters: %+v", snap.Counters)
	}
	if _, ok := snap.Counters[MetricValidateLatency]; ok {
		t.Fatal("latency IDs must not be reported as counters")
	}
	if _, ok := snap.Histograms[MetricLogout]; ok {
		t.Fatal("counter IDs must not be reported as histograms")
	}

	want := []uint64{0, 0, 0, 1, 0, 0, 0, 1}
	got := snap.Histograms[MetricRefreshLatency]
	if len(got) != len(want) {
		t.Fatalf("refresh latency buckets = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("refresh latency buckets = %v, want %v", got, want)
		}
	}
	for _, id := range []MetricID{MetricLoginLatency, MetricValidateLatency} {
		if len(snap.Histograms[id]) != latencyBucketCount {
			t.Fatalf("histogram %d missing from snapshot", id)
		}
	}
}

func TestMetricsSnapshotWithoutTiming(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricLoginLatency, time.Millisecond)
	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	if len(snap.Histograms) != 0 {
		t.Fatalf("histograms = %v, want none", snap.Histograms)
	}
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatal("counters must still be reported")
	}
}

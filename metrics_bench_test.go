package authcore

import (
	"testing"
	"time"
)

func BenchmarkMetrics(b *testing.B) {
	on := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	off := NewMetrics(MetricsConfig{})

	b.Run("inc", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			on.Inc(MetricLoginSuccess)
		}
	})
	b.Run("inc_disabled", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			off.Inc(MetricLoginSuccess)
		}
	})
	b.Run("inc_parallel", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				on.Inc(MetricValidateSuccess)
			}
		})
	})
	b.Run("observe_parallel", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				on.Observe(MetricValidateLatency, 12*time.Millisecond)
			}
		})
	})
}

// BenchmarkMetricsRequestMix approximates one protected request plus the
// occasional session call per iteration.
func BenchmarkMetricsRequestMix(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	mix := []MetricID{
		MetricValidateSuccess, MetricValidateSuccess, MetricValidateSuccess,
		MetricValidateRejected, MetricLoginSuccess, MetricRefreshSuccess,
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			m.Inc(mix[n%len(mix)])
			m.Observe(MetricValidateLatency, time.Duration(n%40)*time.Millisecond)
			n++
		}
	})
}

package submit

import (
	"testing"
	"time"
)

func TestPhaseStatsSnapshotPercentiles(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, false)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestPhaseStatsCountsFailures(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	stats.Record(10*time.Millisecond, true)
	stats.Record(20*time.Millisecond, false)
	stats.Record(30*time.Millisecond, true)

	if got := stats.Snapshot().Failures; got != 2 {
		t.Fatalf("expected failures=2, got %d", got)
	}
}

func TestPhaseStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewPhaseStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, false)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200*time.Millisecond, false)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Fatalf("expected one fresh sample of 200ms, got count=%d min=%d", snap.Count, snap.MinMs)
	}
}

func TestPhaseStatsClampsNegativeDuration(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	stats.Record(-time.Second, false)
	snap := stats.Snapshot()
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestPhaseStatsEmpty(t *testing.T) {
	if snap := NewPhaseStats(0).Snapshot(); snap.Count != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

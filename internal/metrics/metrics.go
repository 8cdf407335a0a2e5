package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket set.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricLoginLockedRejected
	MetricAccountLocked
	MetricRegisterSuccess
	MetricRegisterDuplicate
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricSessionCreated
	MetricSessionRevoked
	MetricLogout
	MetricValidateSuccess
	MetricValidateFailure
	MetricTokenExpired
	MetricTokenRejected
	MetricCSRFMismatch
	MetricRateLimitHit
	MetricValidateLatency

	MetricIDCount
)

// HistogramBuckets is the fixed latency bucket count: ≤5ms, ≤10ms, ≤25ms,
// ≤50ms, ≤100ms, ≤250ms, ≤500ms, +Inf.
const HistogramBuckets = 8

var bucketBounds = [HistogramBuckets - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// paddedCounter occupies a full cache line to keep hot counters from
// false-sharing under concurrent increments.
type paddedCounter struct {
	value uint64
	_     [7]uint64
}

// Config controls metric collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and optional latency histograms. All
// operations are allocation-free no-ops when disabled.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount][HistogramBuckets]paddedCounter
}

// New creates a [Metrics] instance. When cfg.Enabled is false all operations
// are no-ops and Snapshot returns empty maps.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Inc atomically increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the fixed bucket set.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id < 0 || id >= MetricIDCount {
		return
	}
	bucket := HistogramBuckets - 1
	for i, bound := range bucketBounds {
		if d <= bound {
			bucket = i
			break
		}
	}
	atomic.AddUint64(&m.histograms[id][bucket].value, 1)
}

// Snapshot is a point-in-time deep copy of all non-zero metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot copies current values. The result is detached from live counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := atomic.LoadUint64(&m.counters[id].value); v > 0 {
			snap.Counters[id] = v
		}
	}
	if !m.enableLatency {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		var buckets []uint64
		var total uint64
		for b := 0; b < HistogramBuckets; b++ {
			v := atomic.LoadUint64(&m.histograms[id][b].value)
			total += v
			buckets = append(buckets, v)
		}
		if total > 0 {
			snap.Histograms[id] = buckets
		}
	}
	return snap
}

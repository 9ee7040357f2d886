package app

import (
	"sort"
	"sync"
	"time"
)

// Operation names recorded by the editor and the finder.
const (
	OpLoad    = "load"
	OpSave    = "save"
	OpSearch  = "search"
	OpReplace = "replace"
)

// Default metrics settings.
const (
	DefaultStallThreshold = 200 * time.Millisecond
	DefaultMaxSamples     = 500
)

// Metrics tracks operation latencies. An operation slower than the stall
// threshold counts as a stall. Averages and percentiles cover the most
// recent samples only.
type Metrics struct {
	mu         sync.Mutex
	stall      time.Duration
	maxSamples int
	ops        map[string]*opMetrics
	startTime  time.Time
}

type opMetrics struct {
	count   uint64
	stalls  uint64
	last    time.Duration
	max     time.Duration
	samples []time.Duration // ring buffer
	next    int
}

// NewMetrics creates a metrics tracker. Non-positive arguments select
// the defaults.
func NewMetrics(stall time.Duration, maxSamples int) *Metrics {
	if stall <= 0 {
		stall = DefaultStallThreshold
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Metrics{
		stall:      stall,
		maxSamples: maxSamples,
		ops:        make(map[string]*opMetrics),
		startTime:  time.Now(),
	}
}

// Record records one run of op that took d.
func (m *Metrics) Record(op string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	om := m.ops[op]
	if om == nil {
		om = &opMetrics{samples: make([]time.Duration, 0, min(m.maxSamples, 64))}
		m.ops[op] = om
	}
	om.count++
	om.last = d
	if d > om.max {
		om.max = d
	}
	if d > m.stall {
		om.stalls++
	}

	if len(om.samples) < m.maxSamples {
		om.samples = append(om.samples, d)
		return
	}
	om.samples[om.next] = d
	om.next = (om.next + 1) % m.maxSamples
}

// OpStats summarizes one operation.
type OpStats struct {
	Count  uint64
	Stalls uint64
	Last   time.Duration
	Max    time.Duration
	Avg    time.Duration
	P95    time.Duration
}

// Stats returns the summary of op, or false if op was never recorded.
func (m *Metrics) Stats(op string) (OpStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	om := m.ops[op]
	if om == nil {
		return OpStats{}, false
	}
	return om.stats(), true
}

func (om *opMetrics) stats() OpStats {
	s := OpStats{Count: om.count, Stalls: om.stalls, Last: om.last, Max: om.max}
	n := len(om.samples)
	if n == 0 {
		return s
	}

	sorted := make([]time.Duration, n)
	copy(sorted, om.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	s.Avg = total / time.Duration(n)
	s.P95 = sorted[(n*95+99)/100-1]
	return s
}

// MetricsSnapshot is a point-in-time view of all operations.
type MetricsSnapshot struct {
	Uptime time.Duration
	Ops    map[string]OpStats
}

// TotalStalls returns the number of stalls across all operations.
func (s MetricsSnapshot) TotalStalls() uint64 {
	var n uint64
	for _, st := range s.Ops {
		n += st.Stalls
	}
	return n
}

// Snapshot returns the summary of every recorded operation.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[string]OpStats, len(m.ops))
	for name, om := range m.ops {
		ops[name] = om.stats()
	}
	return MetricsSnapshot{Uptime: time.Since(m.startTime), Ops: ops}
}

// StallThreshold returns the latency above which an operation is a stall.
func (m *Metrics) StallThreshold() time.Duration {
	return m.stall
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = make(map[string]*opMetrics)
	m.startTime = time.Now()
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}

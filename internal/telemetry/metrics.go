// Package telemetry collects check metrics for a long-running MCP server.
// All data is kept in memory and reported only through the server's
// metrics resource; nothing leaves the machine.
package telemetry

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP100  LatencyBucket = "p100"  // 10-100ms
	BucketP1000 LatencyBucket = "p1000" // 100ms-1s
	BucketP10s  LatencyBucket = "p10s"  // 1-10s, typically a compiled config
	BucketSlow  LatencyBucket = "slow"  // >=10s
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 100:
		return BucketP100
	case ms < 1000:
		return BucketP1000
	case ms < 10000:
		return BucketP10s
	default:
		return BucketSlow
	}
}

// =============================================================================
// Check Event
// =============================================================================

// CheckEvent is one completed or aborted check. Verdict is "PASS", "WARN"
// or "FAIL"; FatalCode is set instead when a precondition aborted the run.
type CheckEvent struct {
	Verdict   string
	FatalCode string
	Failed    []string // subjects of FAIL findings
	Warned    []string // subjects of WARN findings
	Latency   time.Duration
	Timestamp time.Time
}

// =============================================================================
// Circular Buffer
// =============================================================================

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int // next write position
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in the buffer in FIFO order (oldest first).
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// =============================================================================
// Snapshot
// =============================================================================

// SubjectCount is a finding subject and how often it failed or warned.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int64  `json:"count"`
}

// Snapshot is an immutable copy of the collected metrics.
type Snapshot struct {
	TotalChecks         int64                   `json:"total_checks"`
	VerdictCounts       map[string]int64        `json:"verdict_counts"`
	FatalCounts         map[string]int64        `json:"fatal_counts"`
	TopFailing          []SubjectCount          `json:"top_failing"`
	TopWarning          []SubjectCount          `json:"top_warning"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	RecentFatals        []string                `json:"recent_fatals"`
	Since               time.Time               `json:"since"`
}

// FailureRate returns the share of checks that ended in FAIL or aborted.
func (s *Snapshot) FailureRate() float64 {
	if s.TotalChecks == 0 {
		return 0
	}
	failed := s.VerdictCounts["FAIL"]
	for _, n := range s.FatalCounts {
		failed += n
	}
	return float64(failed) / float64(s.TotalChecks)
}

// =============================================================================
// Check Metrics
// =============================================================================

// Config configures the collector.
type Config struct {
	SubjectCapacity int // max distinct subjects tracked per severity (default: 100)
	FatalCapacity   int // recent fatal codes kept (default: 50)
	TopN            int // subjects reported per list (default: 10)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{SubjectCapacity: 100, FatalCapacity: 50, TopN: 10}
}

// CheckMetrics aggregates CheckEvents. Safe for concurrent use.
type CheckMetrics struct {
	mu sync.RWMutex

	total     int64
	verdicts  map[string]int64
	fatals    map[string]int64
	failing   *lru.Cache[string, int64]
	warning   *lru.Cache[string, int64]
	latencies map[LatencyBucket]int64
	recent    *CircularBuffer[string]
	start     time.Time
	topN      int
}

// New creates a collector with the default configuration.
func New() *CheckMetrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a collector, filling zero fields from DefaultConfig.
func NewWithConfig(cfg Config) *CheckMetrics {
	def := DefaultConfig()
	if cfg.SubjectCapacity <= 0 {
		cfg.SubjectCapacity = def.SubjectCapacity
	}
	if cfg.FatalCapacity <= 0 {
		cfg.FatalCapacity = def.FatalCapacity
	}
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}

	failing, _ := lru.New[string, int64](cfg.SubjectCapacity)
	warning, _ := lru.New[string, int64](cfg.SubjectCapacity)

	return &CheckMetrics{
		verdicts:  make(map[string]int64),
		fatals:    make(map[string]int64),
		failing:   failing,
		warning:   warning,
		latencies: make(map[LatencyBucket]int64),
		recent:    NewCircularBuffer[string](cfg.FatalCapacity),
		start:     time.Now(),
		topN:      cfg.TopN,
	}
}

// Record adds one check to the aggregates.
func (m *CheckMetrics) Record(event CheckEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.latencies[LatencyToBucket(event.Latency)]++

	if event.FatalCode != "" {
		m.fatals[event.FatalCode]++
		m.recent.Add(event.FatalCode)
		return
	}

	m.verdicts[event.Verdict]++
	bump(m.failing, event.Failed)
	bump(m.warning, event.Warned)
}

// bump counts each subject once per event.
func bump(c *lru.Cache[string, int64], subjects []string) {
	seen := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		if seen[s] {
			continue
		}
		seen[s] = true
		n, _ := c.Get(s)
		c.Add(s, n+1)
	}
}

// Snapshot returns the current metrics.
func (m *CheckMetrics) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	verdicts := make(map[string]int64, len(m.verdicts))
	for k, v := range m.verdicts {
		verdicts[k] = v
	}
	fatals := make(map[string]int64, len(m.fatals))
	for k, v := range m.fatals {
		fatals[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	return &Snapshot{
		TotalChecks:         m.total,
		VerdictCounts:       verdicts,
		FatalCounts:         fatals,
		TopFailing:          top(m.failing, m.topN),
		TopWarning:          top(m.warning, m.topN),
		LatencyDistribution: latencies,
		RecentFatals:        m.recent.Items(),
		Since:               m.start,
	}
}

// top returns up to n subjects by count, ties broken by name.
func top(c *lru.Cache[string, int64], n int) []SubjectCount {
	out := make([]SubjectCount, 0, c.Len())
	for _, key := range c.Keys() {
		if count, ok := c.Peek(key); ok {
			out = append(out, SubjectCount{Subject: key, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Subject < out[j].Subject
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

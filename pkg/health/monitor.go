// Package health aggregates component statuses and response-time
// statistics for the health endpoints.
package health

import (
	"sort"
	"sync"
	"time"
)

// Component status values.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ringSize is how many response-time samples are kept per component.
const ringSize = 100

// TimingStats summarizes a component's recent response times.
type TimingStats struct {
	Samples int           `json:"samples"`
	Avg     time.Duration `json:"avg"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
}

// ComponentReport is one component's health snapshot.
type ComponentReport struct {
	Status    Status       `json:"status"`
	LastError string       `json:"last_error,omitempty"`
	ErrorAt   time.Time    `json:"error_at,omitzero"`
	Timings   *TimingStats `json:"timings,omitempty"`
}

// Report is the full health snapshot.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentReport `json:"components"`
}

type component struct {
	status    Status
	lastError string
	errorAt   time.Time

	samples []time.Duration // ring buffer
	next    int
	filled  bool
}

// Monitor collects per-component statuses and response times.
type Monitor struct {
	mu         sync.RWMutex
	components map[string]*component
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{components: make(map[string]*component)}
}

func (m *Monitor) component(name string) *component {
	c, ok := m.components[name]
	if !ok {
		c = &component{status: StatusUnknown, samples: make([]time.Duration, ringSize)}
		m.components[name] = c
	}
	return c
}

// SetStatus records a component's current status.
func (m *Monitor) SetStatus(name string, status Status) {
	m.mu.Lock()
	m.component(name).status = status
	m.mu.Unlock()
}

// RecordResponseTime adds one sample to the component's ring. A component
// reporting samples is implicitly healthy unless marked otherwise.
func (m *Monitor) RecordResponseTime(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.component(name)
	c.samples[c.next] = d
	c.next = (c.next + 1) % ringSize
	if c.next == 0 {
		c.filled = true
	}
	if c.status == StatusUnknown {
		c.status = StatusHealthy
	}
}

// RecordError marks a component degraded with the error message.
func (m *Monitor) RecordError(name string, err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.component(name)
	c.lastError = err.Error()
	c.errorAt = time.Now()
	if c.status != StatusUnhealthy {
		c.status = StatusDegraded
	}
}

// Snapshot builds the full report. Overall status is the worst component
// status: any unhealthy → unhealthy, else any degraded → degraded, else
// healthy (unknown components don't drag the overall status down).
func (m *Monitor) Snapshot() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := Report{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentReport, len(m.components)),
	}
	for name, c := range m.components {
		cr := ComponentReport{
			Status:    c.status,
			LastError: c.lastError,
			ErrorAt:   c.errorAt,
		}
		if stats := c.stats(); stats.Samples > 0 {
			cr.Timings = &stats
		}
		report.Components[name] = cr

		switch c.status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status != StatusUnhealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func (c *component) stats() TimingStats {
	n := c.next
	if c.filled {
		n = ringSize
	}
	if n == 0 {
		return TimingStats{}
	}

	sorted := append([]time.Duration(nil), c.samples[:n]...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	return TimingStats{
		Samples: n,
		Avg:     sum / time.Duration(n),
		Min:     sorted[0],
		Max:     sorted[n-1],
		P95:     percentile(sorted, 95),
		P99:     percentile(sorted, 99),
	}
}

// percentile takes the nearest-rank value from a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted)*p + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}

package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects request counts and latencies per route.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	routeMetrics map[string]*RouteMetrics

	// Most recent durations, bounded by maxDurations.
	durations    []time.Duration
	maxDurations int
}

// RouteMetrics represents metrics for one route ("METHOD /path").
type RouteMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		routeMetrics: make(map[string]*RouteMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a finished request. Responses with status >= 500
// count as failures.
func (m *Metrics) RecordRequest(route string, status int, duration time.Duration) {
	rm := m.getRouteMetrics(route)

	m.requestTotal.Add(1)
	rm.requestCount.Add(1)
	if status >= 500 {
		m.requestFailed.Add(1)
		rm.errorCount.Add(1)
	}
	rm.totalDuration.Add(duration.Milliseconds())

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// GetRequestTotal returns the total number of requests.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the total number of failed requests.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}

func (m *Metrics) getRouteMetrics(route string) *RouteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm, ok := m.routeMetrics[route]
	if !ok {
		rm = &RouteMetrics{}
		m.routeMetrics[route] = rm
	}
	return rm
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)

	m.mu.Lock()
	m.routeMetrics = make(map[string]*RouteMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make([]*RouteMetricsSnapshot, 0, len(m.routeMetrics))
	for route, rm := range m.routeMetrics {
		count := rm.requestCount.Load()
		total := rm.totalDuration.Load()
		var avg int64
		if count > 0 {
			avg = total / count
		}
		routes = append(routes, &RouteMetricsSnapshot{
			Route:             route,
			RequestCount:      count,
			ErrorCount:        rm.errorCount.Load(),
			TotalDurationMs:   total,
			AverageDurationMs: avg,
		})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Route < routes[j].Route })

	var p95 time.Duration
	if len(m.durations) > 0 {
		sorted := make([]time.Duration, len(m.durations))
		copy(sorted, m.durations)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		p95 = sorted[(len(sorted)*95-1)/100]
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Routes:        routes,
		DurationCount: len(m.durations),
		P95LatencyMs:  p95.Milliseconds(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                   `json:"request_total"`
	RequestFailed int64                   `json:"request_failed"`
	Routes        []*RouteMetricsSnapshot `json:"routes"`
	DurationCount int                     `json:"duration_count"`
	P95LatencyMs  int64                   `json:"p95_latency_ms"`
}

// RouteMetricsSnapshot represents metrics for a single route.
type RouteMetricsSnapshot struct {
	Route             string `json:"route"`
	RequestCount      int64  `json:"request_count"`
	ErrorCount        int64  `json:"error_count"`
	TotalDurationMs   int64  `json:"total_duration_ms"`
	AverageDurationMs int64  `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}

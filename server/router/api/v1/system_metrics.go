package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64          `json:"total_requests"`
	SuccessRate   float64        `json:"success_rate"`
	AvgLatencyMs  int64          `json:"avg_latency_ms"`
	P95LatencyMs  int64          `json:"p95_latency_ms"`
	ErrorCount    int64          `json:"error_count"`
	Routes        []RouteMetrics `json:"routes"`
}

// RouteMetrics is the per-route part of the overview.
type RouteMetrics struct {
	Route        string `json:"route"`
	Requests     int64  `json:"requests"`
	Errors       int64  `json:"errors"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

// GetMetricsOverview returns request counters collected since start-up.
// GET /system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snapshot := s.Metrics.Snapshot()

	response := MetricsOverviewResponse{
		TotalRequests: snapshot.RequestTotal,
		SuccessRate:   snapshot.SuccessRate(),
		P95LatencyMs:  snapshot.P95LatencyMs,
		ErrorCount:    snapshot.RequestFailed,
		Routes:        make([]RouteMetrics, 0, len(snapshot.Routes)),
	}
	var totalMs, count int64
	for _, route := range snapshot.Routes {
		totalMs += route.TotalDurationMs
		count += route.RequestCount
		response.Routes = append(response.Routes, RouteMetrics{
			Route:        route.Route,
			Requests:     route.RequestCount,
			Errors:       route.ErrorCount,
			AvgLatencyMs: route.AverageDurationMs,
		})
	}
	if count > 0 {
		response.AvgLatencyMs = totalMs / count
	}
	return c.JSON(http.StatusOK, response)
}

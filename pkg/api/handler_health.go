package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/airsift/airsift/pkg/health"
	"github.com/airsift/airsift/pkg/version"
)

// healthHandler handles GET /health. The minimal response is safe for
// unauthenticated probes; ?detailed=true adds per-component reports,
// session count, and daily usage.
func (s *Server) healthHandler(c *echo.Context) error {
	report := s.agent.Monitor().Snapshot()

	resp := &HealthResponse{
		Status:  string(report.Status),
		Version: version.GitCommit,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}

	if c.QueryParam("detailed") == "true" {
		resp.Components = report.Components
		count := s.agent.Sessions().Count()
		resp.Sessions = &count
		usage := s.agent.Costs().Status()
		resp.Usage = &usage
	}

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}

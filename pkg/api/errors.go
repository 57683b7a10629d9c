package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/airsift/airsift/pkg/agent"
)

// mapAgentError converts a pipeline error to the HTTP status and JSON body
// for the user. Internal details never leave the process.
func mapAgentError(err error) (int, ErrorResponse) {
	var pipeErr *agent.Error
	if !errors.As(err, &pipeErr) {
		slog.Error("Unexpected non-pipeline error", "error", err)
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Something went wrong on my side. Please try again.",
		}
	}

	status := http.StatusInternalServerError
	switch pipeErr.Kind {
	case agent.KindInputInvalid, agent.KindSecurityCritical, agent.KindTokenBudgetExceeded:
		status = http.StatusBadRequest
	case agent.KindCostExceeded, agent.KindProviderRateLimited:
		status = http.StatusTooManyRequests
	case agent.KindProviderUnavailable, agent.KindCircuitOpen,
		agent.KindToolTimeout, agent.KindToolFailure:
		status = http.StatusServiceUnavailable
	}

	return status, ErrorResponse{
		Error: pipeErr.UserMessage,
		Kind:  string(pipeErr.Kind),
		Code:  pipeErr.Code,
	}
}

// writeAgentError sends the mapped error as JSON.
func writeAgentError(c *echo.Context, err error) error {
	status, body := mapAgentError(err)
	return c.JSON(status, &body)
}

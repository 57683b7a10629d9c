package api

import (
	"time"

	"github.com/airsift/airsift/pkg/cost"
	"github.com/airsift/airsift/pkg/health"
)

// ErrorResponse is the JSON error body. Code is an opaque id correlating
// a user report with structured logs.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Code  string `json:"code,omitempty"`
}

// SessionResponse is returned by GET /sessions/:id.
type SessionResponse struct {
	SessionID     string    `json:"session_id"`
	Turns         int       `json:"turns"`
	Documents     []string  `json:"documents,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	HasName       bool      `json:"has_name"`
	HasLocation   bool      `json:"has_location"`
	CreatedAt     time.Time `json:"created_at"`
	LastActive    time.Time `json:"last_active"`
	ArchivedTurns *int64    `json:"archived_turns,omitempty"`
}

// PurgeResponse is returned by DELETE /sessions/:id.
type PurgeResponse struct {
	SessionID     string `json:"session_id"`
	Purged        bool   `json:"purged"`
	ArchivedTurns int64  `json:"archived_turns_deleted,omitempty"`
}

// HealthResponse is returned by GET /health. The detailed variant adds
// per-component reports and the cost tracker status.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	Components map[string]health.ComponentReport `json:"components,omitempty"`
	Sessions   *int                              `json:"sessions,omitempty"`
	Usage      *cost.Status                      `json:"usage,omitempty"`
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/airsift/airsift/pkg/session"
)

// getSessionHandler handles GET /api/v1/sessions/:id. Returns a metadata
// snapshot; turn contents stay server-side.
func (s *Server) getSessionHandler(c *echo.Context) error {
	id := c.Param("id")
	if !sessionIDPattern.MatchString(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	sess, err := s.agent.Sessions().Get(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load session")
	}

	resp := &SessionResponse{
		SessionID:   sess.ID,
		Turns:       sess.NumTurns(),
		Summary:     sess.Summary,
		HasName:     sess.PersonalInfo["name"] != "",
		HasLocation: sess.PersonalInfo["location"] != "",
		CreatedAt:   sess.CreatedAt,
		LastActive:  sess.LastActive,
	}
	for _, doc := range sess.Documents {
		resp.Documents = append(resp.Documents, doc.Name)
	}

	if s.archive != nil {
		if count, err := s.archive.CountTurns(c.Request().Context(), id); err == nil {
			resp.ArchivedTurns = &count
		} else {
			slog.Warn("Archived turn count failed", "session_id", id, "error", err)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// deleteSessionHandler handles DELETE /api/v1/sessions/:id. Purges the
// in-memory session and, when the archive is enabled, its archived turns.
func (s *Server) deleteSessionHandler(c *echo.Context) error {
	id := c.Param("id")
	if !sessionIDPattern.MatchString(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	err := s.agent.Sessions().Purge(id)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to purge session")
	}
	resp := &PurgeResponse{SessionID: id, Purged: err == nil}

	if s.archive != nil {
		deleted, purgeErr := s.archive.PurgeSession(c.Request().Context(), id)
		if purgeErr != nil {
			slog.Warn("Archive purge failed", "session_id", id, "error", purgeErr)
		} else {
			resp.ArchivedTurns = deleted
			if deleted > 0 {
				resp.Purged = true
			}
		}
	}

	if !resp.Purged {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, resp)
}

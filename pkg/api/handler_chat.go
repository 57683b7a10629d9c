package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/airsift/airsift/pkg/agent"
	"github.com/airsift/airsift/pkg/session"
)

// chatHandler handles POST /api/v1/chat.
func (s *Server) chatHandler(c *echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	resp, chatErr := s.agent.Chat(c.Request().Context(), req)
	if chatErr != nil {
		return writeAgentError(c, chatErr)
	}
	return c.JSON(http.StatusOK, resp)
}

// streamChatHandler handles POST /api/v1/chat/stream. Server-sent events:
// zero or more "thought" events while the turn is in flight, then exactly
// one "response" (or one "error"), then exactly one "done".
func (s *Server) streamChatHandler(c *echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	res, err := echo.UnwrapResponse(c.Response())
	if err != nil {
		return err
	}
	h := res.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	// Thoughts are emitted from inside the pipeline; buffer generously so
	// a slow client never blocks a turn.
	thoughts := make(chan agent.Thought, 32)
	req.OnThought = func(th agent.Thought) {
		select {
		case thoughts <- th:
		default:
		}
	}

	type outcome struct {
		resp *agent.Response
		err  error
	}
	result := make(chan outcome, 1)
	go func() {
		resp, chatErr := s.agent.Chat(c.Request().Context(), req)
		result <- outcome{resp: resp, err: chatErr}
	}()

	var out outcome
waiting:
	for {
		select {
		case th := <-thoughts:
			if err := writeSSE(res, "thought", th); err != nil {
				return err
			}
			res.Flush()
		case out = <-result:
			break waiting
		}
	}

	// Flush thoughts emitted just before completion.
draining:
	for {
		select {
		case th := <-thoughts:
			if err := writeSSE(res, "thought", th); err != nil {
				return err
			}
		default:
			break draining
		}
	}

	if out.err != nil {
		_, body := mapAgentError(out.err)
		if err := writeSSE(res, "error", body); err != nil {
			return err
		}
	} else {
		if err := writeSSE(res, "response", out.resp); err != nil {
			return err
		}
	}
	if err := writeSSE(res, "done", nil); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// writeSSE emits one server-sent event. A nil payload writes an empty
// data line.
func writeSSE(w io.Writer, event string, payload any) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	if payload == nil {
		_, err := fmt.Fprint(w, "data: {}\n\n")
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// bindChatRequest decodes and validates the chat body (JSON, form, or
// multipart with document uploads) and builds the agent request.
func (s *Server) bindChatRequest(c *echo.Context) (*agent.Request, error) {
	var req ChatRequest

	contentType := c.Request().Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := s.bindMultipart(c, &req); err != nil {
			return nil, err
		}
	} else if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if !sessionIDPattern.MatchString(req.SessionID) {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			"session_id must be 4-100 characters of [A-Za-z0-9_-]")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if len(req.Message) > maxMessageBytes {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "message exceeds the 500 KB limit")
	}
	if !agent.ValidStyle(req.Style) {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			"style must be one of: general, executive, technical, simple, policy")
	}

	return &agent.Request{
		SessionID:   req.SessionID,
		Message:     req.Message,
		Style:       req.Style,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Location:    req.Location,
	}, nil
}

// bindMultipart reads chat fields from form values and stores any "file"
// parts as session documents.
func (s *Server) bindMultipart(c *echo.Context, req *ChatRequest) error {
	r := c.Request()
	if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart body")
	}

	req.Message = r.FormValue("message")
	req.SessionID = r.FormValue("session_id")
	req.Style = r.FormValue("style")
	if v := r.FormValue("max_tokens"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "max_tokens must be an integer")
		}
		req.MaxTokens = n
	}

	if !sessionIDPattern.MatchString(req.SessionID) {
		return echo.NewHTTPError(http.StatusBadRequest,
			"session_id must be 4-100 characters of [A-Za-z0-9_-]")
	}
	if r.MultipartForm == nil {
		return nil
	}
	for _, fh := range r.MultipartForm.File["file"] {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file upload")
		}
		content, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
		_ = f.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file upload")
		}
		s.agent.Sessions().AddDocument(req.SessionID, session.Document{
			Name:    fh.Filename,
			Content: string(content),
		})
	}
	return nil
}

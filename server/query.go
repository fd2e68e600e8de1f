package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/adspilot/ai/session"
)

type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	// Category optionally forces routing: direct, specialist,
	// multi_specialist. Empty lets the classifier decide.
	Category string `json:"category"`
}

type queryResponse struct {
	Answer    string         `json:"answer"`
	Outcome   string         `json:"outcome"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	ctx := c.Request().Context()
	if err := s.querySem.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server busy")
	}
	defer s.querySem.Release(1)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	result, err := s.orchestrator.Process(ctx, sessionID, req.Question, req.Category)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Only answered queries become conversation history; error outcomes
	// would poison follow-up classification.
	if result.Outcome != "error" {
		s.orchestrator.Memory().Append(sessionID, session.Turn{
			Question: req.Question,
			Answer:   result.Answer,
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Answer:    result.Answer,
		Outcome:   result.Outcome,
		SessionID: sessionID,
		Metadata:  result.Metadata,
	})
}

func (s *Server) handleQueryMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"outcomes":        s.orchestrator.GetMetrics(),
		"active_sessions": s.orchestrator.Memory().ActiveSessions(),
	})
}

func (s *Server) handleClearSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}
	s.orchestrator.Memory().Clear(id)
	return c.NoContent(http.StatusNoContent)
}

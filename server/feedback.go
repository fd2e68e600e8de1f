package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/adspilot/store"
)

type createFeedbackRequest struct {
	SessionID    string `json:"session_id"`
	MessageIndex int    `json:"message_index"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	Evaluator    string `json:"evaluator"`
}

func (s *Server) handleCreateFeedback(c echo.Context) error {
	var req createFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	feedback, err := s.store.Feedback.CreateFeedback(c.Request().Context(), &store.CreateFeedback{
		SessionID:    req.SessionID,
		MessageIndex: req.MessageIndex,
		Rating:       req.Rating,
		Comment:      req.Comment,
		Evaluator:    req.Evaluator,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, feedback)
}

func (s *Server) handleListFeedback(c echo.Context) error {
	find := &store.FindFeedback{}
	if v := c.QueryParam("session_id"); v != "" {
		find.SessionID = &v
	}
	if v := c.QueryParam("status"); v != "" {
		if !store.ValidFeedbackStatus(v) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
		}
		find.Status = &v
	}
	if v := c.QueryParam("min_rating"); v != "" {
		minRating, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "min_rating must be an integer")
		}
		find.MinRating = &minRating
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		find.Limit = limit
	}

	list, err := s.store.Feedback.ListFeedback(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetFeedback(c echo.Context) error {
	feedback, err := s.store.Feedback.GetFeedback(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if feedback == nil {
		return echo.NewHTTPError(http.StatusNotFound, "feedback not found")
	}
	return c.JSON(http.StatusOK, feedback)
}

type updateFeedbackRequest struct {
	Status  *string `json:"status"`
	Comment *string `json:"comment"`
}

func (s *Server) handleUpdateFeedback(c echo.Context) error {
	var req updateFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	feedback, err := s.store.Feedback.UpdateFeedback(c.Request().Context(), &store.UpdateFeedback{
		ID:      c.Param("id"),
		Status:  req.Status,
		Comment: req.Comment,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if feedback == nil {
		return echo.NewHTTPError(http.StatusNotFound, "feedback not found")
	}
	return c.JSON(http.StatusOK, feedback)
}

func (s *Server) handleDeleteFeedback(c echo.Context) error {
	if err := s.store.Feedback.DeleteFeedback(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleFeedbackStats(c echo.Context) error {
	stats, err := s.store.Feedback.FeedbackStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

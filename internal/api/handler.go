package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/codacy-standards-report/internal/aggregator"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage"
)

// RunDetail is a recorded run together with its per-repository outcomes
type RunDetail struct {
	Run      *domain.ReportRun
	Outcomes []domain.RepositoryOutcome
	Totals   aggregator.RunTotals
}

// Handler handles API requests
type Handler struct {
	store storage.Storage
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage) *Handler {
	return &Handler{
		store: store,
	}
}

// ListRuns returns the most recent report runs of an organization
// GET /api/v1/orgs/:org/runs
func (h *Handler) ListRuns(c *gin.Context) {
	org := c.Param("org")
	limit, err := parseIntQuery(c, "limit", storage.DefaultListLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	runs, err := h.store.ListRuns(c.Request.Context(), org, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []*domain.ReportRun{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// GetRun returns a single run with its repository outcomes
// GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.store.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	outcomes, err := h.store.GetOutcomes(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if outcomes == nil {
		outcomes = []domain.RepositoryOutcome{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": RunDetail{
			Run:      run,
			Outcomes: outcomes,
			Totals:   aggregator.SummarizeOutcomes(outcomes),
		},
	})
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// parseIntQuery parses a positive integer query parameter, falling back to def when absent
func parseIntQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, apperrors.NewBadRequestError(fmt.Sprintf("%s must be a positive integer", key))
	}
	return n, nil
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeBadRequest:
		status = http.StatusBadRequest
	case apperrors.ErrCodeRequestFailed, apperrors.ErrCodeAnalysisFetch:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

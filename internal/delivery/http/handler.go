package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/allergenscan/internal/domain"
)

const (
	serviceName    = "allergenscan-backend"
	serviceVersion = "1.0.0"
	searchTemplate = "index.html"
)

// ReportBuilder builds a report for a free-text food query
type ReportBuilder interface {
	BuildReport(ctx context.Context, query string) (*domain.Report, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	reports ReportBuilder
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(reports ReportBuilder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reports: reports,
		logger:  logger.With("component", "http"),
	}
}

// searchPage is the data rendered by the search form template
type searchPage struct {
	Query  string
	Report *domain.Report
	Error  string
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// SearchForm renders the empty search form
func (h *Handler) SearchForm(c *gin.Context) {
	c.HTML(http.StatusOK, searchTemplate, searchPage{})
}

// SubmitSearch builds a report for the submitted form and renders it, or the
// error message, on the same page
func (h *Handler) SubmitSearch(c *gin.Context) {
	query := c.PostForm("query")
	page := searchPage{Query: query}

	report, err := h.reports.BuildReport(c.Request.Context(), query)
	if err != nil {
		page.Error = domain.UserMessage(err)
		h.logger.Info("search form failed", "query", query, "error", err)
	} else {
		page.Report = report
	}

	c.HTML(http.StatusOK, searchTemplate, page)
}

// GetReport returns the report for the query parameter as JSON
func (h *Handler) GetReport(c *gin.Context) {
	query := c.Query("query")

	report, err := h.reports.BuildReport(c.Request.Context(), query)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Warn("report failed", "query", query, "status", status, "error", err)
		}
		c.JSON(status, domain.ErrorResult{Error: domain.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, report)
}

// statusForError maps report errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSearchFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// defaultPopularWindow is the look-back used when no window is given.
const defaultPopularWindow = 30 * 24 * time.Hour

// ReportHandler handles reporting requests. All routes are staff only.
type ReportHandler struct {
	reportService *service.ReportService
	logger        zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger.With().Str("handler", "report").Logger(),
	}
}

// Overdue handles GET /api/reports/overdue.
func (h *ReportHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.OverdueLoans(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Popular handles GET /api/reports/popular?since=2026-01-01.
// Without a since parameter the window is the last 30 days.
func (h *ReportHandler) Popular(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-defaultPopularWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, h.logger, errBadRequest)
			return
		}
		since = parsed
	}

	report, err := h.reportService.PopularBooks(r.Context(), since)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UserActivity handles GET /api/reports/users/{userID}.
func (h *ReportHandler) UserActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	activity, err := h.reportService.UserActivityReport(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

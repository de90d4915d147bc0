package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/auth"
	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/metrics"
	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// IssueHandler handles loan requests.
type IssueHandler struct {
	loanService *service.LoanService
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewIssueHandler creates a new IssueHandler. Metrics may be nil.
func NewIssueHandler(loanService *service.LoanService, m *metrics.Metrics, logger zerolog.Logger) *IssueHandler {
	return &IssueHandler{
		loanService: loanService,
		metrics:     m,
		logger:      logger.With().Str("handler", "issue").Logger(),
	}
}

type issueBookRequest struct {
	BookID int64 `json:"bookId"`

	// UserID is optional; students borrow for themselves, staff may
	// issue on a patron's behalf.
	UserID int64 `json:"userId,omitempty"`
}

type returnBookRequest struct {
	FinePaid *float64 `json:"finePaid,omitempty"`
}

type fineResponse struct {
	Record      *domain.IssueRecord `json:"record"`
	Fine        float64             `json:"fine"`
	OverdueDays int                 `json:"overdueDays"`
}

// Issue handles POST /api/issues.
// Students may only borrow for themselves.
func (h *IssueHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	userID := req.UserID
	if userID == 0 {
		userID = identity.UserID
	}
	if !identity.CanActFor(userID) {
		writeError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	out, err := h.loanService.IssueBook(r.Context(), service.IssueBookInput{
		BookID: req.BookID,
		UserID: userID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.BooksIssued.Inc()
	}

	writeJSON(w, http.StatusCreated, out.Record)
}

// Return handles POST /api/issues/{issueID}/return.
// Students may only return their own loans.
func (h *IssueHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "issueID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	record, err := h.loanService.GetIssue(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if !identity.CanActFor(record.UserID) {
		writeError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	var req returnBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	out, err := h.loanService.ReturnBook(r.Context(), service.ReturnBookInput{
		RecordID: id,
		FinePaid: req.FinePaid,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.BooksReturned.Inc()
		h.metrics.FinesCollected.Add(out.Record.FinePaid)
	}

	writeJSON(w, http.StatusOK, out.Record)
}

// Fine handles GET /api/issues/{issueID}/fine.
// Students may only look up their own loans.
func (h *IssueHandler) Fine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "issueID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out, err := h.loanService.CalculateFine(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if !identity.CanActFor(out.Record.UserID) {
		writeError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	writeJSON(w, http.StatusOK, fineResponse{
		Record:      out.Record,
		Fine:        out.Fine,
		OverdueDays: out.OverdueDays,
	})
}

// ListByUser handles GET /api/issues/user/{userID}.
// Students may only list their own loans.
func (h *IssueHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if !identity.CanActFor(id) {
		writeError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	records, err := h.loanService.ListUserIssues(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// List handles GET /api/issues. Staff only.
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.loanService.ListAllIssues(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/auth"
	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/metrics"
	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// ReservationHandler handles reservation requests.
type ReservationHandler struct {
	reservationService *service.ReservationService
	metrics            *metrics.Metrics
	logger             zerolog.Logger
}

// NewReservationHandler creates a new ReservationHandler. Metrics may be nil.
func NewReservationHandler(reservationService *service.ReservationService, m *metrics.Metrics, logger zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		metrics:            m,
		logger:             logger.With().Str("handler", "reservation").Logger(),
	}
}

type reserveBookRequest struct {
	BookID int64 `json:"bookId"`

	// UserID is optional; students reserve for themselves, staff may
	// reserve on a patron's behalf.
	UserID int64 `json:"userId,omitempty"`
}

// Create handles POST /api/reservations.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reserveBookRequest
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

	out, err := h.reservationService.ReserveBook(r.Context(), service.ReserveBookInput{
		BookID: req.BookID,
		UserID: userID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Reservations.Inc()
	}

	writeJSON(w, http.StatusCreated, out.Reservation)
}

// Get handles GET /api/reservations/{reservationID}.
// Students may only read their own reservations.
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reservationID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	reservation, err := h.reservationService.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if !identity.CanActFor(reservation.UserID) {
		writeError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// Cancel handles DELETE /api/reservations/{reservationID}.
// Cancelling an absent reservation succeeds; owners and staff only.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reservationID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if !identity.IsStaff() {
		reservation, err := h.reservationService.GetReservation(r.Context(), id)
		if err == nil && reservation.UserID != identity.UserID {
			writeError(w, h.logger, domain.ErrAccessDenied)
			return
		}
	}

	if err := h.reservationService.CancelReservation(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Notify handles POST /api/reservations/{reservationID}/notify. Staff only.
func (h *ReservationHandler) Notify(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reservationID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	reservation, err := h.reservationService.NotifyAvailable(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// ListByUser handles GET /api/reservations/user/{userID}.
// Students may only list their own reservations.
func (h *ReservationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
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

	reservations, err := h.reservationService.ListUserReservations(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reservations)
}

// List handles GET /api/reservations. Staff only.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.reservationService.ListAllReservations(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

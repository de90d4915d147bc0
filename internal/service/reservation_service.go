package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// ReservationService creates, tracks, and cancels reservations against
// books that are currently out on loan.
//
// Reservations carry no queue ordering and are never fulfilled
// automatically: marking one notified, and deciding that the holder has
// actually borrowed the book, are both caller-driven.
type ReservationService struct {
	bookRepo        repository.BookRepository
	userRepo        repository.UserRepository
	reservationRepo repository.ReservationRepository
	logger          zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	reservationRepo repository.ReservationRepository,
	logger zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		bookRepo:        bookRepo,
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
		logger:          logger.With().Str("service", "reservation").Logger(),
		now:             time.Now,
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// ReserveBookInput contains the data needed to reserve a book.
type ReserveBookInput struct {
	BookID int64
	UserID int64
}

// ReserveBookOutput contains the result of reserving a book.
type ReserveBookOutput struct {
	Reservation *domain.Reservation
}

// =============================================================================
// Service Methods
// =============================================================================

// ReserveBook places a reservation against an unavailable book.
// Reserving a book that is on the shelf is rejected; the caller should
// issue it directly instead.
func (s *ReservationService) ReserveBook(ctx context.Context, input ReserveBookInput) (*ReserveBookOutput, error) {
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookNotFound
		}
		s.logger.Error().Err(err).Int64("book_id", input.BookID).Msg("failed to get book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if book.Available {
		return nil, domain.NewDomainError(domain.ErrBookAvailable, "book can be issued directly", book.Title)
	}

	reservation := &domain.Reservation{
		BookID:          book.ID,
		UserID:          input.UserID,
		ReservationDate: domain.DateOf(s.now()),
		Active:          true,
		Notified:        false,
	}

	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("failed to create reservation")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("reservation_id", reservation.ID).
		Int64("book_id", book.ID).
		Int64("user_id", input.UserID).
		Msg("book reserved")

	return &ReserveBookOutput{Reservation: reservation}, nil
}

// GetReservation retrieves a reservation by ID.
func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		s.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to get reservation")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return reservation, nil
}

// CancelReservation deactivates a reservation. Cancelling a reservation
// that does not exist is a no-op, not an error. The notified flag keeps
// whatever value it had.
func (s *ReservationService) CancelReservation(ctx context.Context, id int64) error {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil
		}
		s.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to get reservation for cancel")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !reservation.Active {
		return nil
	}

	reservation.Active = false
	if err := s.reservationRepo.Update(ctx, reservation); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to cancel reservation")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("reservation_id", id).Msg("reservation cancelled")
	return nil
}

// NotifyAvailable marks a reservation's holder as notified. Whether the
// underlying book has actually become available is the caller's call;
// this operation does not check it.
func (s *ReservationService) NotifyAvailable(ctx context.Context, id int64) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		s.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to get reservation for notify")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	reservation.Notified = true
	if err := s.reservationRepo.Update(ctx, reservation); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to mark reservation notified")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("reservation_id", id).Msg("reservation holder notified")
	return reservation, nil
}

// ListUserReservations returns all reservations for a user, in
// persistence order.
func (s *ReservationService) ListUserReservations(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	reservations, err := s.reservationRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user reservations")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return reservations, nil
}

// ListAllReservations returns every reservation, in persistence order.
func (s *ReservationService) ListAllReservations(ctx context.Context) ([]*domain.Reservation, error) {
	reservations, err := s.reservationRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list reservations")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return reservations, nil
}

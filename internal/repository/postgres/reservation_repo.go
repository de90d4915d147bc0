package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// reservationRepository implements repository.ReservationRepository for PostgreSQL.
type reservationRepository struct {
	db *DB
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, book_id, user_id, reservation_date, active, notified`

// Create creates a new reservation.
func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		INSERT INTO reservations (book_id, user_id, reservation_date, active, notified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		reservation.BookID,
		reservation.UserID,
		reservation.ReservationDate,
		reservation.Active,
		reservation.Notified,
	).Scan(&reservation.ID)

	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	return nil
}

// GetByID retrieves a reservation by ID.
func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.scanReservation(r.db.Pool.QueryRow(ctx, query, id))
}

// ListByUserID returns all reservations for a user, in persistence order.
func (r *reservationRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY id`
	return r.queryReservations(ctx, query, userID)
}

// List returns all reservations, in persistence order.
func (r *reservationRepository) List(ctx context.Context) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY id`
	return r.queryReservations(ctx, query)
}

// Update updates an existing reservation.
func (r *reservationRepository) Update(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		UPDATE reservations
		SET book_id = $1, user_id = $2, reservation_date = $3, active = $4, notified = $5
		WHERE id = $6
	`

	result, err := r.db.Pool.Exec(ctx, query,
		reservation.BookID,
		reservation.UserID,
		reservation.ReservationDate,
		reservation.Active,
		reservation.Notified,
		reservation.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}

	return nil
}

func (r *reservationRepository) scanReservation(row pgx.Row) (*domain.Reservation, error) {
	reservation := &domain.Reservation{}

	err := row.Scan(
		&reservation.ID,
		&reservation.BookID,
		&reservation.UserID,
		&reservation.ReservationDate,
		&reservation.Active,
		&reservation.Notified,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}

	return reservation, nil
}

func (r *reservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]*domain.Reservation, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		reservation, err := r.scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	return reservations, nil
}

// Ensure reservationRepository implements repository.ReservationRepository.
var _ repository.ReservationRepository = (*reservationRepository)(nil)

package sqlite

import (
	"context"
	"fmt"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// reservationRepository implements repository.ReservationRepository for SQLite.
type reservationRepository struct {
	db *DB
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(db *DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

// Create creates a new reservation.
func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		INSERT INTO reservations (book_id, user_id, reservation_date, active, notified)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		reservation.BookID,
		reservation.UserID,
		reservation.ReservationDate.Format(dateFormat),
		boolToInt(reservation.Active),
		boolToInt(reservation.Notified),
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	reservation.ID = id

	return nil
}

// GetByID retrieves a reservation by ID.
func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	query := `
		SELECT id, book_id, user_id, reservation_date, active, notified
		FROM reservations
		WHERE id = ?
	`
	return r.scanReservation(r.db.QueryRowContext(ctx, query, id))
}

// ListByUserID returns all reservations for a user, in persistence order.
func (r *reservationRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	query := `
		SELECT id, book_id, user_id, reservation_date, active, notified
		FROM reservations
		WHERE user_id = ?
		ORDER BY id
	`
	return r.queryReservations(ctx, query, userID)
}

// List returns all reservations, in persistence order.
func (r *reservationRepository) List(ctx context.Context) ([]*domain.Reservation, error) {
	query := `
		SELECT id, book_id, user_id, reservation_date, active, notified
		FROM reservations
		ORDER BY id
	`
	return r.queryReservations(ctx, query)
}

// Update updates an existing reservation.
func (r *reservationRepository) Update(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		UPDATE reservations
		SET book_id = ?, user_id = ?, reservation_date = ?, active = ?, notified = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		reservation.BookID,
		reservation.UserID,
		reservation.ReservationDate.Format(dateFormat),
		boolToInt(reservation.Active),
		boolToInt(reservation.Notified),
		reservation.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrReservationNotFound
	}

	return nil
}

func (r *reservationRepository) scanReservation(row rowScanner) (*domain.Reservation, error) {
	reservation := &domain.Reservation{}
	var reservationDate string
	var active, notified int

	err := row.Scan(
		&reservation.ID,
		&reservation.BookID,
		&reservation.UserID,
		&reservationDate,
		&active,
		&notified,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}

	if reservation.ReservationDate, err = parseDate(reservationDate); err != nil {
		return nil, err
	}
	reservation.Active = active != 0
	reservation.Notified = notified != 0

	return reservation, nil
}

func (r *reservationRepository) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

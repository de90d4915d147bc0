package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// issueRepository implements repository.IssueRepository for PostgreSQL.
type issueRepository struct {
	db *DB
}

// NewIssueRepository creates a new PostgreSQL issue repository.
func NewIssueRepository(db *DB) repository.IssueRepository {
	return &issueRepository{db: db}
}

const issueColumns = `id, book_id, user_id, issue_date, due_date, return_date, fine_paid`

// Create creates a new issue record.
func (r *issueRepository) Create(ctx context.Context, record *domain.IssueRecord) error {
	query := `
		INSERT INTO issue_records (book_id, user_id, issue_date, due_date, return_date, fine_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.BookID,
		record.UserID,
		record.IssueDate,
		record.DueDate,
		record.ReturnDate,
		record.FinePaid,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("failed to create issue record: %w", err)
	}

	return nil
}

// GetByID retrieves an issue record by ID.
func (r *issueRepository) GetByID(ctx context.Context, id int64) (*domain.IssueRecord, error) {
	query := `SELECT ` + issueColumns + ` FROM issue_records WHERE id = $1`
	return r.scanRecord(r.db.Pool.QueryRow(ctx, query, id))
}

// ListByUserID returns all issue records for a user, in persistence order.
func (r *issueRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.IssueRecord, error) {
	query := `SELECT ` + issueColumns + ` FROM issue_records WHERE user_id = $1 ORDER BY id`
	return r.queryRecords(ctx, query, userID)
}

// List returns all issue records, in persistence order.
func (r *issueRepository) List(ctx context.Context) ([]*domain.IssueRecord, error) {
	query := `SELECT ` + issueColumns + ` FROM issue_records ORDER BY id`
	return r.queryRecords(ctx, query)
}

// Update updates an existing issue record.
func (r *issueRepository) Update(ctx context.Context, record *domain.IssueRecord) error {
	query := `
		UPDATE issue_records
		SET book_id = $1, user_id = $2, issue_date = $3, due_date = $4, return_date = $5, fine_paid = $6
		WHERE id = $7
	`

	result, err := r.db.Pool.Exec(ctx, query,
		record.BookID,
		record.UserID,
		record.IssueDate,
		record.DueDate,
		record.ReturnDate,
		record.FinePaid,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIssueNotFound
	}

	return nil
}

func (r *issueRepository) scanRecord(row pgx.Row) (*domain.IssueRecord, error) {
	record := &domain.IssueRecord{}

	err := row.Scan(
		&record.ID,
		&record.BookID,
		&record.UserID,
		&record.IssueDate,
		&record.DueDate,
		&record.ReturnDate,
		&record.FinePaid,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to scan issue record: %w", err)
	}

	return record, nil
}

func (r *issueRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*domain.IssueRecord, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issue records: %w", err)
	}
	defer rows.Close()

	var records []*domain.IssueRecord
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issue records: %w", err)
	}

	return records, nil
}

// Ensure issueRepository implements repository.IssueRepository.
var _ repository.IssueRepository = (*issueRepository)(nil)

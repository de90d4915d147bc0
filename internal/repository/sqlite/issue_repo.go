package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// Loan dates are stored as ISO calendar days (YYYY-MM-DD); fines accrue
// at day granularity so no time-of-day component is kept.
const dateFormat = time.DateOnly

// issueRepository implements repository.IssueRepository for SQLite.
type issueRepository struct {
	db *DB
}

// NewIssueRepository creates a new SQLite issue record repository.
func NewIssueRepository(db *DB) repository.IssueRepository {
	return &issueRepository{db: db}
}

// Create creates a new issue record.
func (r *issueRepository) Create(ctx context.Context, record *domain.IssueRecord) error {
	query := `
		INSERT INTO issue_records (book_id, user_id, issue_date, due_date, return_date, fine_paid)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		record.BookID,
		record.UserID,
		record.IssueDate.Format(dateFormat),
		record.DueDate.Format(dateFormat),
		formatNullableDate(record.ReturnDate),
		record.FinePaid,
	)
	if err != nil {
		return fmt.Errorf("failed to create issue record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	record.ID = id

	return nil
}

// GetByID retrieves an issue record by ID.
func (r *issueRepository) GetByID(ctx context.Context, id int64) (*domain.IssueRecord, error) {
	query := `
		SELECT id, book_id, user_id, issue_date, due_date, return_date, fine_paid
		FROM issue_records
		WHERE id = ?
	`
	return r.scanRecord(r.db.QueryRowContext(ctx, query, id))
}

// ListByUserID returns all issue records for a user, in persistence order.
func (r *issueRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.IssueRecord, error) {
	query := `
		SELECT id, book_id, user_id, issue_date, due_date, return_date, fine_paid
		FROM issue_records
		WHERE user_id = ?
		ORDER BY id
	`
	return r.queryRecords(ctx, query, userID)
}

// List returns all issue records, in persistence order.
func (r *issueRepository) List(ctx context.Context) ([]*domain.IssueRecord, error) {
	query := `
		SELECT id, book_id, user_id, issue_date, due_date, return_date, fine_paid
		FROM issue_records
		ORDER BY id
	`
	return r.queryRecords(ctx, query)
}

// Update updates an existing issue record.
func (r *issueRepository) Update(ctx context.Context, record *domain.IssueRecord) error {
	query := `
		UPDATE issue_records
		SET book_id = ?, user_id = ?, issue_date = ?, due_date = ?, return_date = ?, fine_paid = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		record.BookID,
		record.UserID,
		record.IssueDate.Format(dateFormat),
		record.DueDate.Format(dateFormat),
		formatNullableDate(record.ReturnDate),
		record.FinePaid,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue record: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrIssueNotFound
	}

	return nil
}

func (r *issueRepository) scanRecord(row rowScanner) (*domain.IssueRecord, error) {
	record := &domain.IssueRecord{}
	var issueDate, dueDate string
	var returnDate sql.NullString

	err := row.Scan(
		&record.ID,
		&record.BookID,
		&record.UserID,
		&issueDate,
		&dueDate,
		&returnDate,
		&record.FinePaid,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to scan issue record: %w", err)
	}

	if record.IssueDate, err = parseDate(issueDate); err != nil {
		return nil, err
	}
	if record.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	if returnDate.Valid {
		returned, err := parseDate(returnDate.String)
		if err != nil {
			return nil, err
		}
		record.ReturnDate = &returned
	}

	return record, nil
}

func (r *issueRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*domain.IssueRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

// formatNullableDate formats an optional date for storage.
func formatNullableDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateFormat)
}

// parseDate parses a stored ISO calendar day into a UTC time.
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored date %q: %w", s, err)
	}
	return t, nil
}

// Ensure issueRepository implements repository.IssueRepository.
var _ repository.IssueRepository = (*issueRepository)(nil)

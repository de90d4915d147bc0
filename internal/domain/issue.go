package domain

import (
	"time"
)

// IssueRecord tracks one loan of a book to a user.
// A record is open while ReturnDate is nil; the book it references is
// unavailable for exactly that period. Book and User are referenced by
// identifier only; deleting either does not cascade into issue records.
type IssueRecord struct {
	// ID is the unique identifier for the record (auto-generated).
	ID int64 `json:"id"`

	// BookID references the issued book.
	BookID int64 `json:"bookId"`

	// UserID references the borrowing user.
	UserID int64 `json:"userId"`

	// IssueDate is the calendar day the book was issued.
	IssueDate time.Time `json:"issueDate"`

	// DueDate is the calendar day the book is due back.
	DueDate time.Time `json:"dueDate"`

	// ReturnDate is the calendar day the book came back, nil while on loan.
	ReturnDate *time.Time `json:"returnDate"`

	// FinePaid is the settled fine amount. Zero until return; fixed at the
	// amount settled when the book is returned.
	FinePaid float64 `json:"finePaid"`
}

// IsReturned reports whether the loan has been closed.
func (r *IssueRecord) IsReturned() bool {
	return r.ReturnDate != nil
}

// IsOverdue reports whether an open loan is past its due date as of the
// given day. Closed loans are never overdue.
func (r *IssueRecord) IsOverdue(asOf time.Time) bool {
	return !r.IsReturned() && DateOf(asOf).After(r.DueDate)
}

// DateOf truncates a timestamp to its UTC calendar day.
// Loan dates are calendar days; fines accrue at day granularity.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)) / (24 * time.Hour))
}

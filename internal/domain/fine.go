package domain

import (
	"time"
)

// Default loan policy values.
const (
	// DefaultLoanPeriodDays is the number of days a book may be kept.
	DefaultLoanPeriodDays = 14

	// DefaultFinePerDay is the fine accrued per overdue calendar day,
	// in currency units.
	DefaultFinePerDay = 1.0
)

// FinePolicy defines how due dates and overdue fines are computed.
// Fines accrue at calendar-day granularity with a flat per-day rate:
// no partial-day rounding, no grace period, no cap, and no tiered rates.
type FinePolicy struct {
	// LoanPeriodDays is added to the issue date to produce the due date.
	LoanPeriodDays int

	// FinePerDay is the amount charged per whole overdue day.
	FinePerDay float64
}

// DefaultFinePolicy returns the standard 14-day, 1.0/day policy.
func DefaultFinePolicy() FinePolicy {
	return FinePolicy{
		LoanPeriodDays: DefaultLoanPeriodDays,
		FinePerDay:     DefaultFinePerDay,
	}
}

// DueDate returns the due date for a loan issued on the given day.
func (p FinePolicy) DueDate(issued time.Time) time.Time {
	return DateOf(issued).AddDate(0, 0, p.LoanPeriodDays)
}

// Fine computes the fine owed on a record as of the given day.
//
// For a returned record the fine is frozen: the settled FinePaid amount is
// returned regardless of asOf. For an open record the fine is the number of
// whole calendar days past the due date times FinePerDay, or zero when the
// record is not yet overdue. The result is non-decreasing in asOf while the
// record stays open.
func (p FinePolicy) Fine(record *IssueRecord, asOf time.Time) float64 {
	if record.IsReturned() {
		return record.FinePaid
	}

	daysLate := DaysBetween(record.DueDate, asOf)
	if daysLate <= 0 {
		return 0
	}

	return float64(daysLate) * p.FinePerDay
}

// OverdueDays returns the whole calendar days an open record is past due
// as of the given day, or zero if not overdue or already returned.
func (p FinePolicy) OverdueDays(record *IssueRecord, asOf time.Time) int {
	if record.IsReturned() {
		return 0
	}
	if days := DaysBetween(record.DueDate, asOf); days > 0 {
		return days
	}
	return 0
}

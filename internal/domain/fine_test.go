package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFinePolicy_DueDate(t *testing.T) {
	policy := DefaultFinePolicy()

	issued := date(2026, time.March, 1)
	assert.Equal(t, date(2026, time.March, 15), policy.DueDate(issued))

	// Time of day must not shift the due date.
	lateEvening := time.Date(2026, time.March, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, date(2026, time.March, 15), policy.DueDate(lateEvening))
}

func TestFinePolicy_Fine(t *testing.T) {
	policy := DefaultFinePolicy()

	open := &IssueRecord{
		IssueDate: date(2026, time.March, 1),
		DueDate:   date(2026, time.March, 15),
	}

	tests := []struct {
		name string
		asOf time.Time
		want float64
	}{
		{"before due date", date(2026, time.March, 10), 0},
		{"on due date", date(2026, time.March, 15), 0},
		{"one day late", date(2026, time.March, 16), 1.0},
		{"six days late", date(2026, time.March, 21), 6.0},
		{"no cap on accrual", date(2027, time.March, 15), 365.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Fine(open, tt.asOf))
		})
	}
}

func TestFinePolicy_Fine_MonotonicWhileOpen(t *testing.T) {
	policy := DefaultFinePolicy()
	open := &IssueRecord{
		IssueDate: date(2026, time.January, 1),
		DueDate:   date(2026, time.January, 15),
	}

	prev := -1.0
	for day := 0; day < 40; day++ {
		asOf := date(2026, time.January, 10).AddDate(0, 0, day)
		fine := policy.Fine(open, asOf)
		require.GreaterOrEqual(t, fine, prev, "fine decreased at %v", asOf)
		prev = fine
	}
}

func TestFinePolicy_Fine_FrozenAfterReturn(t *testing.T) {
	policy := DefaultFinePolicy()

	returned := date(2026, time.March, 21)
	record := &IssueRecord{
		IssueDate:  date(2026, time.March, 1),
		DueDate:    date(2026, time.March, 15),
		ReturnDate: &returned,
		FinePaid:   6.0,
	}

	// The settled amount is returned no matter how much later we ask.
	assert.Equal(t, 6.0, policy.Fine(record, date(2026, time.March, 21)))
	assert.Equal(t, 6.0, policy.Fine(record, date(2030, time.January, 1)))
}

func TestFinePolicy_OverdueDays(t *testing.T) {
	policy := DefaultFinePolicy()
	open := &IssueRecord{DueDate: date(2026, time.May, 1)}

	assert.Equal(t, 0, policy.OverdueDays(open, date(2026, time.April, 20)))
	assert.Equal(t, 3, policy.OverdueDays(open, date(2026, time.May, 4)))

	back := date(2026, time.May, 10)
	closed := &IssueRecord{DueDate: date(2026, time.May, 1), ReturnDate: &back}
	assert.Equal(t, 0, policy.OverdueDays(closed, date(2026, time.June, 1)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 6, DaysBetween(date(2026, time.March, 15), date(2026, time.March, 21)))
	assert.Equal(t, -6, DaysBetween(date(2026, time.March, 21), date(2026, time.March, 15)))
	assert.Equal(t, 0, DaysBetween(
		time.Date(2026, time.March, 15, 1, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 23, 0, 0, 0, time.UTC),
	))
}

func TestIssueRecord_IsOverdue(t *testing.T) {
	open := &IssueRecord{DueDate: date(2026, time.March, 15)}
	assert.False(t, open.IsOverdue(date(2026, time.March, 15)))
	assert.True(t, open.IsOverdue(date(2026, time.March, 16)))

	back := date(2026, time.March, 20)
	closed := &IssueRecord{DueDate: date(2026, time.March, 15), ReturnDate: &back}
	assert.False(t, closed.IsOverdue(date(2026, time.April, 1)))
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"ADMIN", "LIBRARIAN", "STUDENT"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	_, err := ParseRole("admin")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

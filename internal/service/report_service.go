package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// popularBooksLimit caps the popular-books report.
const popularBooksLimit = 10

// ReportService produces read-only summaries over loans and reservations.
type ReportService struct {
	bookRepo        repository.BookRepository
	userRepo        repository.UserRepository
	issueRepo       repository.IssueRepository
	reservationRepo repository.ReservationRepository
	policy          domain.FinePolicy
	logger          zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	issueRepo repository.IssueRepository,
	reservationRepo repository.ReservationRepository,
	policy domain.FinePolicy,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		bookRepo:        bookRepo,
		userRepo:        userRepo,
		issueRepo:       issueRepo,
		reservationRepo: reservationRepo,
		policy:          policy,
		logger:          logger.With().Str("service", "report").Logger(),
		now:             time.Now,
	}
}

// =============================================================================
// Output Structs
// =============================================================================

// OverdueLoan describes one overdue open loan.
type OverdueLoan struct {
	Record      *domain.IssueRecord `json:"record"`
	Book        *domain.Book        `json:"book,omitempty"`
	User        *domain.User        `json:"user,omitempty"`
	OverdueDays int                 `json:"overdueDays"`
	Fine        float64             `json:"fine"`
}

// PopularBook describes how often a title was borrowed in a window.
type PopularBook struct {
	Book       *domain.Book `json:"book,omitempty"`
	BookID     int64        `json:"bookId"`
	IssueCount int          `json:"issueCount"`
}

// UserActivity summarizes one user's lending history.
type UserActivity struct {
	User               *domain.User `json:"user"`
	TotalIssues        int          `json:"totalIssues"`
	OpenIssues         int          `json:"openIssues"`
	OverdueIssues      int          `json:"overdueIssues"`
	TotalFines         float64      `json:"totalFines"`
	ActiveReservations int          `json:"activeReservations"`
}

// =============================================================================
// Service Methods
// =============================================================================

// OverdueLoans returns all open loans past their due date as of today,
// with the accrued fine for each.
func (s *ReportService) OverdueLoans(ctx context.Context) ([]*OverdueLoan, error) {
	records, err := s.issueRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list issues for overdue report")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	asOf := s.now()
	overdue := make([]*OverdueLoan, 0)
	for _, record := range records {
		if !record.IsOverdue(asOf) {
			continue
		}

		entry := &OverdueLoan{
			Record:      record,
			OverdueDays: s.policy.OverdueDays(record, asOf),
			Fine:        s.policy.Fine(record, asOf),
		}

		// References are weak; a deleted book or user just leaves the
		// field empty rather than failing the report.
		if book, err := s.bookRepo.GetByID(ctx, record.BookID); err == nil {
			entry.Book = book
		}
		if user, err := s.userRepo.GetByID(ctx, record.UserID); err == nil {
			entry.User = user
		}

		overdue = append(overdue, entry)
	}

	return overdue, nil
}

// PopularBooks returns the most-borrowed books over the given window,
// most borrowed first, capped at ten titles.
func (s *ReportService) PopularBooks(ctx context.Context, since time.Time) ([]*PopularBook, error) {
	records, err := s.issueRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list issues for popularity report")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	cutoff := domain.DateOf(since)
	counts := make(map[int64]int)
	for _, record := range records {
		if record.IssueDate.Before(cutoff) {
			continue
		}
		counts[record.BookID]++
	}

	popular := make([]*PopularBook, 0, len(counts))
	for bookID, count := range counts {
		entry := &PopularBook{BookID: bookID, IssueCount: count}
		if book, err := s.bookRepo.GetByID(ctx, bookID); err == nil {
			entry.Book = book
		}
		popular = append(popular, entry)
	}

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].IssueCount != popular[j].IssueCount {
			return popular[i].IssueCount > popular[j].IssueCount
		}
		return popular[i].BookID < popular[j].BookID
	})

	if len(popular) > popularBooksLimit {
		popular = popular[:popularBooksLimit]
	}

	return popular, nil
}

// UserActivityReport summarizes a user's loans, fines, and reservations.
func (s *ReportService) UserActivityReport(ctx context.Context, userID int64) (*UserActivity, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Debug().Err(err).Int64("user_id", userID).Msg("user not found for activity report")
		return nil, domain.ErrUserNotFound
	}

	records, err := s.issueRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list issues for activity report")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	reservations, err := s.reservationRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list reservations for activity report")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	asOf := s.now()
	activity := &UserActivity{
		User:        user,
		TotalIssues: len(records),
	}

	for _, record := range records {
		if !record.IsReturned() {
			activity.OpenIssues++
		}
		if record.IsOverdue(asOf) {
			activity.OverdueIssues++
		}
		activity.TotalFines += s.policy.Fine(record, asOf)
	}

	for _, reservation := range reservations {
		if reservation.Active {
			activity.ActiveReservations++
		}
	}

	return activity, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/lock"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// Lock parameters for issue/return operations. The critical section is a
// handful of row reads and writes, so a short TTL with a few retries is
// plenty.
const (
	issueLockTTL        = 10 * time.Second
	issueLockMaxRetries = 3
	issueLockRetryDelay = 50 * time.Millisecond
)

// LoanService creates, tracks, and closes loans, and computes overdue fines.
//
// The at-most-one-open-loan-per-book invariant is enforced by serializing
// the check-and-flip of the book's availability flag under a per-book lock.
type LoanService struct {
	bookRepo  repository.BookRepository
	userRepo  repository.UserRepository
	issueRepo repository.IssueRepository
	locker    lock.Locker
	policy    domain.FinePolicy
	logger    zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewLoanService creates a new LoanService.
func NewLoanService(
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	issueRepo repository.IssueRepository,
	locker lock.Locker,
	policy domain.FinePolicy,
	logger zerolog.Logger,
) *LoanService {
	return &LoanService{
		bookRepo:  bookRepo,
		userRepo:  userRepo,
		issueRepo: issueRepo,
		locker:    locker,
		policy:    policy,
		logger:    logger.With().Str("service", "loan").Logger(),
		now:       time.Now,
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// IssueBookInput contains the data needed to issue a book.
type IssueBookInput struct {
	BookID int64
	UserID int64
}

// IssueBookOutput contains the result of issuing a book.
type IssueBookOutput struct {
	Record *domain.IssueRecord
}

// ReturnBookInput contains the data needed to return a book.
type ReturnBookInput struct {
	RecordID int64

	// FinePaid is the settled fine amount. The caller's figure is trusted
	// as-is (it may legitimately differ from the computed fine, e.g. after
	// a waiver at the desk). When nil, the computed fine is settled.
	FinePaid *float64
}

// ReturnBookOutput contains the result of returning a book.
type ReturnBookOutput struct {
	Record *domain.IssueRecord
}

// FineOutput contains a computed fine for a loan.
type FineOutput struct {
	Record      *domain.IssueRecord
	Fine        float64
	OverdueDays int
}

// =============================================================================
// Service Methods
// =============================================================================

// IssueBook lends a book to a user.
//
// The availability check, flag flip, and record creation are serialized per
// book, so two concurrent requests for the same copy cannot both succeed.
func (s *LoanService) IssueBook(ctx context.Context, input IssueBookInput) (*IssueBookOutput, error) {
	// Validate references before taking the lock.
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	key := lock.Keys.BookIssue(input.BookID)
	acquired, err := s.locker.AcquireWithRetry(ctx, key, issueLockTTL, issueLockMaxRetries, issueLockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Int64("book_id", input.BookID).Msg("failed to acquire book lock")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, ErrBookBusy
	}
	defer func() {
		if _, err := s.locker.Release(ctx, key); err != nil {
			s.logger.Warn().Err(err).Int64("book_id", input.BookID).Msg("failed to release book lock")
		}
	}()

	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookNotFound
		}
		s.logger.Error().Err(err).Int64("book_id", input.BookID).Msg("failed to get book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !book.Available {
		return nil, domain.NewDomainError(domain.ErrBookNotAvailable, "book is already on loan", book.Title)
	}

	if err := s.bookRepo.SetAvailability(ctx, book.ID, false); err != nil {
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("failed to mark book unavailable")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	today := domain.DateOf(s.now())
	record := &domain.IssueRecord{
		BookID:    book.ID,
		UserID:    input.UserID,
		IssueDate: today,
		DueDate:   s.policy.DueDate(today),
		FinePaid:  0,
	}

	if err := s.issueRepo.Create(ctx, record); err != nil {
		// Roll the availability flip back so the book is not stranded.
		if rbErr := s.bookRepo.SetAvailability(ctx, book.ID, true); rbErr != nil {
			s.logger.Error().Err(rbErr).Int64("book_id", book.ID).Msg("failed to restore availability after issue failure")
		}
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("failed to create issue record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("record_id", record.ID).
		Int64("book_id", book.ID).
		Int64("user_id", input.UserID).
		Time("due_date", record.DueDate).
		Msg("book issued")

	return &IssueBookOutput{Record: record}, nil
}

// GetIssue returns a single loan record.
func (s *LoanService) GetIssue(ctx context.Context, recordID int64) (*domain.IssueRecord, error) {
	return s.getRecord(ctx, recordID)
}

// CalculateFine computes the fine owed on a loan as of today.
// Returned loans report their settled amount; open loans accrue per
// overdue calendar day.
func (s *LoanService) CalculateFine(ctx context.Context, recordID int64) (*FineOutput, error) {
	record, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	asOf := s.now()
	return &FineOutput{
		Record:      record,
		Fine:        s.policy.Fine(record, asOf),
		OverdueDays: s.policy.OverdueDays(record, asOf),
	}, nil
}

// ReturnBook closes a loan and restores the book's availability.
func (s *LoanService) ReturnBook(ctx context.Context, input ReturnBookInput) (*ReturnBookOutput, error) {
	record, err := s.getRecord(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}

	key := lock.Keys.BookIssue(record.BookID)
	acquired, err := s.locker.AcquireWithRetry(ctx, key, issueLockTTL, issueLockMaxRetries, issueLockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Int64("book_id", record.BookID).Msg("failed to acquire book lock")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, ErrBookBusy
	}
	defer func() {
		if _, err := s.locker.Release(ctx, key); err != nil {
			s.logger.Warn().Err(err).Int64("book_id", record.BookID).Msg("failed to release book lock")
		}
	}()

	// Re-read under the lock so a concurrent return is seen.
	record, err = s.getRecord(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}

	if record.IsReturned() {
		return nil, domain.NewDomainError(domain.ErrAlreadyReturned, "loan is already closed", "")
	}

	today := domain.DateOf(s.now())

	finePaid := s.policy.Fine(record, today)
	if input.FinePaid != nil {
		if *input.FinePaid < 0 {
			return nil, ErrInvalidFineAmount
		}
		finePaid = *input.FinePaid
	}

	record.ReturnDate = &today
	record.FinePaid = finePaid

	if err := s.issueRepo.Update(ctx, record); err != nil {
		s.logger.Error().Err(err).Int64("record_id", record.ID).Msg("failed to update issue record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.bookRepo.SetAvailability(ctx, record.BookID, true); err != nil {
		// The loan is closed; an unavailable-but-returned book needs
		// operator attention, so log loudly rather than failing the return.
		s.logger.Error().Err(err).Int64("book_id", record.BookID).Msg("failed to restore book availability on return")
	}

	s.logger.Info().
		Int64("record_id", record.ID).
		Int64("book_id", record.BookID).
		Float64("fine_paid", finePaid).
		Msg("book returned")

	return &ReturnBookOutput{Record: record}, nil
}

// ListUserIssues returns all loans for a user, in persistence order.
func (s *LoanService) ListUserIssues(ctx context.Context, userID int64) ([]*domain.IssueRecord, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	records, err := s.issueRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user issues")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return records, nil
}

// ListAllIssues returns every loan, in persistence order.
func (s *LoanService) ListAllIssues(ctx context.Context) ([]*domain.IssueRecord, error) {
	records, err := s.issueRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list issues")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return records, nil
}

// getRecord fetches an issue record, mapping not-found to the domain error.
func (s *LoanService) getRecord(ctx context.Context, id int64) (*domain.IssueRecord, error) {
	record, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrIssueNotFound) {
			return nil, domain.ErrIssueNotFound
		}
		s.logger.Error().Err(err).Int64("record_id", id).Msg("failed to get issue record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return record, nil
}

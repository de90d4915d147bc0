package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	cfg := DefaultConfig(":memory:")
	cfg.JournalMode = "MEMORY"

	db, err := NewDB(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := &domain.User{
		Name:         "Alice Carter",
		Username:     "alice",
		PasswordHash: "hash",
		Role:         domain.RoleStudent,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, domain.RoleStudent, got.Role)
	})

	t.Run("get by username", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := &domain.User{Name: "Other", Username: "alice", PasswordHash: "h", Role: domain.RoleStudent}
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})

	t.Run("exists by username", func(t *testing.T) {
		exists, err := repo.ExistsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("list by role", func(t *testing.T) {
		admin := &domain.User{Name: "Root", Username: "root", PasswordHash: "h", Role: domain.RoleAdmin}
		require.NoError(t, repo.Create(ctx, admin))

		admins, err := repo.ListByRole(ctx, domain.RoleAdmin)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, "root", admins[0].Username)
	})

	t.Run("update", func(t *testing.T) {
		user.Role = domain.RoleLibrarian
		require.NoError(t, repo.Update(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleLibrarian, got.Role)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, user.ID))
		_, err := repo.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, user.ID), domain.ErrUserNotFound)
	})
}

func TestBookRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBookRepository(db)

	book := &domain.Book{
		Title:           "The Go Programming Language",
		Author:          "Donovan",
		ISBN:            "978-0134190440",
		Genre:           "Programming",
		Edition:         "1st",
		Publisher:       "Addison-Wesley",
		PublicationYear: 2015,
		Available:       true,
	}
	require.NoError(t, repo.Create(ctx, book))
	assert.NotZero(t, book.ID)

	t.Run("search by title is case insensitive", func(t *testing.T) {
		found, err := repo.Search(ctx, repository.SearchByTitle, "go programming")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, book.ID, found[0].ID)
	})

	t.Run("search by isbn is exact", func(t *testing.T) {
		found, err := repo.Search(ctx, repository.SearchByISBN, "978-0134190440")
		require.NoError(t, err)
		require.Len(t, found, 1)

		found, err = repo.Search(ctx, repository.SearchByISBN, "978-01341")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("set availability", func(t *testing.T) {
		require.NoError(t, repo.SetAvailability(ctx, book.ID, false))

		got, err := repo.GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.False(t, got.Available)

		assert.ErrorIs(t, repo.SetAvailability(ctx, 999, true), domain.ErrBookNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, book.ID))
		_, err := repo.GetByID(ctx, book.ID)
		assert.ErrorIs(t, err, domain.ErrBookNotFound)
	})
}

func TestIssueRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	users := NewUserRepository(db)
	books := NewBookRepository(db)
	repo := NewIssueRepository(db)

	user := &domain.User{Name: "Bob", Username: "bob", PasswordHash: "h", Role: domain.RoleStudent}
	require.NoError(t, users.Create(ctx, user))
	book := &domain.Book{Title: "Dune", Author: "Herbert", ISBN: "1", Available: true}
	require.NoError(t, books.Create(ctx, book))

	issued := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	record := &domain.IssueRecord{
		BookID:    book.ID,
		UserID:    user.ID,
		IssueDate: issued,
		DueDate:   issued.AddDate(0, 0, domain.DefaultLoanPeriodDays),
	}
	require.NoError(t, repo.Create(ctx, record))
	assert.NotZero(t, record.ID)

	t.Run("round trip preserves dates", func(t *testing.T) {
		got, err := repo.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, got.IssueDate.Equal(issued))
		assert.True(t, got.DueDate.Equal(issued.AddDate(0, 0, 14)))
		assert.Nil(t, got.ReturnDate)
		assert.Zero(t, got.FinePaid)
	})

	t.Run("update records return", func(t *testing.T) {
		returned := issued.AddDate(0, 0, 20)
		record.ReturnDate = &returned
		record.FinePaid = 6.0
		require.NoError(t, repo.Update(ctx, record))

		got, err := repo.GetByID(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReturnDate)
		assert.True(t, got.ReturnDate.Equal(returned))
		assert.Equal(t, 6.0, got.FinePaid)
	})

	t.Run("list by user", func(t *testing.T) {
		records, err := repo.ListByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		records, err = repo.ListByUserID(ctx, 999)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrIssueNotFound)
	})
}

func TestReservationRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	users := NewUserRepository(db)
	books := NewBookRepository(db)
	repo := NewReservationRepository(db)

	user := &domain.User{Name: "Cara", Username: "cara", PasswordHash: "h", Role: domain.RoleStudent}
	require.NoError(t, users.Create(ctx, user))
	book := &domain.Book{Title: "Dune", Author: "Herbert", ISBN: "1", Available: false}
	require.NoError(t, books.Create(ctx, book))

	reservation := &domain.Reservation{
		BookID:          book.ID,
		UserID:          user.ID,
		ReservationDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Active:          true,
	}
	require.NoError(t, repo.Create(ctx, reservation))
	assert.NotZero(t, reservation.ID)

	t.Run("round trip", func(t *testing.T) {
		got, err := repo.GetByID(ctx, reservation.ID)
		require.NoError(t, err)
		assert.True(t, got.Active)
		assert.False(t, got.Notified)
		assert.True(t, got.ReservationDate.Equal(reservation.ReservationDate))
	})

	t.Run("update flags independently", func(t *testing.T) {
		reservation.Active = false
		reservation.Notified = true
		require.NoError(t, repo.Update(ctx, reservation))

		got, err := repo.GetByID(ctx, reservation.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
		assert.True(t, got.Notified)
	})

	t.Run("list by user", func(t *testing.T) {
		reservations, err := repo.ListByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, reservations, 1)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
	})
}

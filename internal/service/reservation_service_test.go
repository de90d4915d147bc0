package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
)

type reservationFixture struct {
	userRepo        *MockUserRepository
	bookRepo        *MockBookRepository
	reservationRepo *MockReservationRepository
	svc             *ReservationService
}

func newReservationFixture() *reservationFixture {
	f := &reservationFixture{
		userRepo:        NewMockUserRepository(),
		bookRepo:        NewMockBookRepository(),
		reservationRepo: NewMockReservationRepository(),
	}
	f.svc = NewReservationService(f.bookRepo, f.userRepo, f.reservationRepo, zerolog.Nop())
	return f
}

func TestReservationService_ReserveBook(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newReservationFixture()
		f.svc.now = func() time.Time {
			return time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
		}
		user := addUser(f.userRepo, "alice", domain.RoleStudent)
		book := addBook(f.bookRepo, "Dune", false)

		out, err := f.svc.ReserveBook(ctx, ReserveBookInput{BookID: book.ID, UserID: user.ID})
		require.NoError(t, err)
		require.NotNil(t, out.Reservation)

		assert.Equal(t, book.ID, out.Reservation.BookID)
		assert.Equal(t, user.ID, out.Reservation.UserID)
		assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), out.Reservation.ReservationDate)
		assert.True(t, out.Reservation.Active)
		assert.False(t, out.Reservation.Notified)
	})

	t.Run("book still available", func(t *testing.T) {
		f := newReservationFixture()
		user := addUser(f.userRepo, "alice", domain.RoleStudent)
		book := addBook(f.bookRepo, "Dune", true)

		_, err := f.svc.ReserveBook(ctx, ReserveBookInput{BookID: book.ID, UserID: user.ID})
		assert.ErrorIs(t, err, domain.ErrBookAvailable)
	})

	t.Run("user not found", func(t *testing.T) {
		f := newReservationFixture()
		book := addBook(f.bookRepo, "Dune", false)

		_, err := f.svc.ReserveBook(ctx, ReserveBookInput{BookID: book.ID, UserID: 42})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("book not found", func(t *testing.T) {
		f := newReservationFixture()
		user := addUser(f.userRepo, "alice", domain.RoleStudent)

		_, err := f.svc.ReserveBook(ctx, ReserveBookInput{BookID: 42, UserID: user.ID})
		assert.ErrorIs(t, err, domain.ErrBookNotFound)
	})
}

func TestReservationService_CancelReservation(t *testing.T) {
	ctx := context.Background()

	reserve := func(f *reservationFixture) *domain.Reservation {
		user := addUser(f.userRepo, "alice", domain.RoleStudent)
		book := addBook(f.bookRepo, "Dune", false)
		out, err := f.svc.ReserveBook(ctx, ReserveBookInput{BookID: book.ID, UserID: user.ID})
		require.NoError(t, err)
		return out.Reservation
	}

	t.Run("deactivates the reservation", func(t *testing.T) {
		f := newReservationFixture()
		reservation := reserve(f)

		require.NoError(t, f.svc.CancelReservation(ctx, reservation.ID))

		stored, err := f.svc.GetReservation(ctx, reservation.ID)
		require.NoError(t, err)
		assert.False(t, stored.Active)
	})

	t.Run("missing reservation is a no-op", func(t *testing.T) {
		f := newReservationFixture()
		assert.NoError(t, f.svc.CancelReservation(ctx, 42))
	})

	t.Run("cancel twice is a no-op", func(t *testing.T) {
		f := newReservationFixture()
		reservation := reserve(f)

		require.NoError(t, f.svc.CancelReservation(ctx, reservation.ID))
		assert.NoError(t, f.svc.CancelReservation(ctx, reservation.ID))
	})

	t.Run("notified flag survives cancellation", func(t *testing.T) {
		f := newReservationFixture()
		reservation := reserve(f)

		_, err := f.svc.NotifyAvailable(ctx, reservation.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.CancelReservation(ctx, reservation.ID))

		stored, err := f.svc.GetReservation(ctx, reservation.ID)
		require.NoError(t, err)
		assert.False(t, stored.Active)
		assert.True(t, stored.Notified)
	})
}

func TestReservationService_NotifyAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the reservation notified", func(t *testing.T) {
		f := newReservationFixture()
		user := addUser(f.userRepo, "alice", domain.RoleStudent)
		book := addBook(f.bookRepo, "Dune", false)
		out, err := f.svc.ReserveBook(ctx, ReserveBookInput{BookID: book.ID, UserID: user.ID})
		require.NoError(t, err)

		updated, err := f.svc.NotifyAvailable(ctx, out.Reservation.ID)
		require.NoError(t, err)
		assert.True(t, updated.Notified)
		assert.True(t, updated.Active)
	})

	t.Run("missing reservation", func(t *testing.T) {
		f := newReservationFixture()
		_, err := f.svc.NotifyAvailable(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
	})
}

func TestReservationService_Lists(t *testing.T) {
	ctx := context.Background()
	f := newReservationFixture()

	alice := addUser(f.userRepo, "alice", domain.RoleStudent)
	bob := addUser(f.userRepo, "bob", domain.RoleStudent)
	b1 := addBook(f.bookRepo, "Dune", false)
	b2 := addBook(f.bookRepo, "Hyperion", false)

	_, err := f.svc.ReserveBook(ctx, ReserveBookInput{BookID: b1.ID, UserID: alice.ID})
	require.NoError(t, err)
	_, err = f.svc.ReserveBook(ctx, ReserveBookInput{BookID: b2.ID, UserID: bob.ID})
	require.NoError(t, err)

	mine, err := f.svc.ListUserReservations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b1.ID, mine[0].BookID)

	all, err := f.svc.ListAllReservations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListUserReservations(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

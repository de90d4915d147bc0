// Package repository defines data access interfaces for Athenaeum.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
)

// SearchField identifies a catalog attribute for book searches.
type SearchField string

const (
	// SearchByTitle matches case-insensitive title substrings.
	SearchByTitle SearchField = "title"

	// SearchByAuthor matches case-insensitive author substrings.
	SearchByAuthor SearchField = "author"

	// SearchByISBN matches the ISBN exactly.
	SearchByISBN SearchField = "isbn"

	// SearchByGenre matches case-insensitive genre substrings.
	SearchByGenre SearchField = "genre"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user and assigns its ID.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// List returns all users.
	List(ctx context.Context) ([]*domain.User, error)

	// ListByRole returns all users with the given role.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id int64) error

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// =============================================================================
// Book Repository
// =============================================================================

// BookRepository defines the interface for catalog data access.
type BookRepository interface {
	// Create creates a new book and assigns its ID.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by ID.
	GetByID(ctx context.Context, id int64) (*domain.Book, error)

	// List returns all books in the catalog.
	List(ctx context.Context) ([]*domain.Book, error)

	// Search returns books matching the keyword on the given field.
	Search(ctx context.Context, field SearchField, keyword string) ([]*domain.Book, error)

	// Update updates an existing book, including its availability flag.
	Update(ctx context.Context, book *domain.Book) error

	// SetAvailability sets just the availability flag of a book.
	SetAvailability(ctx context.Context, id int64, available bool) error

	// Delete deletes a book by ID.
	Delete(ctx context.Context, id int64) error
}

// =============================================================================
// Issue Repository
// =============================================================================

// IssueRepository defines the interface for loan record data access.
type IssueRepository interface {
	// Create creates a new issue record and assigns its ID.
	Create(ctx context.Context, record *domain.IssueRecord) error

	// GetByID retrieves an issue record by ID.
	GetByID(ctx context.Context, id int64) (*domain.IssueRecord, error)

	// ListByUserID returns all issue records for a user, in persistence order.
	ListByUserID(ctx context.Context, userID int64) ([]*domain.IssueRecord, error)

	// List returns all issue records, in persistence order.
	List(ctx context.Context) ([]*domain.IssueRecord, error)

	// Update updates an existing issue record.
	Update(ctx context.Context, record *domain.IssueRecord) error
}

// =============================================================================
// Reservation Repository
// =============================================================================

// ReservationRepository defines the interface for reservation data access.
type ReservationRepository interface {
	// Create creates a new reservation and assigns its ID.
	Create(ctx context.Context, reservation *domain.Reservation) error

	// GetByID retrieves a reservation by ID.
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)

	// ListByUserID returns all reservations for a user, in persistence order.
	ListByUserID(ctx context.Context, userID int64) ([]*domain.Reservation, error)

	// List returns all reservations, in persistence order.
	List(ctx context.Context) ([]*domain.Reservation, error)

	// Update updates an existing reservation.
	Update(ctx context.Context, reservation *domain.Reservation) error
}

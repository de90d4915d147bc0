package sqlite

import (
	"context"
	"fmt"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// bookRepository implements repository.BookRepository for SQLite.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new SQLite book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, author, isbn, genre, edition, publisher, publication_year, available`

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (title, author, isbn, genre, edition, publisher, publication_year, available)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Edition,
		book.Publisher,
		book.PublicationYear,
		boolToInt(book.Available),
	)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	book.ID = id

	return nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`
	return r.scanBook(r.db.QueryRowContext(ctx, query, id))
}

// List returns all books in the catalog.
func (r *bookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY id`
	return r.queryBooks(ctx, query)
}

// Search returns books matching the keyword on the given field.
// Title, author, and genre match case-insensitive substrings; ISBN is exact.
func (r *bookRepository) Search(ctx context.Context, field repository.SearchField, keyword string) ([]*domain.Book, error) {
	switch field {
	case repository.SearchByTitle:
		return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE title LIKE ? COLLATE NOCASE ORDER BY id`, "%"+keyword+"%")
	case repository.SearchByAuthor:
		return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE author LIKE ? COLLATE NOCASE ORDER BY id`, "%"+keyword+"%")
	case repository.SearchByISBN:
		return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE isbn = ? ORDER BY id`, keyword)
	case repository.SearchByGenre:
		return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE genre LIKE ? COLLATE NOCASE ORDER BY id`, "%"+keyword+"%")
	default:
		return nil, fmt.Errorf("unknown search field %q", field)
	}
}

// Update updates an existing book.
func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	query := `
		UPDATE books
		SET title = ?, author = ?, isbn = ?, genre = ?, edition = ?,
		    publisher = ?, publication_year = ?, available = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Edition,
		book.Publisher,
		book.PublicationYear,
		boolToInt(book.Available),
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// SetAvailability sets just the availability flag of a book.
func (r *bookRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET available = ? WHERE id = ?`,
		boolToInt(available), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set book availability: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// Delete deletes a book by ID.
func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

func (r *bookRepository) scanBook(row rowScanner) (*domain.Book, error) {
	book := &domain.Book{}
	var available int

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Genre,
		&book.Edition,
		&book.Publisher,
		&book.PublicationYear,
		&available,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	book.Available = available != 0
	return book, nil
}

func (r *bookRepository) queryBooks(ctx context.Context, query string, args ...interface{}) ([]*domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		book, err := r.scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)

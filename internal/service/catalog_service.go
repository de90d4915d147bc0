package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// CatalogService handles book catalog operations.
type CatalogService struct {
	bookRepo repository.BookRepository
	logger   zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(bookRepo repository.BookRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		bookRepo: bookRepo,
		logger:   logger.With().Str("service", "catalog").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// AddBookInput contains the data needed to add a book to the catalog.
type AddBookInput struct {
	Title           string
	Author          string
	ISBN            string
	Genre           string
	Edition         string
	Publisher       string
	PublicationYear int
}

// AddBookOutput contains the result of adding a book.
type AddBookOutput struct {
	Book *domain.Book
}

// UpdateBookInput contains the data needed to update a book.
// Availability is not updatable here; only the loan engine flips it.
type UpdateBookInput struct {
	ID              int64
	Title           string
	Author          string
	ISBN            string
	Genre           string
	Edition         string
	Publisher       string
	PublicationYear int
}

// SearchBooksInput contains the data needed to search the catalog.
type SearchBooksInput struct {
	Field   string
	Keyword string
}

// SearchBooksOutput contains the matching books.
type SearchBooksOutput struct {
	Books []*domain.Book
}

// =============================================================================
// Service Methods
// =============================================================================

// AddBook adds a new book to the catalog. New books start available.
func (s *CatalogService) AddBook(ctx context.Context, input AddBookInput) (*AddBookOutput, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidTitle
	}
	if strings.TrimSpace(input.Author) == "" {
		return nil, ErrInvalidAuthor
	}

	book := &domain.Book{
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Genre:           input.Genre,
		Edition:         input.Edition,
		Publisher:       input.Publisher,
		PublicationYear: input.PublicationYear,
		Available:       true,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		s.logger.Error().Err(err).Str("title", input.Title).Msg("failed to create book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("book_id", book.ID).
		Str("title", book.Title).
		Msg("book added to catalog")

	return &AddBookOutput{Book: book}, nil
}

// GetBook retrieves a book by ID.
func (s *CatalogService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookNotFound
		}
		s.logger.Error().Err(err).Int64("book_id", id).Msg("failed to get book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return book, nil
}

// ListBooks returns the whole catalog.
func (s *CatalogService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.bookRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list books")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return books, nil
}

// SearchBooks returns books matching the keyword on the given field.
func (s *CatalogService) SearchBooks(ctx context.Context, input SearchBooksInput) (*SearchBooksOutput, error) {
	field := repository.SearchField(strings.ToLower(input.Field))
	switch field {
	case repository.SearchByTitle, repository.SearchByAuthor, repository.SearchByISBN, repository.SearchByGenre:
	default:
		return nil, ErrInvalidSearchField
	}

	books, err := s.bookRepo.Search(ctx, field, input.Keyword)
	if err != nil {
		s.logger.Error().Err(err).Str("field", string(field)).Msg("failed to search books")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &SearchBooksOutput{Books: books}, nil
}

// UpdateBook updates a book's catalog attributes, preserving availability.
func (s *CatalogService) UpdateBook(ctx context.Context, input UpdateBookInput) (*domain.Book, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidTitle
	}
	if strings.TrimSpace(input.Author) == "" {
		return nil, ErrInvalidAuthor
	}

	book, err := s.bookRepo.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookNotFound
		}
		s.logger.Error().Err(err).Int64("book_id", input.ID).Msg("failed to get book for update")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	book.Title = input.Title
	book.Author = input.Author
	book.ISBN = input.ISBN
	book.Genre = input.Genre
	book.Edition = input.Edition
	book.Publisher = input.Publisher
	book.PublicationYear = input.PublicationYear

	if err := s.bookRepo.Update(ctx, book); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookNotFound
		}
		s.logger.Error().Err(err).Int64("book_id", input.ID).Msg("failed to update book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("book_id", book.ID).Msg("book updated")
	return book, nil
}

// RemoveBook removes a book from the catalog.
// Existing issue records and reservations keep their weak references.
func (s *CatalogService) RemoveBook(ctx context.Context, id int64) error {
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return domain.ErrBookNotFound
		}
		s.logger.Error().Err(err).Int64("book_id", id).Msg("failed to delete book")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("book_id", id).Msg("book removed from catalog")
	return nil
}

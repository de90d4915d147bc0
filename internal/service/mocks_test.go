package service

import (
	"context"
	"strings"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockUserRepository is an in-memory implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[int64]*domain.User
	nextID    int64
	createErr error
	getErr    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, exists := m.users[id]; exists {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var result []*domain.User
	for id := int64(1); id < m.nextID; id++ {
		if u, exists := m.users[id]; exists {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	var result []*domain.User
	for id := int64(1); id < m.nextID; id++ {
		if u, exists := m.users[id]; exists && u.Role == role {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.ID]; !exists {
		return domain.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.users[id]; !exists {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// MockBookRepository is an in-memory implementation of repository.BookRepository.
type MockBookRepository struct {
	books       map[int64]*domain.Book
	nextID      int64
	setAvailErr error
	createErr   error
}

func NewMockBookRepository() *MockBookRepository {
	return &MockBookRepository{
		books:  make(map[int64]*domain.Book),
		nextID: 1,
	}
}

func (m *MockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	if m.createErr != nil {
		return m.createErr
	}
	book.ID = m.nextID
	m.nextID++
	m.books[book.ID] = book
	return nil
}

func (m *MockBookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	if b, exists := m.books[id]; exists {
		return b, nil
	}
	return nil, domain.ErrBookNotFound
}

func (m *MockBookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	var result []*domain.Book
	for id := int64(1); id < m.nextID; id++ {
		if b, exists := m.books[id]; exists {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *MockBookRepository) Search(ctx context.Context, field repository.SearchField, keyword string) ([]*domain.Book, error) {
	var result []*domain.Book
	for id := int64(1); id < m.nextID; id++ {
		b, exists := m.books[id]
		if !exists {
			continue
		}
		var match bool
		switch field {
		case repository.SearchByTitle:
			match = strings.Contains(strings.ToLower(b.Title), strings.ToLower(keyword))
		case repository.SearchByAuthor:
			match = strings.Contains(strings.ToLower(b.Author), strings.ToLower(keyword))
		case repository.SearchByISBN:
			match = b.ISBN == keyword
		case repository.SearchByGenre:
			match = strings.Contains(strings.ToLower(b.Genre), strings.ToLower(keyword))
		}
		if match {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *MockBookRepository) Update(ctx context.Context, book *domain.Book) error {
	if _, exists := m.books[book.ID]; !exists {
		return domain.ErrBookNotFound
	}
	m.books[book.ID] = book
	return nil
}

func (m *MockBookRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	if m.setAvailErr != nil {
		return m.setAvailErr
	}
	b, exists := m.books[id]
	if !exists {
		return domain.ErrBookNotFound
	}
	b.Available = available
	return nil
}

func (m *MockBookRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.books[id]; !exists {
		return domain.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

// MockIssueRepository is an in-memory implementation of repository.IssueRepository.
type MockIssueRepository struct {
	records   map[int64]*domain.IssueRecord
	nextID    int64
	createErr error
}

func NewMockIssueRepository() *MockIssueRepository {
	return &MockIssueRepository{
		records: make(map[int64]*domain.IssueRecord),
		nextID:  1,
	}
}

func (m *MockIssueRepository) Create(ctx context.Context, record *domain.IssueRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	record.ID = m.nextID
	m.nextID++
	m.records[record.ID] = record
	return nil
}

func (m *MockIssueRepository) GetByID(ctx context.Context, id int64) (*domain.IssueRecord, error) {
	if r, exists := m.records[id]; exists {
		copied := *r
		return &copied, nil
	}
	return nil, domain.ErrIssueNotFound
}

func (m *MockIssueRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.IssueRecord, error) {
	var result []*domain.IssueRecord
	for id := int64(1); id < m.nextID; id++ {
		if r, exists := m.records[id]; exists && r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MockIssueRepository) List(ctx context.Context) ([]*domain.IssueRecord, error) {
	var result []*domain.IssueRecord
	for id := int64(1); id < m.nextID; id++ {
		if r, exists := m.records[id]; exists {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MockIssueRepository) Update(ctx context.Context, record *domain.IssueRecord) error {
	if _, exists := m.records[record.ID]; !exists {
		return domain.ErrIssueNotFound
	}
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

// MockReservationRepository is an in-memory implementation of repository.ReservationRepository.
type MockReservationRepository struct {
	reservations map[int64]*domain.Reservation
	nextID       int64
}

func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{
		reservations: make(map[int64]*domain.Reservation),
		nextID:       1,
	}
}

func (m *MockReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	reservation.ID = m.nextID
	m.nextID++
	m.reservations[reservation.ID] = reservation
	return nil
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	if r, exists := m.reservations[id]; exists {
		copied := *r
		return &copied, nil
	}
	return nil, domain.ErrReservationNotFound
}

func (m *MockReservationRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	var result []*domain.Reservation
	for id := int64(1); id < m.nextID; id++ {
		if r, exists := m.reservations[id]; exists && r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MockReservationRepository) List(ctx context.Context) ([]*domain.Reservation, error) {
	var result []*domain.Reservation
	for id := int64(1); id < m.nextID; id++ {
		if r, exists := m.reservations[id]; exists {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MockReservationRepository) Update(ctx context.Context, reservation *domain.Reservation) error {
	if _, exists := m.reservations[reservation.ID]; !exists {
		return domain.ErrReservationNotFound
	}
	copied := *reservation
	m.reservations[reservation.ID] = &copied
	return nil
}

// =============================================================================
// Fixture Helpers
// =============================================================================

func addUser(repo *MockUserRepository, username string, role domain.Role) *domain.User {
	user := &domain.User{Name: username, Username: username, PasswordHash: "hash", Role: role}
	_ = repo.Create(context.Background(), user)
	return user
}

func addBook(repo *MockBookRepository, title string, available bool) *domain.Book {
	book := &domain.Book{Title: title, Author: "Author", ISBN: "isbn-" + title, Available: available}
	_ = repo.Create(context.Background(), book)
	return book
}

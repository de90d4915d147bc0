package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/athenaeum-lms/athenaeum/internal/auth"
	"github.com/athenaeum-lms/athenaeum/internal/config"
	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/lock"
	"github.com/athenaeum-lms/athenaeum/internal/repository/sqlite"
	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// testServer wires the full stack against an in-memory SQLite database.
type testServer struct {
	server *httptest.Server
	tokens map[string]string // username -> bearer token
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()

	cfg := sqlite.DefaultConfig(":memory:")
	cfg.JournalMode = "MEMORY"
	db, err := sqlite.NewDB(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	userRepo := sqlite.NewUserRepository(db)
	bookRepo := sqlite.NewBookRepository(db)
	issueRepo := sqlite.NewIssueRepository(db)
	reservationRepo := sqlite.NewReservationRepository(db)

	locker := lock.NewMemoryLocker()
	policy := domain.DefaultFinePolicy()
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	userService := service.NewUserService(userRepo, bcrypt.MinCost, logger)
	catalogService := service.NewCatalogService(bookRepo, logger)
	loanService := service.NewLoanService(bookRepo, userRepo, issueRepo, locker, policy, logger)
	reservationService := service.NewReservationService(bookRepo, userRepo, reservationRepo, logger)
	reportService := service.NewReportService(bookRepo, userRepo, issueRepo, reservationRepo, policy, logger)

	router := NewRouter(RouterConfig{
		UserHandler:        NewUserHandler(userService, tokenManager, logger),
		BookHandler:        NewBookHandler(catalogService, logger),
		IssueHandler:       NewIssueHandler(loanService, nil, logger),
		ReservationHandler: NewReservationHandler(reservationService, nil, logger),
		ReportHandler:      NewReportHandler(reportService, logger),
		AuthMiddleware:     auth.Middleware(tokenManager, auth.DefaultConfig()),
		CORS:               config.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"}},
		Health:             db,
		Logger:             logger,
	})

	ts := &testServer{
		server: httptest.NewServer(router.Handler()),
		tokens: make(map[string]string),
	}
	t.Cleanup(ts.server.Close)

	// Bootstrap an admin, then register and log in the standard cast.
	require.NoError(t, userService.EnsureAdmin(context.Background(), "admin", "admin-password"))
	ts.login(t, "admin", "admin-password")

	ts.registerAs(t, "admin", "Libby", "librarian", "LIBRARIAN")
	ts.login(t, "librarian", "password-1")
	ts.registerAs(t, "", "Stu Dent", "student", "")
	ts.login(t, "student", "password-1")

	return ts
}

func (ts *testServer) registerAs(t *testing.T, actor, name, username, role string) {
	t.Helper()
	body := map[string]string{"name": name, "username": username, "password": "password-1"}
	if role != "" {
		body["role"] = role
	}
	resp := ts.do(t, actor, http.MethodPost, "/api/users/register", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (ts *testServer) login(t *testing.T, username, password string) {
	t.Helper()
	resp := ts.do(t, "", http.MethodPost, "/api/users/login", map[string]string{
		"username": username,
		"password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	ts.tokens[username] = out.Token
}

// do performs a request as the named user ("" for anonymous).
func (ts *testServer) do(t *testing.T, username, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if username != "" {
		req.Header.Set("Authorization", "Bearer "+ts.tokens[username])
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ts *testServer) addBook(t *testing.T, title string) domain.Book {
	t.Helper()
	resp := ts.do(t, "librarian", http.MethodPost, "/api/books", map[string]any{
		"title":  title,
		"author": "Frank Herbert",
		"isbn":   "isbn-" + title,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[domain.Book](t, resp)
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "", http.MethodGet, "/health", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_AuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "", http.MethodGet, "/api/books", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_RoleGating(t *testing.T) {
	ts := newTestServer(t)

	t.Run("students cannot add books", func(t *testing.T) {
		resp := ts.do(t, "student", http.MethodPost, "/api/books", map[string]any{
			"title": "Dune", "author": "Frank Herbert",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("librarians cannot manage users", func(t *testing.T) {
		resp := ts.do(t, "librarian", http.MethodDelete, "/api/users/3", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("anonymous registration cannot pick a role", func(t *testing.T) {
		resp := ts.do(t, "", http.MethodPost, "/api/users/register", map[string]string{
			"name": "Mallory", "username": "mallory", "password": "password-1", "role": "ADMIN",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("students cannot read reports", func(t *testing.T) {
		resp := ts.do(t, "student", http.MethodGet, "/api/reports/overdue", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestRouter_LoanFlow(t *testing.T) {
	ts := newTestServer(t)
	book := ts.addBook(t, "Dune")

	// Find the student's ID through the directory.
	resp := ts.do(t, "admin", http.MethodGet, "/api/users?role=STUDENT", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	students := decodeBody[[]domain.User](t, resp)
	require.Len(t, students, 1)
	studentID := students[0].ID

	// Issue the book.
	resp = ts.do(t, "librarian", http.MethodPost, "/api/issues", map[string]any{
		"bookId": book.ID, "userId": studentID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	record := decodeBody[domain.IssueRecord](t, resp)
	assert.Equal(t, record.IssueDate.AddDate(0, 0, 14), record.DueDate)

	// The copy is now off the shelf; a second issue conflicts.
	resp = ts.do(t, "librarian", http.MethodPost, "/api/issues", map[string]any{
		"bookId": book.ID, "userId": studentID,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The student can see their own loan and fine.
	resp = ts.do(t, "student", http.MethodGet, fmt.Sprintf("/api/issues/user/%d", studentID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decodeBody[[]domain.IssueRecord](t, resp)
	require.Len(t, records, 1)

	resp = ts.do(t, "student", http.MethodGet, fmt.Sprintf("/api/issues/%d/fine", record.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fine := decodeBody[fineResponse](t, resp)
	assert.Zero(t, fine.Fine)

	// But not another user's loans.
	resp = ts.do(t, "student", http.MethodGet, "/api/issues/user/1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Return it.
	resp = ts.do(t, "librarian", http.MethodPost, fmt.Sprintf("/api/issues/%d/return", record.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	returned := decodeBody[domain.IssueRecord](t, resp)
	assert.NotNil(t, returned.ReturnDate)

	// A second return conflicts.
	resp = ts.do(t, "librarian", http.MethodPost, fmt.Sprintf("/api/issues/%d/return", record.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The book is back on the shelf.
	resp = ts.do(t, "student", http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	shelved := decodeBody[domain.Book](t, resp)
	assert.True(t, shelved.Available)
}

func TestRouter_StudentSelfService(t *testing.T) {
	ts := newTestServer(t)
	dune := ts.addBook(t, "Dune")
	hyperion := ts.addBook(t, "Hyperion")

	resp := ts.do(t, "admin", http.MethodGet, "/api/users?role=STUDENT", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	students := decodeBody[[]domain.User](t, resp)
	require.Len(t, students, 1)
	studentID := students[0].ID

	// Students borrow for themselves; an omitted userId means the caller.
	resp = ts.do(t, "student", http.MethodPost, "/api/issues", map[string]any{"bookId": dune.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	record := decodeBody[domain.IssueRecord](t, resp)
	assert.Equal(t, studentID, record.UserID)

	// But never on someone else's behalf.
	resp = ts.do(t, "student", http.MethodPost, "/api/issues", map[string]any{
		"bookId": hyperion.ID, "userId": 2,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Returning their own loan works.
	resp = ts.do(t, "student", http.MethodPost, fmt.Sprintf("/api/issues/%d/return", record.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	returned := decodeBody[domain.IssueRecord](t, resp)
	assert.NotNil(t, returned.ReturnDate)

	// Returning another patron's loan does not.
	resp = ts.do(t, "librarian", http.MethodPost, "/api/issues", map[string]any{
		"bookId": hyperion.ID, "userId": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	other := decodeBody[domain.IssueRecord](t, resp)

	resp = ts.do(t, "student", http.MethodPost, fmt.Sprintf("/api/issues/%d/return", other.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, "librarian", http.MethodPost, fmt.Sprintf("/api/issues/%d/return", other.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRouter_ReservationFlow(t *testing.T) {
	ts := newTestServer(t)
	book := ts.addBook(t, "Dune")

	// Reserving an available book is rejected.
	resp := ts.do(t, "student", http.MethodPost, "/api/reservations", map[string]any{"bookId": book.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Issue the book to the librarian, then the student reserves it.
	resp = ts.do(t, "librarian", http.MethodPost, "/api/issues", map[string]any{"bookId": book.ID, "userId": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, "student", http.MethodPost, "/api/reservations", map[string]any{"bookId": book.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reservation := decodeBody[domain.Reservation](t, resp)
	assert.True(t, reservation.Active)

	// Staff mark the patron notified.
	resp = ts.do(t, "librarian", http.MethodPost, fmt.Sprintf("/api/reservations/%d/notify", reservation.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notified := decodeBody[domain.Reservation](t, resp)
	assert.True(t, notified.Notified)

	// The owner cancels; cancelling again still succeeds.
	resp = ts.do(t, "student", http.MethodDelete, fmt.Sprintf("/api/reservations/%d", reservation.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	resp = ts.do(t, "student", http.MethodDelete, fmt.Sprintf("/api/reservations/%d", reservation.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestRouter_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		user       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"missing book", "student", http.MethodGet, "/api/books/999", nil, http.StatusNotFound},
		{"bad book id", "student", http.MethodGet, "/api/books/zero", nil, http.StatusBadRequest},
		{"missing issue fine", "librarian", http.MethodGet, "/api/issues/999/fine", nil, http.StatusNotFound},
		{"bad search field", "student", http.MethodGet, "/api/books/search?field=publisher&keyword=x", nil, http.StatusBadRequest},
		{"duplicate username", "", http.MethodPost, "/api/users/register",
			map[string]string{"name": "S", "username": "student", "password": "password-1"}, http.StatusConflict},
		{"bad credentials", "", http.MethodPost, "/api/users/login",
			map[string]string{"username": "student", "password": "wrong"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, tt.user, tt.method, tt.path, tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.server.URL+"/api/books", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

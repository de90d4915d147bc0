package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// BookHandler handles catalog requests.
type BookHandler struct {
	catalogService *service.CatalogService
	logger         zerolog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(catalogService *service.CatalogService, logger zerolog.Logger) *BookHandler {
	return &BookHandler{
		catalogService: catalogService,
		logger:         logger.With().Str("handler", "book").Logger(),
	}
}

type bookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	Genre           string `json:"genre"`
	Edition         string `json:"edition"`
	Publisher       string `json:"publisher"`
	PublicationYear int    `json:"publicationYear"`
}

// Create handles POST /api/books. Staff only.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	out, err := h.catalogService.AddBook(r.Context(), service.AddBookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Genre:           req.Genre,
		Edition:         req.Edition,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, out.Book)
}

// Get handles GET /api/books/{bookID}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	book, err := h.catalogService.GetBook(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// List handles GET /api/books.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalogService.ListBooks(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// Search handles GET /api/books/search?field=title&keyword=dune.
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalogService.SearchBooks(r.Context(), service.SearchBooksInput{
		Field:   r.URL.Query().Get("field"),
		Keyword: r.URL.Query().Get("keyword"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Books)
}

// Update handles PUT /api/books/{bookID}. Staff only.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	book, err := h.catalogService.UpdateBook(r.Context(), service.UpdateBookInput{
		ID:              id,
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Genre:           req.Genre,
		Edition:         req.Edition,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// Delete handles DELETE /api/books/{bookID}. Staff only.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.catalogService.RemoveBook(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/auth"
	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// UserHandler handles user directory and authentication requests.
type UserHandler struct {
	userService  *service.UserService
	tokenManager *auth.TokenManager
	logger       zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, tokenManager *auth.TokenManager, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		tokenManager: tokenManager,
		logger:       logger.With().Str("handler", "user").Logger(),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type updateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Register handles POST /api/users/register.
// Anonymous registrations always become students; only staff may set a role.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if req.Role != "" {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok || !identity.IsStaff() {
			writeError(w, h.logger, domain.ErrAccessDenied)
			return
		}
	}

	out, err := h.userService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, out.User)
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.tokenManager.Generate(user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Get handles GET /api/users/{userID}. Students may only read themselves.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if !identity.CanActFor(id) {
		writeError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// List handles GET /api/users with an optional role filter. Staff only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Update handles PUT /api/users/{userID}. Admin only.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), service.UpdateUserInput{
		ID:   id,
		Name: req.Name,
		Role: req.Role,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{userID}. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /api/users/{userID}/password.
// Users change their own password; admins may reset anyone's.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if identity.UserID != id && !identity.IsAdmin() {
		writeError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), service.ChangePasswordInput{
		UserID:      id,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest
	}
	return id, nil
}

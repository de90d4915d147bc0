package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
)

// UserService handles user directory and credential operations.
type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, bcryptCost int, logger zerolog.Logger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// RegisterInput contains the data needed to register a user.
type RegisterInput struct {
	Name     string
	Username string
	Password string

	// Role defaults to STUDENT when empty. Only staff-initiated
	// registrations may set another role; the handler enforces that.
	Role string
}

// RegisterOutput contains the result of registering a user.
type RegisterOutput struct {
	User *domain.User
}

// UpdateUserInput contains the data needed to update a user.
type UpdateUserInput struct {
	ID   int64
	Name string
	Role string
}

// ChangePasswordInput contains the data needed to change a password.
type ChangePasswordInput struct {
	UserID      int64
	OldPassword string
	NewPassword string
}

// =============================================================================
// Service Methods
// =============================================================================

// Register creates a new user account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if err := s.validateRegisterInput(input); err != nil {
		return nil, err
	}

	role := domain.RoleStudent
	if input.Role != "" {
		parsed, err := domain.ParseRole(input.Role)
		if err != nil {
			return nil, domain.ErrInvalidRole
		}
		role = parsed
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username '%s'", domain.ErrUserAlreadyExists, input.Username)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Name, input.Username, string(passwordHash), role)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, fmt.Errorf("%w: username '%s'", domain.ErrUserAlreadyExists, input.Username)
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("user registered")

	return &RegisterOutput{User: user}, nil
}

// Authenticate verifies user credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Log but don't expose whether username exists
		s.logger.Debug().Str("username", username).Msg("user not found during authentication")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("username", username).Msg("invalid password during authentication")
		return nil, ErrInvalidCredentials
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// ListUsers returns all users, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, role string) ([]*domain.User, error) {
	if role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, domain.ErrInvalidRole
		}
		users, err := s.userRepo.ListByRole(ctx, parsed)
		if err != nil {
			s.logger.Error().Err(err).Str("role", role).Msg("failed to list users by role")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		return users, nil
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}

// UpdateUser updates a user's name and role.
func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidName
	}

	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", input.ID).Msg("failed to get user for update")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user.Name = input.Name
	user.Role = role

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", input.ID).Msg("failed to update user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user updated")

	return user, nil
}

// ChangePassword changes a user's password after verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if len(input.NewPassword) < 8 {
		return ErrInvalidPassword
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to get user for password change")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash new password")
		return fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user.PasswordHash = string(newHash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to update password")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

// DeleteUser removes a user from the directory.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to delete user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// EnsureAdmin creates an admin account with the given credentials if no
// user with that username exists yet. Used for first-start bootstrap.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil
	}

	_, err = s.Register(ctx, RegisterInput{
		Name:     "Administrator",
		Username: username,
		Password: password,
		Role:     string(domain.RoleAdmin),
	})
	if err != nil {
		// Another instance may have bootstrapped concurrently.
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil
		}
		return err
	}

	s.logger.Info().Str("username", username).Msg("bootstrap admin created")
	return nil
}

// validateRegisterInput checks registration input constraints.
func (s *UserService) validateRegisterInput(input RegisterInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrInvalidName
	}
	if len(input.Username) < 3 || len(input.Username) > 255 {
		return ErrInvalidUsername
	}
	if len(input.Password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

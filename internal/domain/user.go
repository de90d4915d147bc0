// Package domain contains the core business entities for Athenaeum.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the library management system.
package domain

// Role determines which operations a user may perform.
type Role string

const (
	// RoleAdmin can manage users and perform every library operation.
	RoleAdmin Role = "ADMIN"

	// RoleLibrarian can manage the catalog, loans, reservations, and reports.
	RoleLibrarian Role = "LIBRARIAN"

	// RoleStudent can borrow, return, and reserve books on their own behalf.
	RoleStudent Role = "STUDENT"
)

// ParseRole validates a role name and returns the corresponding Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleLibrarian, RoleStudent:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

// IsStaff returns true for roles that operate on behalf of other users.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// User represents a registered member of the library.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Username is the unique login name. Constraints: 3-255 characters.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This is never exposed in API responses.
	PasswordHash string `json:"-"`

	// Role governs which operations the user is authorized for.
	Role Role `json:"role"`
}

// NewUser creates a new User with the given role.
func NewUser(name, username, passwordHash string, role Role) *User {
	return &User{
		Name:         name,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
}

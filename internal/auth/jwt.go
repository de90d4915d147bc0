package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
)

// Claims holds the JWT claims carried in Athenaeum access tokens.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the ID of the authenticated user.
	UserID int64 `json:"uid"`

	// Username is the login name of the authenticated user.
	Username string `json:"username"`

	// Role is the user's role at token issue time.
	Role string `json:"role"`
}

// TokenManager issues and verifies HMAC-signed access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewTokenManager creates a new token manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues a signed token for the given user.
func (m *TokenManager) Generate(user *domain.User) (string, error) {
	now := m.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   user.Username,
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify validates a token string and returns the caller's identity.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrInvalidToken
	}

	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     role,
	}, nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the status API token payload.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

const (
	issuer = "qbsync"
	// RoleAdmin may read and close sessions through the status API.
	RoleAdmin = "admin"
	// RoleViewer may only read.
	RoleViewer = "viewer"
)

// Token errors.
var (
	ErrInvalidToken = errors.New("auth: invalid or expired token") //nolint:gochecknoglobals // sentinel error
	ErrUnknownRole  = errors.New("auth: unknown role")             //nolint:gochecknoglobals // sentinel error
)

// ValidRole reports whether role is one IssueToken accepts.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}

// IssueToken creates a signed HS256 token for the status API.
func IssueToken(secret, subject, role string, ttl time.Duration) (string, error) {
	if !ValidRole(role) {
		return "", fmt.Errorf("auth.IssueToken: %w: %q", ErrUnknownRole, role)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid || !ValidRole(claims.Role) {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}

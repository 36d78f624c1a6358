package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/procureledger/internal/domain"
)

const issuer = "procureledger"

// Claims carries the acting user. The user id travels as the registered
// subject claim.
type Claims struct {
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) User() *domain.User {
	return &domain.User{ID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}
}

// JWTManager signs and verifies HS256 tokens for API users.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	m := &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m
}

func (m *JWTManager) Generate(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("user id is required")
	}
	if !user.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", user.Role)
	}

	now := m.now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}).SignedString(m.secret)
}

// Verify returns domain.ErrExpiredToken for an expired token and
// domain.ErrInvalidToken for anything else that does not check out.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := m.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrExpiredToken
	case err != nil, claims.Subject == "", !claims.Role.IsValid():
		return nil, domain.ErrInvalidToken
	}
	return &claims, nil
}

package auth

import (
	"context"

	"github.com/iho/procureledger/internal/domain"
)

// ContextIdentity implements usecase.IdentityProvider with the user the
// authentication middleware stored in the request context.
type ContextIdentity struct{}

// ActingUser returns the authenticated user's id.
func (ContextIdentity) ActingUser(ctx context.Context) (string, error) {
	user, ok := domain.UserFromContext(ctx)
	if !ok || user.ID == "" {
		return "", domain.ErrUnauthenticated
	}
	return user.ID, nil
}

// StaticIdentity acts as a fixed user. The CLI uses it for operator commands.
type StaticIdentity string

// ActingUser returns the fixed user id.
func (s StaticIdentity) ActingUser(context.Context) (string, error) {
	if s == "" {
		return "", domain.ErrUnauthenticated
	}
	return string(s), nil
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// User is the authenticated caller of an operation.
type User struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

type Role string

const (
	RoleAdmin    Role = "admin"    // every operation
	RoleFinance  Role = "finance"  // ledger postings and budget movements
	RoleApprover Role = "approver" // decisions on approvals assigned to them
)

var (
	ErrUnauthenticated = errors.New("no acting user in context")
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token has expired")
	ErrUnknownRole     = errors.New("unknown role")
)

// Roles lists every role in privilege order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleFinance, RoleApprover}
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFinance, RoleApprover:
		return true
	}
	return false
}

// CanPost reports whether the role may post ledger entries and move budgets.
func (r Role) CanPost() bool {
	return r == RoleAdmin || r == RoleFinance
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user stored by ContextWithUser. A stored nil
// user counts as absent.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*User)
	return u, ok && u != nil
}

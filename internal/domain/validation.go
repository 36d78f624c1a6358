package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccountName     = errors.New("invalid account name")
	ErrAmountTooLarge         = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall         = errors.New("amount below minimum allowed")
	ErrInvalidReferenceNumber = errors.New("invalid reference number")
	ErrInvalidRelatedAccounts = errors.New("invalid related accounts")
)

// Posting limits. Amounts are compared as decimals.
const (
	MaxAccountNameLength = 255
	MaxPostingAmount     = "1000000000000"
	MinPostingAmount     = "0.01"
	MaxRelatedAccounts   = 16

	DefaultPageSize = 50
	MaxPageSize     = 1000
)

var (
	minPosting = decimal.RequireFromString(MinPostingAmount)
	maxPosting = decimal.RequireFromString(MaxPostingAmount)

	// Reference numbers look like INV-00001 or PO-2024-0003.
	referencePattern = regexp.MustCompile(`^[A-Z]{2,5}-[0-9A-Z-]{1,32}$`)
)

func ValidateAccountName(name string) error {
	switch n := len(strings.TrimSpace(name)); {
	case n == 0:
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	case n > MaxAccountNameLength:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}
	return nil
}

// ValidateAmount bounds a posting or reservation amount. Non-positive amounts
// return ErrInvalidAmount unwrapped.
func ValidateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return ErrInvalidAmount
	case amount.LessThan(minPosting):
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinPostingAmount)
	case amount.GreaterThan(maxPosting):
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxPostingAmount)
	}
	return nil
}

// ValidateReferenceNumber accepts an empty reference or one in PREFIX-SUFFIX form.
func ValidateReferenceNumber(ref string) error {
	if ref != "" && !referencePattern.MatchString(ref) {
		return fmt.Errorf("%w: %q", ErrInvalidReferenceNumber, ref)
	}
	return nil
}

// ValidateRelatedAccounts checks an entry's cross-reference map: bounded size,
// no blank keys or roles, and no reference back to the entry's own account.
func ValidateRelatedAccounts(accountID string, related map[string]string) error {
	if len(related) > MaxRelatedAccounts {
		return fmt.Errorf("%w: more than %d entries", ErrInvalidRelatedAccounts, MaxRelatedAccounts)
	}
	for id, role := range related {
		if id == "" || strings.TrimSpace(role) == "" {
			return fmt.Errorf("%w: empty account id or role", ErrInvalidRelatedAccounts)
		}
		if id == accountID {
			return fmt.Errorf("%w: entry cannot reference its own account", ErrInvalidRelatedAccounts)
		}
	}
	return nil
}

// ValidatePagination clamps limit to (0, MaxPageSize], defaulting to
// DefaultPageSize, and floors offset at zero. The error is always nil.
func ValidatePagination(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return min(limit, MaxPageSize), max(offset, 0), nil
}

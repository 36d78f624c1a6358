package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	deps        Deps
	accountRepo AccountRepository
	codes       AccountCodeReader
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(deps Deps, accountRepo AccountRepository, codes AccountCodeReader) *AccountUseCase {
	return &AccountUseCase{
		deps:        deps.withDefaults(),
		accountRepo: accountRepo,
		codes:       codes,
	}
}

// CreateAccountInput represents input for opening an account.
type CreateAccountInput struct {
	Name   string
	CodeID string
}

// CreateAccount opens an account under an account code. The account type is
// inherited from the nearest typed node of the chart of accounts.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	actor, err := uc.deps.actor(ctx)
	if err != nil {
		return nil, err
	}

	nodes, err := uc.codes.ListCodes(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := domain.NewHierarchy(nodes)
	if err != nil {
		return nil, err
	}
	accountType, err := tree.ResolveType(input.CodeID)
	if err != nil {
		return nil, fmt.Errorf("resolve account type: %w", err)
	}

	now := uc.deps.Clock.Now()
	account := &domain.Account{
		ID:           uc.deps.IDGen.Generate(),
		Name:         input.Name,
		CodeID:       input.CodeID,
		Type:         accountType,
		CreditAmount: decimal.Zero,
		DebitAmount:  decimal.Zero,
		CreatedBy:    actor,
		UpdatedBy:    actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}
		return uc.deps.audit(ctx, tx, actor, domain.AuditActionAccountOpen,
			domain.AggregateTypeAccount, account.ID, nil, account)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, accountError(id, err)
	}
	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

const requestBudgetColumns = `id, department_id, cost_center_id, sub_cost_center_id, fiscal_period_id,
	status, balance_amount, reserved_amount, updated_by, created_at, updated_at`

// RequestBudgetRepository implements usecase.RequestBudgetRepository.
type RequestBudgetRepository struct {
	db DBTX
}

// NewRequestBudgetRepository creates a new RequestBudgetRepository.
func NewRequestBudgetRepository(db DBTX) *RequestBudgetRepository {
	return &RequestBudgetRepository{db: db}
}

// GetByID retrieves a request budget.
func (r *RequestBudgetRepository) GetByID(ctx context.Context, id string) (*domain.RequestBudget, error) {
	query := `SELECT ` + requestBudgetColumns + ` FROM request_budgets WHERE id = $1`
	return scanRequestBudget(r.db.QueryRow(ctx, query, id), id)
}

// GetByIDForUpdate retrieves and locks a request budget.
func (r *RequestBudgetRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.RequestBudget, error) {
	query := `SELECT ` + requestBudgetColumns + ` FROM request_budgets WHERE id = $1 FOR UPDATE`
	return scanRequestBudget(pgxTx(tx).QueryRow(ctx, query, id), id)
}

// FindByScopeForUpdate locks the request budget of a scope in a fiscal period.
// Every scope dimension compares with IS NOT DISTINCT FROM so that NULL matches NULL only.
func (r *RequestBudgetRepository) FindByScopeForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.BudgetScope, fiscalPeriodID string) (*domain.RequestBudget, error) {
	query := `
		SELECT ` + requestBudgetColumns + `
		FROM request_budgets
		WHERE fiscal_period_id = $1
		  AND department_id IS NOT DISTINCT FROM $2
		  AND cost_center_id IS NOT DISTINCT FROM $3
		  AND sub_cost_center_id IS NOT DISTINCT FROM $4
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`

	row := pgxTx(tx).QueryRow(ctx, query,
		fiscalPeriodID,
		textOrNull(scope.DepartmentID),
		textOrNull(scope.CostCenterID),
		textOrNull(scope.SubCostCenterID),
	)
	return scanRequestBudget(row, fiscalPeriodID)
}

// UpdateAmounts writes balance and reserved amounts. The table's CHECK constraints
// reject negative values as a second line behind the domain rules.
func (r *RequestBudgetRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, budget *domain.RequestBudget) error {
	query := `
		UPDATE request_budgets
		SET balance_amount = $2, reserved_amount = $3, updated_by = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := pgxTx(tx).Exec(ctx, query,
		budget.ID,
		decimalToNumeric(budget.BalanceAmount),
		decimalToNumeric(budget.ReservedAmount),
		budget.UpdatedBy,
		budget.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBudgetNotFound, budget.ID)
	}
	return nil
}

func scanRequestBudget(row pgx.Row, key string) (*domain.RequestBudget, error) {
	var (
		b                                     domain.RequestBudget
		department, costCenter, subCostCenter pgtype.Text
		status                                string
		balance, reserved                     pgtype.Numeric
	)

	err := row.Scan(
		&b.ID,
		&department,
		&costCenter,
		&subCostCenter,
		&b.FiscalPeriodID,
		&status,
		&balance,
		&reserved,
		&b.UpdatedBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBudgetNotFound, key)
		}
		return nil, err
	}

	b.Scope = domain.BudgetScope{
		DepartmentID:    nullableText(department),
		CostCenterID:    nullableText(costCenter),
		SubCostCenterID: nullableText(subCostCenter),
	}
	b.Status = domain.ApprovalState(status)
	b.BalanceAmount = numericToDecimal(balance)
	b.ReservedAmount = numericToDecimal(reserved)

	return &b, nil
}

// BudgetRepository implements usecase.BudgetRepository for fiscal-period budgets.
type BudgetRepository struct {
	db DBTX
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(db DBTX) *BudgetRepository {
	return &BudgetRepository{db: db}
}

const budgetColumns = `id, fiscal_period_id, total_revenue_actual, status, updated_by, created_at, updated_at`

// GetByIDForUpdate retrieves and locks a budget.
func (r *BudgetRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = $1 FOR UPDATE`

	b, err := scanBudget(pgxTx(tx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBudgetNotFound, id)
	}
	return b, err
}

// ListByFiscalPeriodForUpdate locks every budget of a period in a given status.
func (r *BudgetRepository) ListByFiscalPeriodForUpdate(ctx context.Context, tx usecase.Transaction, fiscalPeriodID string, status domain.BudgetStatus) ([]*domain.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE fiscal_period_id = $1 AND status = $2
		ORDER BY id
		FOR UPDATE
	`

	rows, err := pgxTx(tx).Query(ctx, query, fiscalPeriodID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []*domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}

	return budgets, rows.Err()
}

// UpdateStatus writes a budget's status.
func (r *BudgetRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, budget *domain.Budget) error {
	query := `UPDATE budgets SET status = $2, updated_by = $3, updated_at = $4 WHERE id = $1`

	_, err := pgxTx(tx).Exec(ctx, query, budget.ID, string(budget.Status), budget.UpdatedBy, budget.UpdatedAt)
	return err
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var (
		b       domain.Budget
		revenue pgtype.Numeric
		status  string
	)

	if err := row.Scan(&b.ID, &b.FiscalPeriodID, &revenue, &status, &b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	b.TotalRevenueActual = numericToDecimal(revenue)
	b.Status = domain.BudgetStatus(status)

	return &b, nil
}

// CommitmentRepository implements usecase.CommitmentRepository over budget_commitments.
type CommitmentRepository struct{}

// NewCommitmentRepository creates a new CommitmentRepository.
func NewCommitmentRepository() *CommitmentRepository {
	return &CommitmentRepository{}
}

// GetCommitment returns the request budget a purchase or payment order draws from,
// or nil when the document has none.
func (r *CommitmentRepository) GetCommitment(ctx context.Context, tx usecase.Transaction, doc domain.DocumentRef) (*domain.Commitment, error) {
	query := `
		SELECT request_budget_id, amount
		FROM budget_commitments
		WHERE document_kind = $1 AND document_id = $2
	`

	var (
		c      domain.Commitment
		amount pgtype.Numeric
	)
	err := pgxTx(tx).QueryRow(ctx, query, string(doc.Kind), doc.ID).Scan(&c.RequestBudgetID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	c.Amount = numericToDecimal(amount)
	return &c, nil
}

// Create links doc to the request budget it reserved on.
func (r *CommitmentRepository) Create(ctx context.Context, tx usecase.Transaction, doc domain.DocumentRef, commitment *domain.Commitment) error {
	query := `
		INSERT INTO budget_commitments (document_kind, document_id, request_budget_id, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_kind, document_id) DO NOTHING
	`

	tag, err := pgxTx(tx).Exec(ctx, query, string(doc.Kind), doc.ID, commitment.RequestBudgetID, decimalToNumeric(commitment.Amount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDocumentCommitted, doc)
	}
	return nil
}


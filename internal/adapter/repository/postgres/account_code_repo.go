package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/procureledger/internal/domain"
)

// AccountCodeRepository reads the chart of account codes.
type AccountCodeRepository struct {
	db DBTX
}

// NewAccountCodeRepository creates a new AccountCodeRepository.
func NewAccountCodeRepository(db DBTX) *AccountCodeRepository {
	return &AccountCodeRepository{db: db}
}

// ListCodes returns every account code. Types are set only where the chart declares one.
func (r *AccountCodeRepository) ListCodes(ctx context.Context) ([]domain.HierarchyNode, error) {
	query := `SELECT id, parent_id, code, name, account_type FROM account_codes ORDER BY code`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []domain.HierarchyNode
	for rows.Next() {
		var (
			n           domain.HierarchyNode
			parentID    pgtype.Text
			accountType pgtype.Text
		)
		if err := rows.Scan(&n.ID, &parentID, &n.Code, &n.Name, &accountType); err != nil {
			return nil, err
		}
		n.ParentID = parentID.String
		n.Type = domain.AccountType(accountType.String)
		nodes = append(nodes, n)
	}

	return nodes, rows.Err()
}

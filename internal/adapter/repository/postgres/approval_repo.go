package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

const approvalColumns = `id, document_kind, document_id, requester_id, assigned_to, process_step_id,
	step_order, status, description, note, referred_to, created_by, updated_by, created_at, decided_at`

// ApprovalRepository implements usecase.ApprovalRepository.
type ApprovalRepository struct {
	db DBTX
}

// NewApprovalRepository creates a new ApprovalRepository.
func NewApprovalRepository(db DBTX) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create inserts a pending approval transaction.
func (r *ApprovalRepository) Create(ctx context.Context, tx usecase.Transaction, at *domain.ApprovalTransaction) error {
	query := `
		INSERT INTO approval_transactions (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := pgxTx(tx).Exec(ctx, query,
		at.ID,
		string(at.Document.Kind),
		at.Document.ID,
		at.RequesterID,
		at.AssignedTo,
		at.ProcessStepID,
		at.StepOrder,
		string(at.Status),
		at.Description,
		at.Note,
		textOrNull(at.ReferredTo),
		at.CreatedBy,
		at.UpdatedBy,
		at.CreatedAt,
		timestamptzOrNull(at.DecidedAt),
	)

	return err
}

// ListByDocument returns a document's chain ordered by step then creation time.
func (r *ApprovalRepository) ListByDocument(ctx context.Context, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_transactions
		WHERE document_kind = $1 AND document_id = $2
		ORDER BY step_order, created_at
	`

	rows, err := r.db.Query(ctx, query, string(doc.Kind), doc.ID)
	if err != nil {
		return nil, err
	}
	return collectApprovals(rows)
}

// ListByDocumentForUpdate locks a document's chain.
func (r *ApprovalRepository) ListByDocumentForUpdate(ctx context.Context, tx usecase.Transaction, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_transactions
		WHERE document_kind = $1 AND document_id = $2
		ORDER BY step_order, created_at
		FOR UPDATE
	`

	rows, err := pgxTx(tx).Query(ctx, query, string(doc.Kind), doc.ID)
	if err != nil {
		return nil, err
	}
	return collectApprovals(rows)
}

// Decide moves a pending row to its decided status. The status guard in the
// WHERE clause makes a second decision on the same row affect nothing.
func (r *ApprovalRepository) Decide(ctx context.Context, tx usecase.Transaction, at *domain.ApprovalTransaction) error {
	query := `
		UPDATE approval_transactions
		SET status = $2, note = $3, referred_to = $4, updated_by = $5, decided_at = $6
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := pgxTx(tx).Exec(ctx, query,
		at.ID,
		string(at.Status),
		at.Note,
		textOrNull(at.ReferredTo),
		at.UpdatedBy,
		timestamptzOrNull(at.DecidedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyDecided, at.ID)
	}
	return nil
}

func collectApprovals(rows pgx.Rows) ([]*domain.ApprovalTransaction, error) {
	defer rows.Close()

	var chain []*domain.ApprovalTransaction
	for rows.Next() {
		var (
			at           domain.ApprovalTransaction
			kind, status string
			referredTo   pgtype.Text
			decidedAt    pgtype.Timestamptz
		)

		err := rows.Scan(
			&at.ID,
			&kind,
			&at.Document.ID,
			&at.RequesterID,
			&at.AssignedTo,
			&at.ProcessStepID,
			&at.StepOrder,
			&status,
			&at.Description,
			&at.Note,
			&referredTo,
			&at.CreatedBy,
			&at.UpdatedBy,
			&at.CreatedAt,
			&decidedAt,
		)
		if err != nil {
			return nil, err
		}

		at.Document.Kind = domain.DocumentKind(kind)
		at.Status = domain.ApprovalStatus(status)
		at.ReferredTo = nullableText(referredTo)
		at.DecidedAt = pgTimestamptzToPtr(decidedAt)

		chain = append(chain, &at)
	}

	return chain, rows.Err()
}

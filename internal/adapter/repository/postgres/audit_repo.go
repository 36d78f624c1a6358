package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

const auditColumns = `id, user_id, action, resource_type, resource_id,
	ip_address, user_agent, request_id,
	before_state, after_state, status, error_message, created_at`

// AuditRepository stores the audit trail. Rows are written inside the unit of
// work they describe, so a rolled-back change leaves no audit row.
type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	before, err := encodeState(log.BeforeState)
	if err != nil {
		return fmt.Errorf("encode before state: %w", err)
	}
	after, err := encodeState(log.AfterState)
	if err != nil {
		return fmt.Errorf("encode after state: %w", err)
	}

	_, err = pgxTx(tx).Exec(ctx,
		`INSERT INTO audit_logs (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		log.ID, log.UserID, log.Action, log.ResourceType, log.ResourceID,
		log.IPAddress, log.UserAgent, log.RequestID,
		before, after, log.Status, log.ErrorMessage, log.CreatedAt,
	)
	return err
}

// auditQuery accumulates WHERE conditions with positional placeholders.
type auditQuery struct {
	conds []string
	args  []any
}

func (q *auditQuery) where(column, op string, v any) {
	q.args = append(q.args, v)
	q.conds = append(q.conds, fmt.Sprintf("%s %s $%d", column, op, len(q.args)))
}

func (q *auditQuery) sql(f domain.AuditFilter) string {
	var b strings.Builder
	b.WriteString(`SELECT ` + auditColumns + ` FROM audit_logs`)
	if len(q.conds) > 0 {
		b.WriteString(` WHERE ` + strings.Join(q.conds, ` AND `))
	}
	b.WriteString(` ORDER BY created_at DESC`)
	if f.Limit > 0 {
		q.args = append(q.args, f.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(q.args))
	}
	if f.Offset > 0 {
		q.args = append(q.args, f.Offset)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(q.args))
	}
	return b.String()
}

// List returns matching audit rows, newest first.
func (r *AuditRepository) List(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error) {
	var q auditQuery
	for _, c := range []struct {
		column, value string
	}{
		{"user_id", f.UserID},
		{"action", f.Action},
		{"resource_type", f.ResourceType},
		{"resource_id", f.ResourceID},
	} {
		if c.value != "" {
			q.where(c.column, "=", c.value)
		}
	}
	if f.StartDate != nil {
		q.where("created_at", ">=", *f.StartDate)
	}
	if f.EndDate != nil {
		q.where("created_at", "<=", *f.EndDate)
	}

	query := q.sql(f)
	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanAuditLog)
}

func scanAuditLog(row pgx.CollectableRow) (*domain.AuditLog, error) {
	var (
		log           domain.AuditLog
		before, after []byte
	)
	err := row.Scan(
		&log.ID, &log.UserID, &log.Action, &log.ResourceType, &log.ResourceID,
		&log.IPAddress, &log.UserAgent, &log.RequestID,
		&before, &after, &log.Status, &log.ErrorMessage, &log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if log.BeforeState, err = decodeState(before); err != nil {
		return nil, fmt.Errorf("audit %s before state: %w", log.ID, err)
	}
	if log.AfterState, err = decodeState(after); err != nil {
		return nil, fmt.Errorf("audit %s after state: %w", log.ID, err)
	}
	return &log, nil
}

func encodeState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}

func decodeState(raw []byte) (domain.JSON, error) {
	if raw == nil {
		return nil, nil
	}
	var state domain.JSON
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return state, nil
}

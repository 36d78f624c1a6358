package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/procureledger/internal/domain"
)

// ProcessRepository implements usecase.ProcessReader.
type ProcessRepository struct {
	db DBTX
}

// NewProcessRepository creates a new ProcessRepository.
func NewProcessRepository(db DBTX) *ProcessRepository {
	return &ProcessRepository{db: db}
}

// GetByTitle loads a process and its steps ordered by step order.
func (r *ProcessRepository) GetByTitle(ctx context.Context, title string) (*domain.Process, error) {
	var p domain.Process

	err := r.db.QueryRow(ctx, `SELECT id, title FROM processes WHERE title = $1`, title).Scan(&p.ID, &p.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProcessNotFound, title)
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, process_id, designation_id, step_order
		FROM process_steps
		WHERE process_id = $1
		ORDER BY step_order
	`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.ProcessStep
		if err := rows.Scan(&s.ID, &s.ProcessID, &s.DesignationID, &s.Order); err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, s)
	}

	return &p, rows.Err()
}

// ApproverResolver implements usecase.ApproverResolver over user designations.
type ApproverResolver struct {
	db DBTX
}

// NewApproverResolver creates a new ApproverResolver.
func NewApproverResolver(db DBTX) *ApproverResolver {
	return &ApproverResolver{db: db}
}

// ResolveApprover picks a user holding the step's designation. Holders in the
// requester's department win; ties fall to the lowest user id. An empty id
// with a nil error means nobody holds the designation.
func (r *ApproverResolver) ResolveApprover(ctx context.Context, step domain.ProcessStep, requesterID string) (string, error) {
	query := `
		SELECT ud.user_id
		FROM user_designations ud
		LEFT JOIN employees holder ON holder.user_id = ud.user_id
		LEFT JOIN employees requester ON requester.user_id = $2
		WHERE ud.designation_id = $1
		ORDER BY (holder.department_id IS NOT DISTINCT FROM requester.department_id) DESC, ud.user_id
		LIMIT 1
	`

	var userID string
	err := r.db.QueryRow(ctx, query, step.DesignationID, requesterID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}

	return userID, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

const taskColumns = `id, assigned_to, process_step_id, approval_id, document_kind, document_id,
	status, created_at, completed_at`

// TaskRepository implements usecase.TaskRepository.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts an open task.
func (r *TaskRepository) Create(ctx context.Context, tx usecase.Transaction, task *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := pgxTx(tx).Exec(ctx, query,
		task.ID,
		task.AssignedTo,
		task.ProcessStepID,
		task.ApprovalID,
		string(task.Document.Kind),
		task.Document.ID,
		string(task.Status),
		task.CreatedAt,
		timestamptzOrNull(task.CompletedAt),
	)

	return err
}

// CompleteByApproval closes the open task of an approval. A missing task is not an error.
func (r *TaskRepository) CompleteByApproval(ctx context.Context, tx usecase.Transaction, approvalID string, at time.Time) error {
	query := `
		UPDATE tasks
		SET status = 'done', completed_at = $2
		WHERE approval_id = $1 AND status = 'open'
	`

	_, err := pgxTx(tx).Exec(ctx, query, approvalID, at)
	return err
}

// ListOpen lists an assignee's open tasks, oldest first.
func (r *TaskRepository) ListOpen(ctx context.Context, assignee string, limit, offset int) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE assigned_to = $1 AND status = 'open'
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, assignee, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		var (
			t            domain.Task
			kind, status string
			completedAt  pgtype.Timestamptz
		)
		err := rows.Scan(
			&t.ID,
			&t.AssignedTo,
			&t.ProcessStepID,
			&t.ApprovalID,
			&kind,
			&t.Document.ID,
			&status,
			&t.CreatedAt,
			&completedAt,
		)
		if err != nil {
			return nil, err
		}

		t.Document.Kind = domain.DocumentKind(kind)
		t.Status = domain.TaskStatus(status)
		t.CompletedAt = pgTimestamptzToPtr(completedAt)

		tasks = append(tasks, &t)
	}

	return tasks, rows.Err()
}

package usecase

import (
	"context"

	"github.com/iho/procureledger/internal/domain"
)

// TaskDispatcher surfaces pending approvals to their assignees.
type TaskDispatcher struct {
	deps  Deps
	tasks TaskRepository
}

// NewTaskDispatcher creates a new TaskDispatcher.
func NewTaskDispatcher(deps Deps, tasks TaskRepository) *TaskDispatcher {
	return &TaskDispatcher{
		deps:  deps.withDefaults(),
		tasks: tasks,
	}
}

// Dispatch opens a task for a pending approval inside the caller's transaction.
// Delivery to the assignee happens after commit through the outbox.
func (d *TaskDispatcher) Dispatch(ctx context.Context, tx Transaction, approval *domain.ApprovalTransaction) (*domain.Task, error) {
	task := &domain.Task{
		ID:            d.deps.IDGen.Generate(),
		AssignedTo:    approval.AssignedTo,
		ProcessStepID: approval.ProcessStepID,
		ApprovalID:    approval.ID,
		Document:      approval.Document,
		Status:        domain.TaskOpen,
		CreatedAt:     d.deps.Clock.Now(),
	}

	if err := d.tasks.Create(ctx, tx, task); err != nil {
		return nil, err
	}

	payload := domain.TaskAssignedEvent{
		TaskID:       task.ID,
		ApprovalID:   approval.ID,
		AssignedTo:   task.AssignedTo,
		DocumentKind: string(approval.Document.Kind),
		DocumentID:   approval.Document.ID,
		StepOrder:    approval.StepOrder,
	}
	if err := d.deps.emit(ctx, tx, domain.AggregateTypeTask, task.ID, domain.EventTypeTaskAssigned, domain.MarshalState(payload)); err != nil {
		return nil, err
	}

	return task, nil
}

// Complete closes the task of a decided approval.
func (d *TaskDispatcher) Complete(ctx context.Context, tx Transaction, approvalID string) error {
	return d.tasks.CompleteByApproval(ctx, tx, approvalID, d.deps.Clock.Now())
}

// ListOpenTasks lists the open tasks of an assignee.
func (d *TaskDispatcher) ListOpenTasks(ctx context.Context, assignee string, limit, offset int) ([]*domain.Task, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return d.tasks.ListOpen(ctx, assignee, limit, offset)
}

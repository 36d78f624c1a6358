package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/iho/procureledger/internal/domain"
)

// TaskTypeNotifyAssignee asks a worker to tell an approver about a new task.
const TaskTypeNotifyAssignee = "approval:notify_assignee"

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskNotifier turns task assignment events into asynq jobs. Other events are ignored.
type TaskNotifier struct {
	client enqueuer
	queue  string
}

// NewTaskNotifier creates a notifier enqueueing on queue.
func NewTaskNotifier(client *asynq.Client, queue string) *TaskNotifier {
	return newTaskNotifier(client, queue)
}

func newTaskNotifier(client enqueuer, queue string) *TaskNotifier {
	if queue == "" {
		queue = "default"
	}
	return &TaskNotifier{client: client, queue: queue}
}

// NewNotifyAssigneeTask builds the job for a task assignment.
func NewNotifyAssigneeTask(payload domain.TaskAssignedEvent) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyAssignee, data), nil
}

// Publish implements Publisher. The outbox event id doubles as the asynq task id,
// so a redelivered event does not notify twice.
func (n *TaskNotifier) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if event.EventType != domain.EventTypeTaskAssigned {
		return nil
	}

	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	var payload domain.TaskAssignedEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode task assignment %s: %w", event.ID, err)
	}

	task, err := NewNotifyAssigneeTask(payload)
	if err != nil {
		return err
	}

	_, err = n.client.EnqueueContext(ctx, task, asynq.Queue(n.queue), asynq.TaskID(event.ID), asynq.MaxRetry(5))
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

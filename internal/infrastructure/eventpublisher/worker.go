package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/iho/procureledger/internal/domain"
)

// Notifier delivers a task assignment to its assignee.
type Notifier interface {
	NotifyAssignee(ctx context.Context, event domain.TaskAssignedEvent) error
}

// LogNotifier writes assignments to the log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyAssignee implements Notifier.
func (n *LogNotifier) NotifyAssignee(_ context.Context, event domain.TaskAssignedEvent) error {
	n.logger.Info().
		Str("assigned_to", event.AssignedTo).
		Str("task_id", event.TaskID).
		Str("document_kind", event.DocumentKind).
		Str("document_id", event.DocumentID).
		Int("step_order", event.StepOrder).
		Msg("approval task assigned")
	return nil
}

// NotifyAssigneeHandler decodes TaskTypeNotifyAssignee jobs for notifier.
// Undecodable payloads are not retried.
func NotifyAssigneeHandler(notifier Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload domain.TaskAssignedEvent
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		return notifier.NotifyAssignee(ctx, payload)
	}
}

// Worker consumes notification jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger zerolog.Logger
}

// NewWorker creates a worker for queue.
func NewWorker(opt asynq.RedisConnOpt, queue string, notifier Notifier, logger zerolog.Logger) *Worker {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{queue: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeNotifyAssignee, NotifyAssigneeHandler(notifier))

	return &Worker{server: srv, mux: mux, logger: logger.With().Str("component", "notification_worker").Logger()}
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.logger.Info().Msg("notification worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info().Msg("notification worker stopped")
	return ctx.Err()
}

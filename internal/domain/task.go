package domain

import "time"

type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

// Task surfaces a pending approval to its assignee.
type Task struct {
	CreatedAt     time.Time
	CompletedAt   *time.Time
	Document      DocumentRef
	ID            string
	AssignedTo    string
	ProcessStepID string
	ApprovalID    string
	Status        TaskStatus
}

package handler

import (
	"context"
	"net/http"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	"github.com/iho/procureledger/internal/domain"
)

// TaskService lists open approval tasks.
type TaskService interface {
	ListOpenTasks(ctx context.Context, assignee string, limit, offset int) ([]*domain.Task, error)
}

// TaskHandler handles the acting user's task inbox.
type TaskHandler struct {
	taskUC TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskUC TaskService) *TaskHandler {
	return &TaskHandler{taskUC: taskUC}
}

// ListMine lists the acting user's open tasks. Admins may pass ?assignee= to read another inbox.
func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	assignee := user.ID
	if other := r.URL.Query().Get("assignee"); other != "" && other != user.ID {
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "insufficient permissions", "")
			return
		}
		assignee = other
	}

	limit, offset := pageQuery(r, 50)
	tasks, err := h.taskUC.ListOpenTasks(r.Context(), assignee, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TasksFromDomain(tasks))
}

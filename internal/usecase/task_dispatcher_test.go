package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
	"github.com/iho/procureledger/internal/usecase/mocks"
)

func TestTaskDispatcher_DispatchAndComplete(t *testing.T) {
	h := newHarness(t, "u-requester")
	repo := mocks.NewMockTaskRepository()
	dispatcher := usecase.NewTaskDispatcher(h.deps, repo)
	ctx := context.Background()
	tx := &mocks.MockTransaction{}

	approval := &domain.ApprovalTransaction{
		ID:            "appr-1",
		Document:      poDoc,
		AssignedTo:    "u-head",
		ProcessStepID: "step-po-1",
		StepOrder:     1,
		Status:        domain.ApprovalPending,
	}

	task, err := dispatcher.Dispatch(ctx, tx, approval)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskOpen, task.Status)
	assert.Equal(t, "u-head", task.AssignedTo)
	assert.Equal(t, poDoc, task.Document)
	assert.Equal(t, testNow, task.CreatedAt)
	assert.Equal(t, []string{domain.EventTypeTaskAssigned}, h.outbox.EventTypes())

	open, err := dispatcher.ListOpenTasks(ctx, "u-head", 0, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, task.ID, open[0].ID)

	require.NoError(t, dispatcher.Complete(ctx, tx, "appr-1"))

	open, err = dispatcher.ListOpenTasks(ctx, "u-head", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, open)

	done := repo.All()[0]
	assert.Equal(t, domain.TaskDone, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, testNow, *done.CompletedAt)
}

func TestTaskDispatcher_ListOpenTasks_Pagination(t *testing.T) {
	h := newHarness(t, "u-requester")
	repo := mocks.NewMockTaskRepository(
		&domain.Task{ID: "t-1", AssignedTo: "u-cfo", Status: domain.TaskOpen},
		&domain.Task{ID: "t-2", AssignedTo: "u-cfo", Status: domain.TaskDone},
		&domain.Task{ID: "t-3", AssignedTo: "u-cfo", Status: domain.TaskOpen},
		&domain.Task{ID: "t-4", AssignedTo: "u-head", Status: domain.TaskOpen},
		&domain.Task{ID: "t-5", AssignedTo: "u-cfo", Status: domain.TaskOpen},
	)
	dispatcher := usecase.NewTaskDispatcher(h.deps, repo)

	tests := []struct {
		name    string
		limit   int
		offset  int
		wantIDs []string
	}{
		{name: "default page", wantIDs: []string{"t-1", "t-3", "t-5"}},
		{name: "first page", limit: 2, wantIDs: []string{"t-1", "t-3"}},
		{name: "second page", limit: 2, offset: 2, wantIDs: []string{"t-5"}},
		{name: "negative offset clamps", limit: 1, offset: -4, wantIDs: []string{"t-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := dispatcher.ListOpenTasks(context.Background(), "u-cfo", tt.limit, tt.offset)
			require.NoError(t, err)
			ids := make([]string, 0, len(tasks))
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

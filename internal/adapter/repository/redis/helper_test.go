package redis

import (
	"context"
	"sync/atomic"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/iho/procureledger/internal/domain"
)

// newTestRedisClient starts an in-memory redis and a client pointed at it.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	return client, mr
}

type countingProcessReader struct {
	calls   atomic.Int32
	process *domain.Process
	err     error
	gate    chan struct{}
}

func (r *countingProcessReader) GetByTitle(_ context.Context, _ string) (*domain.Process, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	if r.err != nil {
		return nil, r.err
	}
	p := *r.process
	return &p, nil
}

func purchaseOrderProcess() *domain.Process {
	return &domain.Process{
		ID:    "proc-1",
		Title: "Purchase Order",
		Steps: []domain.ProcessStep{
			{ID: "step-1", ProcessID: "proc-1", DesignationID: "dept-head", Order: 1},
			{ID: "step-2", ProcessID: "proc-1", DesignationID: "cfo", Order: 2},
		},
	}
}

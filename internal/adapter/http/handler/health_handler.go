package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 5 * time.Second

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness answers 200 while the process is serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness probes every dependency in parallel and reports each one. Any
// failure turns the answer into 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks)+1)
		healthy = true
	)
	var g errgroup.Group
	for _, c := range h.checks {
		g.Go(func() error {
			err := c.Check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				healthy = false
				results[c.Name] = err.Error()
				return nil
			}
			results[c.Name] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	results["status"] = "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		results["status"] = "unavailable"
	}
	writeJSON(w, status, results)
}

package infra

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Health runs named dependency checks concurrently
type Health struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealth creates an empty health registry
func NewHealth(timeout time.Duration) *Health {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Health{checks: make(map[string]HealthCheck), timeout: timeout}
}

// Register adds a named check
func (h *Health) Register(name string, check HealthCheck) {
	h.checks[name] = check
}

// Names returns the registered check names, sorted
func (h *Health) Names() []string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes every check and reports "ok" or the error per name. healthy
// is false when any check failed.
func (h *Health) Run(ctx context.Context) (results map[string]string, healthy bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results = make(map[string]string, len(h.checks))
	healthy = true

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := "ok"
			if err := check(ctx); err != nil {
				status = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			results[name] = status
			if status != "ok" {
				healthy = false
			}
		}()
	}
	wg.Wait()
	return results, healthy
}

// Package health provides Kubernetes-style liveness and readiness probes.
// Checks run periodically in the background; the HTTP endpoints only report
// the last observed state and never block on a slow dependency.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc reports the health of one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health tracks liveness and readiness checks for a service.
type Health struct {
	mu        sync.RWMutex
	liveness  []check
	readiness []check
	results   map[string]error
	ready     bool
	cancel    context.CancelFunc
}

// New creates a Health registry. The service starts not ready; call
// SetReady(true) once initialization completes.
func New() *Health {
	return &Health{results: make(map[string]error)}
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check that decides whether the service should
// receive traffic.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// Start runs every registered check once immediately and then at the given
// interval until the context is cancelled or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]check, 0, len(h.liveness)+len(h.readiness))
	checks = append(checks, h.liveness...)
	checks = append(checks, h.readiness...)
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.runAll(ctx, checks)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runAll(ctx, checks)
			}
		}
	}()
}

func (h *Health) runAll(ctx context.Context, checks []check) {
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.fn(checkCtx)
		cancel()

		h.mu.Lock()
		h.results[c.name] = err
		h.mu.Unlock()
	}
}

// Stop cancels the background check loop. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it to
// false before draining so load balancers stop sending new requests.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady reports whether the manual gate is open and every readiness check
// last passed.
func (h *Health) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.ready {
		return false
	}
	for _, c := range h.readiness {
		if h.results[c.name] != nil {
			return false
		}
	}
	return true
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the /livez probe: 200 when every liveness check last
// passed, 503 with per-check messages otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	failures := h.failures(h.liveness)
	h.mu.RUnlock()

	writeStatus(w, failures)
}

// ReadyEndpoint serves the /readyz probe: 200 when the service is marked
// ready and every readiness check last passed.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	failures := h.failures(h.readiness)
	if !h.ready {
		failures["_readiness"] = "service is not ready"
	}
	h.mu.RUnlock()

	writeStatus(w, failures)
}

// failures must be called with mu held.
func (h *Health) failures(checks []check) map[string]string {
	out := make(map[string]string)
	for _, c := range checks {
		if err, ok := h.results[c.name]; ok && err != nil {
			out[c.name] = err.Error()
		}
	}
	return out
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

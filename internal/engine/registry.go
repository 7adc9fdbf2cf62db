package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// RunStatus is a point-in-time view of one registered run.
type RunStatus struct {
	SimID         string    `json:"sim_id"`
	State         string    `json:"state"`
	Speed         float64   `json:"speed"`
	StartedAt     time.Time `json:"started_at"`
	SimulatedTime time.Time `json:"simulated_time"`
}

// Registry owns the run-id to engine mapping. Control calls can arrive
// from a different goroutine than the run loops, so the map is guarded.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Engine)}
}

// Register adds an engine under its run ID and starts it. Registering an
// already-known run ID is an error.
func (r *Registry) Register(e *Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := e.cfg.SimID
	if _, exists := r.runs[id]; exists {
		return fmt.Errorf("run already registered: %s", id)
	}
	r.runs[id] = e
	e.Start()
	return nil
}

// Get returns a registered engine.
func (r *Registry) Get(simID string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.runs[simID]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", simID)
	}
	return e, nil
}

// Pause suspends a registered run.
func (r *Registry) Pause(simID string) error {
	e, err := r.Get(simID)
	if err != nil {
		return err
	}
	e.Pause()
	return nil
}

// Resume restarts a paused run.
func (r *Registry) Resume(simID string) error {
	e, err := r.Get(simID)
	if err != nil {
		return err
	}
	e.Start()
	return nil
}

// Stop ends a run and removes it from the registry.
func (r *Registry) Stop(simID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.runs[simID]
	if !exists {
		return fmt.Errorf("run not found: %s", simID)
	}
	e.Stop()
	delete(r.runs, simID)
	return nil
}

// StopAll ends every registered run.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.runs {
		e.Stop()
		delete(r.runs, id)
	}
}

// Status reports one run's state.
func (r *Registry) Status(simID string) (RunStatus, error) {
	e, err := r.Get(simID)
	if err != nil {
		return RunStatus{}, err
	}
	return statusOf(e), nil
}

// List reports all registered runs sorted by run ID.
func (r *Registry) List() []RunStatus {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.runs))
	for _, e := range r.runs {
		engines = append(engines, e)
	}
	r.mu.Unlock()

	out := make([]RunStatus, 0, len(engines))
	for _, e := range engines {
		out = append(out, statusOf(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SimID < out[j].SimID })
	return out
}

func statusOf(e *Engine) RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RunStatus{
		SimID:         e.cfg.SimID,
		State:         e.state.String(),
		Speed:         e.cfg.Speed,
		StartedAt:     e.simStart,
		SimulatedTime: e.simTime,
	}
}

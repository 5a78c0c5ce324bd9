// Package knowledge defines the hand-off between the agent simulation and a
// knowledge simulation run in lockstep with it. Only plain NPC records cross
// the boundary; neither side sees the other's internals.
package knowledge

import (
	"context"
	"maps"
	"sort"
	"sync"
)

// NPC is the shared record of one agent.
type NPC struct {
	Name          string             `json:"name"`
	Location      string             `json:"location"`
	Destination   string             `json:"destination,omitempty"`
	Motives       map[string]float64 `json:"motives"`
	Knowledge     map[string]float64 `json:"knowledge,omitempty"`
	CurrentAction string             `json:"current_action"`
	ActionCounter int                `json:"action_counter"`
}

// Clone returns a deep copy.
func (n NPC) Clone() NPC {
	n.Motives = maps.Clone(n.Motives)
	n.Knowledge = maps.Clone(n.Knowledge)
	return n
}

// Sim is a knowledge simulation driven by an orchestrator.
type Sim interface {
	// Load hands over the initial NPC set.
	Load(ctx context.Context, npcs []NPC) error
	// Update delivers the latest NPC records after reality has advanced.
	Update(ctx context.Context, npcs []NPC) error
	// Run advances the knowledge simulation by steps.
	Run(ctx context.Context, steps int) error
}

// Recorder is an in-process Sim that accumulates, per NPC, how many steps
// it has spent at each location and in each action.
type Recorder struct {
	mu    sync.Mutex
	npcs  map[string]NPC
	steps int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{npcs: make(map[string]NPC)}
}

func (r *Recorder) Load(_ context.Context, npcs []NPC) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range npcs {
		n = n.Clone()
		if n.Knowledge == nil {
			n.Knowledge = make(map[string]float64)
		}
		r.npcs[n.Name] = n
	}
	return nil
}

func (r *Recorder) Update(ctx context.Context, npcs []NPC) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range npcs {
		if err := ctx.Err(); err != nil {
			return err
		}
		known := r.npcs[n.Name].Knowledge
		n = n.Clone()
		n.Knowledge = known
		if n.Knowledge == nil {
			n.Knowledge = make(map[string]float64)
		}
		r.npcs[n.Name] = n
	}
	return nil
}

func (r *Recorder) Run(_ context.Context, steps int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, n := range r.npcs {
		n.Knowledge["location:"+n.Location] += float64(steps)
		n.Knowledge["action:"+n.CurrentAction] += float64(steps)
		r.npcs[name] = n
	}
	r.steps += steps
	return nil
}

// Steps returns the total steps run.
func (r *Recorder) Steps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps
}

// NPC returns the recorder's copy of one NPC.
func (r *Recorder) NPC(name string) (NPC, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.npcs[name]
	if !ok {
		return NPC{}, false
	}
	return n.Clone(), true
}

// Names returns the known NPC names, sorted.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.npcs))
	for name := range r.npcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Tracker remembers the last logged record of each NPC and reports whether
// a new one differs in its motives or current action.
type Tracker struct {
	mu   sync.Mutex
	last map[string]NPC
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]NPC)}
}

// Changed records n and reports whether it should be logged. The first
// sighting of an NPC only primes the tracker.
func (t *Tracker) Changed(n NPC) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, seen := t.last[n.Name]
	t.last[n.Name] = n.Clone()
	if !seen {
		return false
	}
	if prev.CurrentAction != n.CurrentAction {
		return true
	}
	for k, v := range n.Motives {
		if old, ok := prev.Motives[k]; ok && old != v {
			return true
		}
	}
	return false
}

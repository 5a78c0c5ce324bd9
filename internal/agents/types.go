// Package agents provides the agent data model, the utility planner that
// picks an idle agent's next action, and the travel/execution state machine
// that carries it out tick by tick.
package agents

import (
	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/motive"
	"github.com/talgya/anthology/internal/social"
)

// State is where an agent sits in its travel/execution cycle.
type State uint8

const (
	StateIdle      State = iota // Nothing in progress; queue head (if any) starts next tick
	StateTraveling              // Queue head is the travel action; Occupied counts down to arrival
	StateActing                 // Queue head is in progress; Occupied counts down to execution
)

var stateNames = [...]string{"idle", "traveling", "acting"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Agent is one simulated person.
type Agent struct {
	Name          string                `json:"name"`
	Motives       motive.Vector         `json:"motives"`
	Relationships []social.Relationship `json:"relationships"`

	// Location
	CurrentLocation string          `json:"current_location"`
	Destination     string          `json:"destination,omitempty"` // Set only while traveling
	Errand          *actions.Action `json:"-"`                     // The action a trip is for; nil when not traveling

	// Execution
	State    State             `json:"state"`
	Occupied int               `json:"occupied"` // Ticks until the head action or travel completes
	Queue    []*actions.Action `json:"-"`        // Head is in progress whenever State != StateIdle
	Targets  []string          `json:"targets,omitempty"`

	Memories []Memory `json:"memories,omitempty"`
}

// New creates an idle agent. Motives are copied and clamped.
func New(name, location string, motives motive.Vector, rels []social.Relationship) *Agent {
	v := make(motive.Vector, len(motives))
	for k, val := range motives {
		v.Set(k, val)
	}
	return &Agent{
		Name:            name,
		Motives:         v,
		Relationships:   rels,
		CurrentLocation: location,
	}
}

// Head returns the action at the front of the queue, or nil.
func (a *Agent) Head() *actions.Action {
	if len(a.Queue) == 0 {
		return nil
	}
	return a.Queue[0]
}

// CurrentAction names the queue head, or the wait action when the queue is empty.
func (a *Agent) CurrentAction() string {
	if h := a.Head(); h != nil {
		return h.Name
	}
	return actions.WaitAction
}

// QueueNames returns the queued action names, head first.
func (a *Agent) QueueNames() []string {
	out := make([]string, len(a.Queue))
	for i, act := range a.Queue {
		out[i] = act.Name
	}
	return out
}

// Enqueue adds act to the back of the queue, or to the front when front is
// set. While something is in progress the front slot is taken, so a
// front insert lands directly behind it.
func (a *Agent) Enqueue(act *actions.Action, front bool) {
	if !front {
		a.Queue = append(a.Queue, act)
		return
	}
	at := 0
	if a.State != StateIdle && len(a.Queue) > 0 {
		at = 1
	}
	a.Queue = append(a.Queue, nil)
	copy(a.Queue[at+1:], a.Queue[at:])
	a.Queue[at] = act
}

// pop removes the queue head.
func (a *Agent) pop() *actions.Action {
	if len(a.Queue) == 0 {
		return nil
	}
	h := a.Queue[0]
	a.Queue[0] = nil
	a.Queue = a.Queue[1:]
	return h
}

// drop removes the first queued occurrence of act, if any.
func (a *Agent) drop(act *actions.Action) bool {
	for i, q := range a.Queue {
		if q == act {
			a.Queue = append(a.Queue[:i], a.Queue[i+1:]...)
			return true
		}
	}
	return false
}

// Idle reports whether the agent needs a decision this tick.
func (a *Agent) Idle() bool {
	return a.State == StateIdle && len(a.Queue) == 0
}

// IsContent reports whether every motive is at its maximum.
func (a *Agent) IsContent() bool {
	return a.Motives.Content()
}


package agents

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/anthology/internal/actions"
)

// Outcome enumerates what a state-machine step did.
type Outcome uint8

const (
	OutcomeStarted     Outcome = iota // Head action began at the current location
	OutcomeDeparted                   // Left the current location for a destination
	OutcomeArrived                    // Reached the destination
	OutcomeExecuted                   // Head action completed and was applied
	OutcomeInterrupted                // Head action discarded on request
)

var outcomeNames = [...]string{"started", "departed", "arrived", "executed", "interrupted"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Report describes one transition, for the event log.
type Report struct {
	Agent    string
	Outcome  Outcome
	Action   string
	Location string
	Targets  []string
}

func (r Report) String() string {
	switch r.Outcome {
	case OutcomeDeparted:
		return fmt.Sprintf("%s sets out for %s to %s", r.Agent, r.Location, r.Action)
	case OutcomeArrived:
		return fmt.Sprintf("%s arrives at %s", r.Agent, r.Location)
	case OutcomeInterrupted:
		return fmt.Sprintf("%s is interrupted during %s", r.Agent, r.Action)
	}
	return fmt.Sprintf("%s %s %s at %s", r.Agent, r.Outcome, r.Action, r.Location)
}

// Begin commits an idle agent to the planner's choice. A remote destination
// queues travel ahead of the action and removes the agent from its current
// location; otherwise the action starts in place.
func Begin(a *Agent, c Choice, env Env) ([]Report, error) {
	if c.Action == nil {
		return nil, fmt.Errorf("agent %q: empty choice", a.Name)
	}
	if c.Destination == "" || c.Destination == a.CurrentLocation {
		a.Queue = append(a.Queue, c.Action)
		return []Report{start(a, env)}, nil
	}

	if err := env.Graph.RemovePresence(a.CurrentLocation, a.Name); err != nil {
		return nil, fmt.Errorf("agent %q departs: %w", a.Name, err)
	}
	a.Queue = append(a.Queue, env.Catalog.Travel(), c.Action)
	a.Destination = c.Destination
	a.Errand = c.Action
	a.Occupied = int(math.Ceil(c.Distance))
	a.State = StateTraveling
	a.Targets = nil
	return []Report{{Agent: a.Name, Outcome: OutcomeDeparted, Action: c.Action.Name, Location: c.Destination}}, nil
}

// Step advances an agent that is not awaiting a decision by one tick.
func Step(a *Agent, env Env) ([]Report, error) {
	switch a.State {
	case StateIdle:
		if len(a.Queue) == 0 {
			return nil, nil
		}
		return []Report{start(a, env)}, nil

	case StateTraveling:
		if a.Occupied > 0 {
			a.Occupied--
		}
		if a.Occupied > 0 {
			return nil, nil
		}
		return arrive(a, env)

	case StateActing:
		if a.Occupied > 0 {
			a.Occupied--
		}
		if a.Occupied > 0 {
			return nil, nil
		}
		r, err := execute(a, env)
		if err != nil {
			return nil, err
		}
		return []Report{r}, nil
	}
	return nil, fmt.Errorf("agent %q: unknown state %d", a.Name, a.State)
}

// start begins the queue head at the current location. Schedule actions
// snapshot everyone else present as interaction targets.
func start(a *Agent, env Env) Report {
	head := a.Head()
	a.State = StateActing
	a.Occupied = head.MinTime
	a.Targets = nil
	if head.IsSchedule() {
		occ, err := env.Graph.Occupants(a.CurrentLocation)
		if err != nil {
			slog.Warn("schedule action without a location", "agent", a.Name, "error", err)
		}
		for _, name := range occ {
			if name != a.Name {
				a.Targets = append(a.Targets, name)
			}
		}
	}
	return Report{Agent: a.Name, Outcome: OutcomeStarted, Action: head.Name, Location: a.CurrentLocation, Targets: a.Targets}
}

func arrive(a *Agent, env Env) ([]Report, error) {
	if err := env.Graph.AddPresence(a.Destination, a.Name); err != nil {
		return nil, fmt.Errorf("agent %q arrives: %w", a.Name, err)
	}
	a.CurrentLocation = a.Destination
	a.Destination = ""
	a.Errand = nil
	if h := a.Head(); h != nil && h.Name == actions.TravelAction {
		a.pop()
	}

	reports := []Report{{Agent: a.Name, Outcome: OutcomeArrived, Location: a.CurrentLocation}}
	if len(a.Queue) == 0 {
		a.State = StateIdle
		a.Occupied = 0
		return reports, nil
	}
	return append(reports, start(a, env)), nil
}

// execute pops and applies the head action and returns the agent to idle.
// Anything it enqueues starts on a later tick.
func execute(a *Agent, env Env) (Report, error) {
	act := a.pop()
	targets := a.Targets
	a.State = StateIdle
	a.Occupied = 0
	a.Targets = nil

	r := Report{Agent: a.Name, Outcome: OutcomeExecuted, Action: act.Name, Location: a.CurrentLocation, Targets: targets}
	if !act.IsSchedule() {
		a.Motives.Apply(act.Effects)
		return r, nil
	}

	inst, err := env.Catalog.Get(act.InstigatorAction)
	if err != nil {
		return r, fmt.Errorf("agent %q executes %q: %w", a.Name, act.Name, err)
	}
	a.Enqueue(inst, act.Interrupt)

	if act.TargetAction == "" {
		return r, nil
	}
	tgt, err := env.Catalog.Get(act.TargetAction)
	if err != nil {
		return r, fmt.Errorf("agent %q executes %q: %w", a.Name, act.Name, err)
	}
	for _, name := range targets {
		other, ok := env.Roster.Agent(name)
		if !ok {
			slog.Warn("interaction target vanished", "agent", a.Name, "target", name)
			continue
		}
		other.Enqueue(tgt, act.Interrupt)
	}
	return r, nil
}

// Interrupt discards the agent's head action without applying it, clears
// its counter and destination, and leaves it idle at its current location.
// A trip is abandoned together with the action it was for, since that
// action was chosen for the destination. It reports false when there was
// nothing to interrupt.
func Interrupt(a *Agent, env Env) (Report, bool, error) {
	if a.Idle() {
		return Report{}, false, nil
	}
	if a.State == StateTraveling {
		if err := env.Graph.AddPresence(a.CurrentLocation, a.Name); err != nil {
			return Report{}, false, fmt.Errorf("agent %q returns: %w", a.Name, err)
		}
	}
	act := a.pop()
	if a.Errand != nil {
		a.drop(a.Errand)
		act = a.Errand
	}
	a.State = StateIdle
	a.Occupied = 0
	a.Destination = ""
	a.Errand = nil
	a.Targets = nil
	return Report{Agent: a.Name, Outcome: OutcomeInterrupted, Action: act.Name, Location: a.CurrentLocation}, true, nil
}

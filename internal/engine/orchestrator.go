package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/anthology/internal/knowledge"
)

// History receives NPC records whose motives or current action changed.
type History interface {
	RecordNPC(ctx context.Context, tick uint64, npc knowledge.NPC) error
}

// Orchestrator runs the agent simulation and an optional knowledge
// simulation in lockstep, logging changed NPCs to an optional history.
type Orchestrator struct {
	Sim       *Simulation
	Knowledge knowledge.Sim // nil runs reality alone
	History   History       // nil skips NPC logging

	tracker *knowledge.Tracker
	loaded  bool
}

// NewOrchestrator wires the collaborators together.
func NewOrchestrator(sim *Simulation, ks knowledge.Sim, h History) *Orchestrator {
	return &Orchestrator{Sim: sim, Knowledge: ks, History: h, tracker: knowledge.NewTracker()}
}

// NPCs converts every agent into the shared NPC record.
func (s *Simulation) NPCs() []knowledge.NPC {
	snaps := s.AgentSnapshots()
	out := make([]knowledge.NPC, 0, len(snaps))
	for _, a := range snaps {
		out = append(out, knowledge.NPC{
			Name:          a.Name,
			Location:      a.CurrentLocation,
			Destination:   a.Destination,
			Motives:       a.Motives,
			CurrentAction: a.CurrentAction,
			ActionCounter: a.Occupied,
		})
	}
	return out
}

// Init hands the starting NPCs to the knowledge simulation and primes the
// change tracker.
func (o *Orchestrator) Init(ctx context.Context) error {
	npcs := o.Sim.NPCs()
	for _, n := range npcs {
		o.tracker.Changed(n)
	}
	if o.Knowledge != nil {
		if err := o.Knowledge.Load(ctx, npcs); err != nil {
			return fmt.Errorf("knowledge load: %w", err)
		}
	}
	o.loaded = true
	return nil
}

// Iterate advances reality by up to steps ticks, then passes the resulting
// NPCs to the knowledge simulation and runs it for the same number of steps.
// It returns the ticks reality actually ran.
func (o *Orchestrator) Iterate(ctx context.Context, steps int) (int, error) {
	if !o.loaded {
		if err := o.Init(ctx); err != nil {
			return 0, err
		}
	}

	ran, err := o.Sim.Advance(ctx, steps)
	if err != nil {
		return ran, err
	}
	return ran, o.Observe(ctx, ran)
}

// Observe logs changed NPCs and steps the knowledge simulation after reality
// ran the given number of ticks by other means, such as Engine.Run.
func (o *Orchestrator) Observe(ctx context.Context, ran int) error {
	if ran == 0 {
		return nil
	}
	if !o.loaded {
		return fmt.Errorf("orchestrator: Observe before Init")
	}

	npcs := o.Sim.NPCs()
	tick := o.Sim.CurrentTick()
	if o.History != nil {
		logged := 0
		for _, n := range npcs {
			if !o.tracker.Changed(n) {
				continue
			}
			if err := o.History.RecordNPC(ctx, tick, n); err != nil {
				return fmt.Errorf("record npc %q: %w", n.Name, err)
			}
			logged++
		}
		slog.Debug("npc changes logged", "tick", tick, "count", logged)
	}

	if o.Knowledge != nil {
		if err := o.Knowledge.Update(ctx, npcs); err != nil {
			return fmt.Errorf("knowledge update: %w", err)
		}
		if err := o.Knowledge.Run(ctx, ran); err != nil {
			return fmt.Errorf("knowledge run: %w", err)
		}
	}
	return nil
}

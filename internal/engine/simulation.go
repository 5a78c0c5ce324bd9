// Simulation ties the action catalog, the location graph and the agents
// together and advances them one tick at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/agents"
	"github.com/talgya/anthology/internal/entropy"
	"github.com/talgya/anthology/internal/social"
	"github.com/talgya/anthology/internal/world"
)

var (
	ErrAgentNotFound  = errors.New("agent not found")
	ErrDuplicateAgent = errors.New("duplicate agent")
)

// Config tunes a Simulation.
type Config struct {
	Seed          int64   // 0 picks a random seed
	DecayInterval uint64  // Ticks between motive decay passes; 0 disables decay
	DecayAmount   float64 // Subtracted from every motive of every non-content agent
	Workers       int     // Parallel decisions per tick; <= 0 uses GOMAXPROCS
	MaxEvents     int     // Event log cap
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		DecayInterval: 1200,
		DecayAmount:   1,
		MaxEvents:     1000,
	}
}

// Simulation holds the complete world state.
type Simulation struct {
	Catalog    *actions.Catalog
	Graph      *world.Graph
	Agents     []*agents.Agent // Fixed order; decisions and steps follow it
	AgentIndex map[string]*agents.Agent
	Events     []Event
	Time       uint64 // Ticks processed so far
	Seed       int64
	Stats      SimStats

	cfg     Config
	rng     *entropy.Locked
	paused  atomic.Bool
	lastSeq uint64 // Seq of the latest emitted event

	// mu serializes ticks against interrupts, location additions and
	// distance rebuilds.
	mu sync.Mutex
}

// Event is a notable occurrence in the world.
type Event struct {
	Seq         uint64 `json:"seq"` // 1-based emission order over the whole run
	Tick        uint64 `json:"tick"`
	Agent       string `json:"agent,omitempty"`
	Description string `json:"description"`
	Category    string `json:"category"` // "action", "travel", "interrupt", "deadlock", "error"
}

// SimStats counts what happened over the run.
type SimStats struct {
	Decisions   int `json:"decisions"`
	Executed    int `json:"executed"`
	Arrivals    int `json:"arrivals"`
	Deadlocks   int `json:"deadlocks"`
	Interrupts  int `json:"interrupts"`
	AgentErrors int `json:"agent_errors"`
	Content     int `json:"content"` // Agents content after the latest tick
}

// NewSimulation validates the initial state and marks every agent present
// at its starting location. A stale graph has its distances rebuilt.
func NewSimulation(cat *actions.Catalog, g *world.Graph, ag []*agents.Agent, cfg Config) (*Simulation, error) {
	if cat == nil || g == nil {
		return nil, fmt.Errorf("new simulation: catalog and graph are required")
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultConfig().MaxEvents
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	seed := entropy.SeedOrRandom(cfg.Seed)

	index := make(map[string]*agents.Agent, len(ag))
	for _, a := range ag {
		if _, ok := index[a.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAgent, a.Name)
		}
		index[a.Name] = a
	}
	for _, a := range ag {
		if _, err := g.Location(a.CurrentLocation); err != nil {
			return nil, fmt.Errorf("agent %q: %w", a.Name, err)
		}
		if a.State != agents.StateTraveling {
			if err := g.AddPresence(a.CurrentLocation, a.Name); err != nil {
				return nil, fmt.Errorf("agent %q: %w", a.Name, err)
			}
		}
		if a.Destination != "" {
			if _, err := g.Location(a.Destination); err != nil {
				return nil, fmt.Errorf("agent %q destination: %w", a.Name, err)
			}
		}
	}
	if g.Stale() {
		if err := g.RecomputeDistances(); err != nil {
			return nil, fmt.Errorf("new simulation: %w", err)
		}
	}

	s := &Simulation{
		Catalog:    cat,
		Graph:      g,
		Agents:     ag,
		AgentIndex: index,
		Seed:       seed,
		cfg:        cfg,
		rng:        entropy.NewLocked(seed),
	}
	s.updateStats()
	slog.Info("simulation ready",
		"agents", len(ag),
		"locations", g.Len(),
		"actions", cat.Len(),
		"seed", seed,
	)
	return s, nil
}

// Agent implements agents.Roster.
func (s *Simulation) Agent(name string) (*agents.Agent, bool) {
	a, ok := s.AgentIndex[name]
	return a, ok
}

// RelationshipsOf implements social.Directory.
func (s *Simulation) RelationshipsOf(name string) []social.Relationship {
	if a, ok := s.AgentIndex[name]; ok {
		return a.Relationships
	}
	return nil
}

func (s *Simulation) env() agents.Env {
	return agents.Env{Catalog: s.Catalog, Graph: s.Graph, Roster: s}
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Time
}

// Pause stops ShouldContinue from reporting true until Resume.
func (s *Simulation) Pause() { s.paused.Store(true) }

// Resume clears a Pause.
func (s *Simulation) Resume() { s.paused.Store(false) }

// Paused reports the pause flag.
func (s *Simulation) Paused() bool { return s.paused.Load() }

// ShouldContinue is false once every agent is content or the run is paused.
func (s *Simulation) ShouldContinue() bool {
	if s.paused.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.allContent()
}

func (s *Simulation) allContent() bool {
	for _, a := range s.Agents {
		if !a.IsContent() {
			return false
		}
	}
	return true
}

type decision struct {
	agent  *agents.Agent
	choice agents.Choice
	waited bool
	err    error
}

// Tick advances the world by one tick.
//
// Idle agents decide in parallel against the occupancy left by the previous
// tick; nothing shared is written during that phase. Decisions are then
// committed and every other agent is stepped, serially and in agent order.
// A failure in one agent is logged and recorded without affecting others.
func (s *Simulation) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Graph.Stale() {
		return fmt.Errorf("tick %d: %w", s.Time+1, world.ErrStaleDistances)
	}
	env := s.env()

	var decisions []*decision
	decided := make(map[*agents.Agent]bool)
	for _, a := range s.Agents {
		if a.Idle() {
			decisions = append(decisions, &decision{agent: a})
			decided[a] = true
		}
	}
	// Seeds are drawn serially so a run replays regardless of scheduling.
	seeds := make([]int64, len(decisions))
	for i := range seeds {
		seeds[i] = s.rng.Int63()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, d := range decisions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d.choice, d.waited, d.err = agents.DecideOrWait(d.agent, env, entropy.NewSeeded(seeds[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("tick %d decisions: %w", s.Time+1, err)
	}

	s.Time++
	tick := s.Time

	for _, d := range decisions {
		if d.err != nil {
			s.agentFailed(tick, d.agent, "decide", d.err)
			continue
		}
		s.Stats.Decisions++
		if d.waited {
			s.Stats.Deadlocks++
			s.emit(tick, d.agent.Name, "deadlock", d.agent.Name+" finds nothing to do and waits")
		}
		reports, err := agents.Begin(d.agent, d.choice, env)
		if err != nil {
			s.agentFailed(tick, d.agent, "begin", err)
			continue
		}
		s.record(tick, reports)
	}

	for _, a := range s.Agents {
		if decided[a] {
			continue
		}
		reports, err := agents.Step(a, env)
		if err != nil {
			s.agentFailed(tick, a, "step", err)
			continue
		}
		s.record(tick, reports)
	}

	if s.cfg.DecayInterval > 0 && tick%s.cfg.DecayInterval == 0 {
		s.decay(tick)
	}
	s.updateStats()
	s.trimEvents()
	return nil
}

// Advance runs up to n ticks, stopping early when ShouldContinue turns
// false. It returns the number of ticks run.
func (s *Simulation) Advance(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		if !s.ShouldContinue() {
			return i, nil
		}
		if err := s.Tick(ctx); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Interrupt discards the named agent's current action without applying it.
// It reports false when the agent had nothing in progress.
func (s *Simulation) Interrupt(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.AgentIndex[name]
	if !ok {
		return false, fmt.Errorf("interrupt: %w: %q", ErrAgentNotFound, name)
	}
	r, ok, err := agents.Interrupt(a, s.env())
	if err != nil || !ok {
		return false, err
	}
	s.Stats.Interrupts++
	s.record(s.Time, []agents.Report{r})
	slog.Info("agent interrupted", "agent", name, "action", r.Action, "tick", s.Time)
	return true, nil
}

// AddLocation registers a location after start-up, marks any agent already
// standing there as present and rebuilds the distance matrix.
func (s *Simulation) AddLocation(node *world.LocationNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Graph.AddLocation(node); err != nil {
		return err
	}
	for _, a := range s.Agents {
		if a.CurrentLocation == node.Name && a.State != agents.StateTraveling {
			if err := s.Graph.AddPresence(node.Name, a.Name); err != nil {
				return err
			}
		}
	}
	return s.recompute()
}

// RecomputeDistances rebuilds the distance matrix with the world frozen.
func (s *Simulation) RecomputeDistances() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recompute()
}

func (s *Simulation) recompute() error {
	if err := s.Graph.RecomputeDistances(); err != nil {
		return fmt.Errorf("recompute distances: %w", err)
	}
	slog.Debug("distance matrix rebuilt", "locations", s.Graph.Len())
	return nil
}

func (s *Simulation) decay(tick uint64) {
	n := 0
	for _, a := range s.Agents {
		if !a.IsContent() {
			a.Motives.Decay(s.cfg.DecayAmount)
			n++
		}
	}
	slog.Debug("motives decayed", "tick", tick, "agents", n, "amount", s.cfg.DecayAmount)
}

func (s *Simulation) record(tick uint64, reports []agents.Report) {
	for _, r := range reports {
		category := "action"
		switch r.Outcome {
		case agents.OutcomeDeparted:
			category = "travel"
		case agents.OutcomeArrived:
			category = "travel"
			s.Stats.Arrivals++
		case agents.OutcomeExecuted:
			s.Stats.Executed++
			if a, ok := s.AgentIndex[r.Agent]; ok {
				agents.Remember(a, tick, r.Action, r.Location)
			}
		case agents.OutcomeInterrupted:
			category = "interrupt"
		}
		s.emit(tick, r.Agent, category, r.String())
	}
}

func (s *Simulation) agentFailed(tick uint64, a *agents.Agent, phase string, err error) {
	s.Stats.AgentErrors++
	slog.Warn("agent turn failed", "tick", tick, "agent", a.Name, "phase", phase, "error", err)
	s.emit(tick, a.Name, "error", fmt.Sprintf("%s: %s failed: %v", a.Name, phase, err))
}

func (s *Simulation) emit(tick uint64, agent, category, desc string) {
	s.lastSeq++
	s.Events = append(s.Events, Event{Seq: s.lastSeq, Tick: tick, Agent: agent, Description: desc, Category: category})
}

// trimEvents keeps the most recent MaxEvents entries.
func (s *Simulation) trimEvents() {
	if over := len(s.Events) - s.cfg.MaxEvents; over > 0 {
		s.Events = append(s.Events[:0], s.Events[over:]...)
	}
}

func (s *Simulation) updateStats() {
	content := 0
	for _, a := range s.Agents {
		if a.IsContent() {
			content++
		}
	}
	s.Stats.Content = content
}

// RecentEvents returns up to n of the latest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.Events) {
		n = len(s.Events)
	}
	if n < 0 {
		n = 0
	}
	out := make([]Event, n)
	copy(out, s.Events[len(s.Events)-n:])
	return out
}

// EventsAfter returns the retained events emitted after seq, oldest first.
// EventsAfter(0) returns everything still retained.
func (s *Simulation) EventsAfter(seq uint64) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.Events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

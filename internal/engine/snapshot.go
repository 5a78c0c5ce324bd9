package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/anthology/internal/agents"
	"github.com/talgya/anthology/internal/social"
	"github.com/talgya/anthology/internal/world"
)

// recentMemories is how many memories an AgentSnapshot carries.
const recentMemories = 5

// AgentSnapshot is the read-only view of an agent handed to presentation
// and history layers.
type AgentSnapshot struct {
	Name            string                `json:"name"`
	Motives         map[string]float64    `json:"motives"`
	CurrentLocation string                `json:"current_location"`
	CurrentAction   string                `json:"current_action"`
	Queue           []string              `json:"queue,omitempty"`
	Destination     string                `json:"destination,omitempty"`
	Occupied        int                   `json:"occupied"`
	State           string                `json:"state"`
	Targets         []string              `json:"targets,omitempty"`
	Relationships   []social.Relationship `json:"relationships,omitempty"`
	Recent          []agents.Memory       `json:"recent,omitempty"` // Latest completed actions, newest first
}

// LocationSnapshot is the read-only view of a location.
type LocationSnapshot struct {
	Name        string             `json:"name"`
	Position    *world.Position    `json:"position,omitempty"`
	Tags        []string           `json:"tags"`
	Connections map[string]float64 `json:"connections"`
	Occupants   []string           `json:"occupants,omitempty"`
}

// Snapshot is the whole world at one tick.
type Snapshot struct {
	Tick      uint64             `json:"tick"`
	Seed      int64              `json:"seed"`
	Agents    []AgentSnapshot    `json:"agents"`
	Locations []LocationSnapshot `json:"locations"`
	Stats     SimStats           `json:"stats"`
}

// AgentSnapshots returns every agent in simulation order.
func (s *Simulation) AgentSnapshots() []AgentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentSnapshots()
}

func (s *Simulation) agentSnapshots() []AgentSnapshot {
	out := make([]AgentSnapshot, 0, len(s.Agents))
	for _, a := range s.Agents {
		out = append(out, agentSnapshot(a))
	}
	return out
}

func agentSnapshot(a *agents.Agent) AgentSnapshot {
	rels := make([]social.Relationship, len(a.Relationships))
	copy(rels, a.Relationships)
	return AgentSnapshot{
		Name:            a.Name,
		Motives:         a.Motives.Clone(),
		CurrentLocation: a.CurrentLocation,
		CurrentAction:   a.CurrentAction(),
		Queue:           a.QueueNames(),
		Destination:     a.Destination,
		Occupied:        a.Occupied,
		State:           a.State.String(),
		Targets:         append([]string(nil), a.Targets...),
		Relationships:   rels,
		Recent:          agents.RecentMemories(a, recentMemories),
	}
}

// LocationSnapshots returns every location in ID order.
func (s *Simulation) LocationSnapshots() []LocationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locationSnapshots()
}

func (s *Simulation) locationSnapshots() []LocationSnapshot {
	nodes := s.Graph.Locations()
	out := make([]LocationSnapshot, 0, len(nodes))
	for _, n := range nodes {
		conns := make(map[string]float64, len(n.Connections))
		for k, v := range n.Connections {
			conns[k] = v
		}
		occ, _ := s.Graph.Occupants(n.Name)
		out = append(out, LocationSnapshot{
			Name:        n.Name,
			Position:    n.Position,
			Tags:        n.TagList(),
			Connections: conns,
			Occupants:   occ,
		})
	}
	return out
}

// Snapshot captures agents, locations and counters together.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Tick:      s.Time,
		Seed:      s.Seed,
		Agents:    s.agentSnapshots(),
		Locations: s.locationSnapshots(),
		Stats:     s.Stats,
	}
}

// AgentSnapshot returns one agent's view.
func (s *Simulation) AgentSnapshot(name string) (AgentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.AgentIndex[name]
	if !ok {
		return AgentSnapshot{}, fmt.Errorf("%w: %q", ErrAgentNotFound, name)
	}
	return agentSnapshot(a), nil
}

// ActionTotals tallies the remembered actions of every agent by name.
func (s *Simulation) ActionTotals() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[string]int)
	for _, a := range s.Agents {
		for name, n := range agents.ActionCounts(a) {
			totals[name] += n
		}
	}
	return totals
}

// MotiveAverages returns the mean of each motive across all agents.
func (s *Simulation) MotiveAverages() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sums := make(map[string]float64)
	for _, a := range s.Agents {
		for k, v := range a.Motives {
			sums[k] += v
		}
	}
	if len(s.Agents) == 0 {
		return sums
	}
	for k := range sums {
		sums[k] /= float64(len(s.Agents))
	}
	return sums
}

// Crowded returns location names ordered by occupant count, busiest first.
func (s *Simulation) Crowded(n int) []string {
	locs := s.LocationSnapshots()
	sort.SliceStable(locs, func(i, j int) bool {
		return len(locs[i].Occupants) > len(locs[j].Occupants)
	})
	if n > len(locs) {
		n = len(locs)
	}
	out := make([]string, 0, n)
	for _, l := range locs[:n] {
		out = append(out, l.Name)
	}
	return out
}

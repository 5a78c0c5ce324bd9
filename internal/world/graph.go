package world

import (
	"errors"
	"fmt"
	"sync"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/social"
)

var (
	ErrLocationNotFound   = errors.New("location not found")
	ErrDuplicateLocation  = errors.New("duplicate location")
	ErrDuplicatePosition  = errors.New("duplicate location position")
	ErrStaleDistances     = errors.New("distance matrix is stale; call RecomputeDistances")
	ErrUnreachable        = errors.New("no reachable candidate location")
	ErrNoCandidates       = errors.New("empty candidate set")
	errUnknownConnection  = errors.New("connection to unknown location")
	errNegativeEdgeWeight = errors.New("negative edge weight")
)

// Graph holds every location plus the indices built over them.
// Occupancy and the distance matrix are guarded by mu; names, tags and
// connections are fixed once a node is added.
type Graph struct {
	mu sync.RWMutex

	nodes      []*LocationNode // By ID
	byName     map[string]*LocationNode
	byPosition map[Position]*LocationNode
	byTag      map[string][]*LocationNode

	dist  []float64 // len(nodes)² row-major, valid when !stale
	stale bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byName:     make(map[string]*LocationNode),
		byPosition: make(map[Position]*LocationNode),
		byTag:      make(map[string][]*LocationNode),
	}
}

// AddLocation registers node under its name, position and every tag and
// assigns its matrix index. Occupants already listed on the node are kept.
// The distance matrix is stale until RecomputeDistances runs.
func (g *Graph) AddLocation(node *LocationNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if node == nil || node.Name == "" {
		return fmt.Errorf("add location: empty name")
	}
	if _, ok := g.byName[node.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLocation, node.Name)
	}
	if node.Position != nil {
		if other, ok := g.byPosition[*node.Position]; ok {
			return fmt.Errorf("%w: %q and %q at %s", ErrDuplicatePosition, other.Name, node.Name, node.Position)
		}
	}
	for to, w := range node.Connections {
		if w < 0 {
			return fmt.Errorf("location %q → %q: %w", node.Name, to, errNegativeEdgeWeight)
		}
	}
	if node.present == nil {
		node.present = make(Set)
	}
	if node.Tags == nil {
		node.Tags = make(Set)
	}

	node.ID = len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.byName[node.Name] = node
	if node.Position != nil {
		g.byPosition[*node.Position] = node
	}
	for tag := range node.Tags {
		g.byTag[tag] = append(g.byTag[tag], node)
	}
	g.stale = true
	return nil
}

// Len returns the number of locations.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Location looks a node up by name.
func (g *Graph) Location(name string) (*LocationNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.location(name)
}

func (g *Graph) location(name string) (*LocationNode, error) {
	n, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return n, nil
}

// LocationAt returns the node registered at pos.
func (g *Graph) LocationAt(pos Position) (*LocationNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.byPosition[pos]
	return n, ok
}

// Locations returns every node in ID order.
func (g *Graph) Locations() []*LocationNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*LocationNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// LocationsWithTag returns the nodes carrying tag, in ID order.
func (g *Graph) LocationsWithTag(tag string) []*LocationNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*LocationNode, len(g.byTag[tag]))
	copy(out, g.byTag[tag])
	return out
}

// Stale reports whether nodes were added since the last recompute.
func (g *Graph) Stale() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stale
}

// AddPresence marks agent as present at location.
func (g *Graph) AddPresence(location, agent string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.location(location)
	if err != nil {
		return err
	}
	n.present[agent] = struct{}{}
	return nil
}

// RemovePresence clears agent from location.
func (g *Graph) RemovePresence(location, agent string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.location(location)
	if err != nil {
		return err
	}
	delete(n.present, agent)
	return nil
}

// Occupants returns the agents present at location, sorted.
func (g *Graph) Occupants(location string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, err := g.location(location)
	if err != nil {
		return nil, err
	}
	return n.Occupants(), nil
}

// LocationsSatisfyingTagRequirement returns the nodes meeting req, in ID order.
// It starts from the union of the HasOneOrMoreOf buckets (every node when
// that list is empty), intersects each HasAllOf bucket and removes each
// HasNoneOf bucket.
func (g *Graph) LocationsSatisfyingTagRequirement(req actions.LocationRequirement) []*LocationNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keep := make(map[int]bool, len(g.nodes))
	if len(req.HasOneOrMoreOf) == 0 {
		for _, n := range g.nodes {
			keep[n.ID] = true
		}
	} else {
		for _, tag := range req.HasOneOrMoreOf {
			for _, n := range g.byTag[tag] {
				keep[n.ID] = true
			}
		}
	}

	for _, tag := range req.HasAllOf {
		bucket := make(map[int]bool, len(g.byTag[tag]))
		for _, n := range g.byTag[tag] {
			bucket[n.ID] = true
		}
		for id := range keep {
			if !bucket[id] {
				delete(keep, id)
			}
		}
	}

	for _, tag := range req.HasNoneOf {
		for _, n := range g.byTag[tag] {
			delete(keep, n.ID)
		}
	}

	out := make([]*LocationNode, 0, len(keep))
	for _, n := range g.nodes {
		if keep[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// LocationsSatisfyingPeopleRequirement filters candidates by req. A non-empty
// probe is treated as present at every candidate it is not already at.
func (g *Graph) LocationsSatisfyingPeopleRequirement(candidates []*LocationNode, req actions.PeopleRequirement, dir social.Directory, probe string) []*LocationNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*LocationNode, 0, len(candidates))
	for _, n := range candidates {
		if n.SatisfiesPeople(req, dir, probe) {
			out = append(out, n)
		}
	}
	return out
}

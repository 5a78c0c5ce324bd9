package world

import (
	"fmt"
	"math"
)

// Unreachable is the distance between nodes with no connecting path.
var Unreachable = math.Inf(1)

// RecomputeDistances rebuilds the all-pairs shortest-path matrix with
// Floyd–Warshall. It must run after every AddLocation before distances are
// queried, and it holds the graph's write lock for the whole O(N³) pass.
func (g *Graph) RecomputeDistances() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.nodes)
	dist := make([]float64, n*n)
	for i := range dist {
		dist[i] = Unreachable
	}
	for i := 0; i < n; i++ {
		dist[i*n+i] = 0
	}

	for _, from := range g.nodes {
		for name, w := range from.Connections {
			to, ok := g.byName[name]
			if !ok {
				return fmt.Errorf("location %q: %w: %q", from.Name, errUnknownConnection, name)
			}
			if from.ID != to.ID && w < dist[from.ID*n+to.ID] {
				dist[from.ID*n+to.ID] = w
			}
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			ik := dist[i*n+k]
			if math.IsInf(ik, 1) {
				continue
			}
			for j := 0; j < n; j++ {
				if d := ik + dist[k*n+j]; d < dist[i*n+j] {
					dist[i*n+j] = d
				}
			}
		}
	}

	g.dist = dist
	g.stale = false
	return nil
}

// Distance returns the shortest-path length from one location to another.
func (g *Graph) Distance(from, to string) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	a, err := g.location(from)
	if err != nil {
		return 0, err
	}
	b, err := g.location(to)
	if err != nil {
		return 0, err
	}
	if g.stale {
		return 0, ErrStaleDistances
	}
	return g.dist[a.ID*len(g.nodes)+b.ID], nil
}

// Intn is the slice of a random source used for tie-breaking.
type Intn interface {
	Intn(n int) int
}

// NearestLocationFrom returns the candidate with the shortest distance from
// origin, and that distance. Unreachable candidates are skipped. Equal
// minima are broken uniformly at random using rng, over candidates in the
// order given; a nil rng takes the first.
func (g *Graph) NearestLocationFrom(origin string, candidates []*LocationNode, rng Intn) (*LocationNode, float64, error) {
	if len(candidates) == 0 {
		return nil, 0, ErrNoCandidates
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	from, err := g.location(origin)
	if err != nil {
		return nil, 0, err
	}
	if g.stale {
		return nil, 0, ErrStaleDistances
	}

	n := len(g.nodes)
	best := Unreachable
	var ties []*LocationNode
	for _, c := range candidates {
		d := g.dist[from.ID*n+c.ID]
		switch {
		case d < best:
			best = d
			ties = append(ties[:0], c)
		case d == best && !math.IsInf(d, 1):
			ties = append(ties, c)
		}
	}
	if len(ties) == 0 {
		return nil, 0, fmt.Errorf("from %q: %w", origin, ErrUnreachable)
	}
	if rng == nil || len(ties) == 1 {
		return ties[0], best, nil
	}
	return ties[rng.Intn(len(ties))], best, nil
}

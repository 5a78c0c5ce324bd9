// Location graph generation for stress runs and property tests.
// Layout follows a ring with one extra chord per node; edge weights and the
// outdoor tag are sampled from layered simplex noise so that nearby indices
// get correlated distances.
package world

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds location generation parameters.
type GenConfig struct {
	Locations int     // Node count, at least MinGenerated
	Seed      int64   // Random seed (0 = random)
	MaxWeight float64 // Upper bound on edge weights
	Outdoor   float64 // Noise threshold above which a node is tagged "outdoor"
}

// MinGenerated is the smallest graph GenerateLocations builds.
const MinGenerated = 5

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Locations: 20,
		Seed:      0,
		MaxWeight: 100,
		Outdoor:   0.55,
	}
}

// SmallTestConfig returns a tiny graph for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Locations: 6,
		Seed:      42,
		MaxWeight: 10,
		Outdoor:   0.55,
	}
}

// GenerateLocations builds nodes l_0 … l_{n-1}. Node i is connected to its
// ring neighbours and to one other random node, and carries tags t_(i%3)
// and t_(i%7+3). Positions lie on the diagonal (i, i).
func GenerateLocations(cfg GenConfig) ([]*LocationNode, error) {
	n := cfg.Locations
	if n < MinGenerated {
		return nil, fmt.Errorf("generate locations: need at least %d, got %d", MinGenerated, n)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	maxWeight := cfg.MaxWeight
	if maxWeight < 1 {
		maxWeight = 1
	}

	rng := rand.New(rand.NewSource(seed))
	weightNoise := opensimplex.NewNormalized(seed)
	tagNoise := opensimplex.NewNormalized(seed + 1)

	nodes := make([]*LocationNode, 0, n)
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		next := (i + 1) % n
		chord := rng.Intn(n)
		if chord == i {
			chord = (chord + 1) % n
		}
		if chord == prev {
			chord = (prev - 1 + n) % n
		} else if chord == next {
			chord = (next + 1) % n
		}

		conns := make(map[string]float64, 3)
		for _, j := range []int{prev, next, chord} {
			if j == i {
				continue
			}
			w := octaveNoise(weightNoise, float64(i), float64(j), 3, 0.15, 0.5)
			conns[nodeName(j)] = 1 + float64(int(w*(maxWeight-1)))
		}

		tags := []string{fmt.Sprintf("t_%d", i%3), fmt.Sprintf("t_%d", i%7+3)}
		if octaveNoise(tagNoise, float64(i), 0, 2, 0.2, 0.5) > cfg.Outdoor {
			tags = append(tags, "outdoor")
		}

		pos := &Position{X: float64(i), Y: float64(i)}
		nodes = append(nodes, NewLocation(nodeName(i), pos, tags, conns))
	}
	return nodes, nil
}

// Build registers nodes on a fresh graph and computes distances.
func Build(nodes []*LocationNode) (*Graph, error) {
	g := NewGraph()
	for _, n := range nodes {
		if err := g.AddLocation(n); err != nil {
			return nil, err
		}
	}
	if err := g.RecomputeDistances(); err != nil {
		return nil, err
	}
	return g, nil
}

func nodeName(i int) string {
	return fmt.Sprintf("l_%d", i)
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TagCounts returns how many nodes carry each tag.
func TagCounts(nodes []*LocationNode) map[string]int {
	counts := make(map[string]int)
	for _, n := range nodes {
		for tag := range n.Tags {
			counts[tag]++
		}
	}
	return counts
}

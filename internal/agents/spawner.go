// Agent spawning for generated worlds: names a_0 … a_{n-1}, motives drawn
// from the generated vocabulary, starting locations spread over the graph.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/motive"
	"github.com/talgya/anthology/internal/social"
)

// SpawnConfig controls generated population size and randomness.
type SpawnConfig struct {
	Count         int
	Seed          int64
	Relationships int // Random directed relationships to add across the population
}

// relationshipTypes are the types handed out to generated agents.
var relationshipTypes = []string{"friend", "sibling", "student", "teacher", "rival"}

// Spawner creates agents for the simulation.
type Spawner struct {
	rng *rand.Rand
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{rng: rand.New(rand.NewSource(seed + 300))}
}

// Spawn creates cfg.Count agents placed uniformly over locations. Each
// generated motive starts between 1 and 4 inclusive.
func (s *Spawner) Spawn(cfg SpawnConfig, locations []string) ([]*Agent, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("spawn agents: no locations")
	}

	out := make([]*Agent, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		v := make(motive.Vector, len(actions.GeneratedMotives))
		for _, m := range actions.GeneratedMotives {
			v[m] = float64(s.rng.Intn(4) + 1)
		}
		loc := locations[s.rng.Intn(len(locations))]
		out = append(out, New(fmt.Sprintf("a_%d", i), loc, v, nil))
	}

	if len(out) > 1 {
		for i := 0; i < cfg.Relationships; i++ {
			from := out[s.rng.Intn(len(out))]
			to := out[s.rng.Intn(len(out))]
			if from == to {
				continue
			}
			from.Relationships = append(from.Relationships, social.Relationship{
				Type:    relationshipTypes[s.rng.Intn(len(relationshipTypes))],
				With:    to.Name,
				Valence: float64(s.rng.Intn(5) + 1),
			})
		}
	}
	return out, nil
}

// Generate is a convenience wrapper around NewSpawner(seed).Spawn.
func Generate(n int, locations []string, seed int64) ([]*Agent, error) {
	return NewSpawner(seed).Spawn(SpawnConfig{Count: n, Seed: seed}, locations)
}

package actions

import (
	"fmt"
	"math/rand"
)

// GeneratedMotives is the motive vocabulary used by generated test worlds.
var GeneratedMotives = []string{"m1", "m2", "m3", "m4", "m5"}

// GeneratePrimary fills a fresh catalog with n random primary actions for
// stress and property tests. Each action carries one location-tag
// constraint over the tags world.GenerateLocations assigns (t_0 … t_9),
// effects of 0 or 1 per motive and a min time between 15 and 299 ticks.
func GeneratePrimary(n int, seed int64) *Catalog {
	rng := rand.New(rand.NewSource(seed))
	c := NewCatalog()

	for i := 0; i < n; i++ {
		tag := fmt.Sprintf("t_%d", rng.Intn(8))
		req := &LocationRequirement{}
		switch rng.Intn(3) {
		case 0:
			req.HasAllOf = []string{tag}
		case 1:
			req.HasNoneOf = []string{tag}
		default:
			req.HasOneOrMoreOf = []string{tag}
		}

		effects := make(map[string]float64, len(GeneratedMotives))
		for _, m := range GeneratedMotives {
			effects[m] = float64(rng.Intn(2))
		}

		// Names are unique by construction.
		_ = c.Add(&Action{
			Name:         fmt.Sprintf("action_%d", i),
			Kind:         KindPrimary,
			MinTime:      rng.Intn(285) + 15,
			Effects:      effects,
			Requirements: Requirements{Location: req},
		})
	}
	return c
}

package agents

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/social"
	"github.com/talgya/anthology/internal/world"
)

// ErrNoEligibleAction means an idle agent found nothing worth doing anywhere.
var ErrNoEligibleAction = errors.New("no eligible action")

// Roster resolves agents by name. It doubles as the relationship directory
// People requirements consult.
type Roster interface {
	social.Directory
	Agent(name string) (*Agent, bool)
}

// Env is the shared, read-only-during-decisions world an agent acts in.
type Env struct {
	Catalog *actions.Catalog
	Graph   *world.Graph
	Roster  Roster
}

// Rand is the random source a decision draws from.
type Rand interface {
	Intn(n int) int
}

// Choice is the planner's pick for one agent.
type Choice struct {
	Action      *actions.Action
	Destination string  // Where the action will be performed
	Distance    float64 // Travel distance from the agent's current location
	Utility     float64 // Achievable gain per tick of action plus travel
}

// Decide scores every selectable action for an idle agent and returns one of
// the maximal-utility (action, destination) pairs, chosen with rng.
//
// For each action: a failing motive requirement disqualifies it; the
// location requirement narrows the graph to tag-eligible nodes; the people
// requirement filters those with the agent counted as present; the nearest
// survivor is the destination. Utility is the clamped motive gain divided by
// MinTime plus travel distance. Pairs whose denominator is zero carry no
// utility and are not candidates. Ties at the running maximum, which starts
// at zero, are kept; a strictly greater utility replaces them.
//
// Decide only reads shared state and may run concurrently for different
// agents. It returns ErrNoEligibleAction when nothing qualified.
func Decide(a *Agent, env Env, rng Rand) (Choice, error) {
	best, err := Candidates(a, env, rng)
	if err != nil {
		return Choice{}, err
	}
	if len(best) == 0 {
		return Choice{}, fmt.Errorf("agent %q at %q: %w", a.Name, a.CurrentLocation, ErrNoEligibleAction)
	}
	if len(best) == 1 || rng == nil {
		return best[0], nil
	}
	return best[rng.Intn(len(best))], nil
}

// Candidates returns the tied maximal pairs for a, in catalog order.
func Candidates(a *Agent, env Env, rng Rand) ([]Choice, error) {
	var (
		maxUtility float64
		best       []Choice
		dir        social.Directory = env.Roster
	)

	for _, act := range env.Catalog.Selectable() {
		req := act.Requirements
		if !req.MotivesSatisfied(a.Motives) {
			continue
		}

		var cands []*world.LocationNode
		if req.Location != nil {
			cands = env.Graph.LocationsSatisfyingTagRequirement(*req.Location)
		} else {
			cands = env.Graph.Locations()
		}
		if len(cands) > 0 && req.People != nil {
			cands = env.Graph.LocationsSatisfyingPeopleRequirement(cands, *req.People, dir, a.Name)
		}
		if len(cands) == 0 {
			continue
		}

		dest, dist, err := env.Graph.NearestLocationFrom(a.CurrentLocation, cands, rng)
		if errors.Is(err, world.ErrUnreachable) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("agent %q, action %q: %w", a.Name, act.Name, err)
		}

		gain, err := env.Catalog.Gain(a.Motives, act)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", a.Name, err)
		}
		denom := float64(act.MinTime) + dist
		if denom == 0 {
			continue
		}
		utility := gain / denom

		c := Choice{Action: act, Destination: dest.Name, Distance: dist, Utility: utility}
		switch {
		case utility > maxUtility:
			maxUtility = utility
			best = append(best[:0], c)
		case utility == maxUtility:
			best = append(best, c)
		}
	}
	return best, nil
}

// DecideOrWait runs Decide and falls back to the wait action in place when
// no action is eligible. The fallback is logged and reported via waited.
func DecideOrWait(a *Agent, env Env, rng Rand) (choice Choice, waited bool, err error) {
	choice, err = Decide(a, env, rng)
	if errors.Is(err, ErrNoEligibleAction) {
		slog.Warn("planner deadlock, agent waits", "agent", a.Name, "location", a.CurrentLocation)
		return Choice{Action: env.Catalog.Wait(), Destination: a.CurrentLocation}, true, nil
	}
	return choice, false, err
}

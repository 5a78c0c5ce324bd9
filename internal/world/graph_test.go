package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/social"
)

// campus is the six-node map used across the tests:
// A–C:1, C–D:5, C–F:2, D–B:3, D–E:4 (all symmetric).
func campus(t *testing.T) *Graph {
	t.Helper()
	nodes := []*LocationNode{
		NewLocation("A", &Position{0, 2}, []string{"Restaurant", "Food"}, map[string]float64{"C": 1}),
		NewLocation("B", &Position{1, 2}, []string{"Recreational", "Park"}, map[string]float64{"D": 3}),
		NewLocation("C", &Position{0, 1}, []string{"Park", "Pathway"}, map[string]float64{"A": 1, "D": 5, "F": 2}),
		NewLocation("D", &Position{1, 1}, []string{"Recreational", "Pathway"}, map[string]float64{"B": 3, "C": 5, "E": 4}),
		NewLocation("F", &Position{0, 0}, []string{"Food"}, map[string]float64{"C": 2}),
		NewLocation("E", &Position{1, 0}, []string{"House"}, map[string]float64{"D": 4}),
	}
	g, err := Build(nodes)
	require.NoError(t, err)
	return g
}

func names(nodes []*LocationNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestGraphIndices(t *testing.T) {
	g := campus(t)

	assert.Equal(t, 6, g.Len())
	_, err := g.Location("A")
	require.NoError(t, err)

	at, ok := g.LocationAt(Position{0, 1})
	require.True(t, ok)
	assert.Equal(t, "C", at.Name)

	assert.Len(t, g.LocationsWithTag("Park"), 2)
	assert.Len(t, g.LocationsWithTag("House"), 1)

	_, err = g.Location("Z")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestAddLocationRejectsDuplicates(t *testing.T) {
	g := campus(t)

	err := g.AddLocation(NewLocation("A", nil, nil, nil))
	assert.ErrorIs(t, err, ErrDuplicateLocation)

	err = g.AddLocation(NewLocation("G", &Position{0, 2}, nil, nil))
	assert.ErrorIs(t, err, ErrDuplicatePosition)
}

func TestDistanceMatrix(t *testing.T) {
	g := campus(t)

	cases := []struct {
		from, to string
		want     float64
	}{
		{"A", "A", 0},
		{"A", "C", 1},
		{"A", "F", 3},
		{"A", "E", 10},
		{"E", "A", 10},
		{"B", "F", 10},
	}
	for _, c := range cases {
		d, err := g.Distance(c.from, c.to)
		require.NoError(t, err)
		assert.Equal(t, c.want, d, "%s→%s", c.from, c.to)
	}
}

func TestDistanceMatrixIsDirected(t *testing.T) {
	g, err := Build([]*LocationNode{
		NewLocation("X", nil, nil, map[string]float64{"Y": 1}),
		NewLocation("Y", nil, nil, map[string]float64{"Z": 1}),
		NewLocation("Z", nil, nil, map[string]float64{"X": 7}),
	})
	require.NoError(t, err)

	xy, _ := g.Distance("X", "Y")
	yx, _ := g.Distance("Y", "X")
	assert.Equal(t, 1.0, xy)
	assert.Equal(t, 8.0, yx)
}

func TestDistanceUnreachableAndStale(t *testing.T) {
	g, err := Build([]*LocationNode{
		NewLocation("X", nil, nil, nil),
		NewLocation("Y", nil, nil, nil),
	})
	require.NoError(t, err)

	d, err := g.Distance("X", "Y")
	require.NoError(t, err)
	assert.Equal(t, Unreachable, d)

	require.NoError(t, g.AddLocation(NewLocation("W", nil, nil, map[string]float64{"X": 2})))
	assert.True(t, g.Stale())
	_, err = g.Distance("W", "X")
	assert.ErrorIs(t, err, ErrStaleDistances)

	require.NoError(t, g.RecomputeDistances())
	d, err = g.Distance("W", "X")
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)
}

func TestRecomputeRejectsUnknownConnection(t *testing.T) {
	_, err := Build([]*LocationNode{NewLocation("X", nil, nil, map[string]float64{"nowhere": 1})})
	assert.Error(t, err)
}

func TestTagPredicates(t *testing.T) {
	c := NewLocation("C", nil, []string{"Park", "Pathway"}, nil)

	assert.True(t, c.SatisfiesLocation(actions.LocationRequirement{HasAllOf: []string{"Park"}}))
	assert.True(t, c.SatisfiesLocation(actions.LocationRequirement{HasNoneOf: []string{"House"}}))
	assert.True(t, c.SatisfiesLocation(actions.LocationRequirement{HasOneOrMoreOf: []string{}}))
	assert.False(t, c.SatisfiesLocation(actions.LocationRequirement{HasOneOrMoreOf: []string{"Food"}}))
	assert.False(t, c.SatisfiesLocation(actions.LocationRequirement{HasAllOf: []string{"Park", "Food"}}))
	assert.False(t, c.SatisfiesLocation(actions.LocationRequirement{HasNoneOf: []string{"Pathway"}}))
}

func TestLocationsSatisfyingTagRequirement(t *testing.T) {
	g := campus(t)

	got := g.LocationsSatisfyingTagRequirement(actions.LocationRequirement{HasAllOf: []string{"Park"}})
	assert.ElementsMatch(t, []string{"B", "C"}, names(got))

	got = g.LocationsSatisfyingTagRequirement(actions.LocationRequirement{
		HasOneOrMoreOf: []string{"Food", "Recreational"},
		HasNoneOf:      []string{"Park"},
	})
	assert.ElementsMatch(t, []string{"A", "D", "F"}, names(got))

	got = g.LocationsSatisfyingTagRequirement(actions.LocationRequirement{HasAllOf: []string{"Pathway"}, HasOneOrMoreOf: []string{"Food"}})
	assert.Empty(t, got)

	assert.Len(t, g.LocationsSatisfyingTagRequirement(actions.LocationRequirement{}), 6)
}

func TestTagFilterMatchesPredicate(t *testing.T) {
	g := campus(t)
	reqs := []actions.LocationRequirement{
		{HasAllOf: []string{"Pathway"}},
		{HasOneOrMoreOf: []string{"House", "Park"}},
		{HasNoneOf: []string{"Food", "Park"}},
		{HasAllOf: []string{"Recreational"}, HasNoneOf: []string{"Park"}},
	}
	for _, req := range reqs {
		var want []string
		for _, n := range g.Locations() {
			if n.SatisfiesLocation(req) {
				want = append(want, n.Name)
			}
		}
		assert.ElementsMatch(t, want, names(g.LocationsSatisfyingTagRequirement(req)), "%+v", req)
	}
}

func TestPeopleRequirement(t *testing.T) {
	g := campus(t)
	require.NoError(t, g.AddPresence("C", "Norma"))
	require.NoError(t, g.AddPresence("C", "Quentin"))
	require.NoError(t, g.AddPresence("D", "MathProf"))

	dir := social.Static{"Norma": {{Type: "sibling", With: "Quentin"}}}
	all := g.Locations()

	got := g.LocationsSatisfyingPeopleRequirement(all, actions.PeopleRequirement{MinPeople: 2}, dir, "")
	assert.Equal(t, []string{"C"}, names(got))

	got = g.LocationsSatisfyingPeopleRequirement(all, actions.PeopleRequirement{RelationshipsPresent: []string{"sibling"}}, dir, "")
	assert.Equal(t, []string{"C"}, names(got))

	got = g.LocationsSatisfyingPeopleRequirement(all, actions.PeopleRequirement{SpecificPeoplePresent: []string{"MathProf"}}, dir, "")
	assert.Equal(t, []string{"D"}, names(got))

	got = g.LocationsSatisfyingPeopleRequirement(all, actions.PeopleRequirement{SpecificPeopleAbsent: []string{"Norma"}, MaxPeople: 1}, dir, "")
	assert.ElementsMatch(t, []string{"A", "B", "D", "E", "F"}, names(got))
}

func TestPeopleProbeDoesNotMutate(t *testing.T) {
	g := campus(t)
	require.NoError(t, g.AddPresence("D", "MathProf"))

	req := actions.PeopleRequirement{MinPeople: 2}
	got := g.LocationsSatisfyingPeopleRequirement(g.Locations(), req, nil, "Norma")
	assert.Equal(t, []string{"D"}, names(got), "Norma would make two at D")

	occ, err := g.Occupants("D")
	require.NoError(t, err)
	assert.Equal(t, []string{"MathProf"}, occ)

	// A probe already present is not double counted.
	require.NoError(t, g.AddPresence("A", "Norma"))
	got = g.LocationsSatisfyingPeopleRequirement(g.Locations(), actions.PeopleRequirement{MinPeople: 1, MaxPeople: 1}, nil, "Norma")
	assert.ElementsMatch(t, []string{"A", "B", "C", "E", "F"}, names(got))
}

func TestNearestLocationFrom(t *testing.T) {
	g := campus(t)

	food := g.LocationsWithTag("Food")
	n, d, err := g.NearestLocationFrom("C", food, nil)
	require.NoError(t, err)
	assert.Equal(t, "A", n.Name)
	assert.Equal(t, 1.0, d)

	_, _, err = g.NearestLocationFrom("C", nil, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestNearestLocationTieBreakIsRandomAmongMinima(t *testing.T) {
	g, err := Build([]*LocationNode{
		NewLocation("hub", nil, nil, map[string]float64{"left": 2, "right": 2, "far": 9}),
		NewLocation("left", nil, nil, nil),
		NewLocation("right", nil, nil, nil),
		NewLocation("far", nil, nil, nil),
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		n, d, err := g.NearestLocationFrom("hub", g.Locations()[1:], rng)
		require.NoError(t, err)
		assert.Equal(t, 2.0, d)
		seen[n.Name]++
	}
	assert.Len(t, seen, 2)
	assert.NotContains(t, seen, "far")
}

func TestNearestLocationSkipsUnreachable(t *testing.T) {
	g, err := Build([]*LocationNode{
		NewLocation("X", nil, nil, nil),
		NewLocation("Y", nil, nil, nil),
	})
	require.NoError(t, err)

	y, _ := g.Location("Y")
	_, _, err = g.NearestLocationFrom("X", []*LocationNode{y}, nil)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestGenerateLocations(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 99
	nodes, err := GenerateLocations(cfg)
	require.NoError(t, err)
	require.Len(t, nodes, cfg.Locations)

	g, err := Build(nodes)
	require.NoError(t, err)

	// Ring edges make every node reachable from every other.
	for _, a := range g.Locations() {
		for _, b := range g.Locations() {
			d, err := g.Distance(a.Name, b.Name)
			require.NoError(t, err)
			assert.Less(t, d, Unreachable)
		}
	}

	counts := TagCounts(nodes)
	assert.Equal(t, 7, counts["t_0"])
	assert.Equal(t, 3, counts["t_3"])

	again, err := GenerateLocations(cfg)
	require.NoError(t, err)
	for i := range nodes {
		assert.Equal(t, nodes[i].Connections, again[i].Connections)
	}

	_, err = GenerateLocations(GenConfig{Locations: 3})
	assert.Error(t, err)
}

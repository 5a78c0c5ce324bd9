package actions

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/anthology/internal/motive"
)

func vocab(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func TestNewCatalogHasBuiltins(t *testing.T) {
	c := NewCatalog()

	wait, err := c.Get(WaitAction)
	require.NoError(t, err)
	assert.False(t, wait.Hidden)
	assert.Empty(t, wait.Effects)

	travel, err := c.Get(TravelAction)
	require.NoError(t, err)
	assert.True(t, travel.Hidden)

	names := []string{}
	for _, a := range c.Selectable() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{WaitAction}, names)
}

func TestCatalogLookupErrors(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(&Action{Name: "eat", Effects: map[string]float64{"physical": 1}}))

	assert.ErrorIs(t, c.Add(&Action{Name: "eat"}), ErrDuplicateAction)
	assert.ErrorIs(t, c.Add(&Action{Name: WaitAction}), ErrDuplicateAction)

	_, err := c.Get("nap")
	assert.ErrorIs(t, err, ErrActionNotFound)
}

func TestGainResolvesScheduleThroughInstigator(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(&Action{Name: "chat", Effects: map[string]float64{"social": 3}}))
	require.NoError(t, c.Add(&Action{Name: "listen", Effects: map[string]float64{"social": 1}}))
	sched := &Action{Name: "invite", Kind: KindSchedule, InstigatorAction: "chat", TargetAction: "listen"}
	require.NoError(t, c.Add(sched))

	gain, err := c.Gain(motive.Vector{"social": 4}, sched)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, gain, 1e-9)
}

func TestGainDetectsScheduleCycle(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(&Action{Name: "a", Kind: KindSchedule, InstigatorAction: "b"}))
	require.NoError(t, c.Add(&Action{Name: "b", Kind: KindSchedule, InstigatorAction: "a"}))

	a, _ := c.Get("a")
	_, err := c.Gain(motive.Vector{}, a)
	assert.ErrorIs(t, err, ErrScheduleCycle)
	assert.ErrorIs(t, c.Validate(vocab()), ErrScheduleCycle)
}

func TestValidate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(&Action{Name: "eat", Effects: map[string]float64{"physical": 1}}))
	require.NoError(t, c.Validate(vocab("physical")))

	assert.ErrorIs(t, c.Validate(vocab("social")), motive.ErrUnknownMotive)

	require.NoError(t, c.Add(&Action{Name: "ask", Kind: KindSchedule, InstigatorAction: "eat", TargetAction: "ghost"}))
	assert.ErrorIs(t, c.Validate(vocab("physical")), ErrActionNotFound)
}

func TestValidateKeepsMalformedOperator(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(&Action{
		Name:         "odd",
		Requirements: Requirements{Motives: []MotiveCondition{{Motive: "physical", Op: "~", Threshold: 1}}},
	}))
	assert.NoError(t, c.Validate(vocab("physical")))
}

func TestMotivesSatisfied(t *testing.T) {
	v := motive.Vector{"physical": 2, "social": 4}

	r := Requirements{Motives: []MotiveCondition{
		{Motive: "physical", Op: motive.OpLess, Threshold: 3},
		{Motive: "social", Op: motive.OpGreaterEqual, Threshold: 4},
	}}
	assert.True(t, r.MotivesSatisfied(v))

	r.Motives = append(r.Motives, MotiveCondition{Motive: "social", Op: motive.OpEqual, Threshold: 1})
	assert.False(t, r.MotivesSatisfied(v), "conditions are conjunctive")

	bad := Requirements{Motives: []MotiveCondition{{Motive: "physical", Op: "~", Threshold: 0}}}
	assert.False(t, bad.MotivesSatisfied(v), "unknown operator never holds")

	assert.True(t, Requirements{}.MotivesSatisfied(v))
}

func TestMalformedRequirementWarnsOnlyAtLoad(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	c := NewCatalog()
	require.NoError(t, c.Add(&Action{
		Name:         "nap",
		Kind:         KindPrimary,
		Requirements: Requirements{Motives: []MotiveCondition{{Motive: "physical", Op: "~", Threshold: 0}}},
	}))
	require.NoError(t, c.Validate(vocab("physical")))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("level=WARN")))

	nap, err := c.Get("nap")
	require.NoError(t, err)
	v := motive.Vector{"physical": 1}
	for i := 0; i < 100; i++ {
		assert.False(t, nap.Requirements.MotivesSatisfied(v))
	}
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("level=WARN")), "evaluation stays quiet")
}

func TestGeneratePrimaryIsDeterministic(t *testing.T) {
	a := GeneratePrimary(20, 7)
	b := GeneratePrimary(20, 7)

	require.Equal(t, 22, a.Len())
	for i, act := range a.All() {
		other := b.All()[i]
		assert.Equal(t, act.Name, other.Name)
		assert.Equal(t, act.MinTime, other.MinTime)
		if act.Hidden || act.Name == WaitAction {
			continue
		}
		assert.GreaterOrEqual(t, act.MinTime, 15)
		assert.Less(t, act.MinTime, 300)
		require.NotNil(t, act.Requirements.Location)
	}
	assert.NoError(t, a.Validate(vocab(GeneratedMotives...)))
}

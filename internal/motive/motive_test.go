package motive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyClampsToBounds(t *testing.T) {
	v := Vector{"physical": 4, "social": 1}
	v.Apply(map[string]float64{"physical": 5, "social": -3})

	assert.Equal(t, Max, v["physical"])
	assert.Equal(t, Min, v["social"])
}

func TestGainCountsOnlyAchievableDelta(t *testing.T) {
	v := Vector{"physical": 1, "social": 4.5}

	gain := v.Gain(map[string]float64{"physical": 5, "social": 2})

	// physical can rise by 4, social by 0.5
	assert.InDelta(t, 4.5, gain, 1e-9)
	assert.Equal(t, 1.0, v["physical"], "gain must not mutate")
}

func TestGainNegativeEffect(t *testing.T) {
	v := Vector{"financial": 0.5}
	assert.InDelta(t, -0.5, v.Gain(map[string]float64{"financial": -2}), 1e-9)
}

func TestDecayAndContent(t *testing.T) {
	v := Vector{"a": Max, "b": Max}
	assert.True(t, v.Content())

	v.Decay(1)
	assert.False(t, v.Content())
	assert.Equal(t, Max-1, v["a"])

	low := Vector{"a": 0.3}
	low.Decay(1)
	assert.Equal(t, Min, low["a"])
}

func TestNewVectorDefaults(t *testing.T) {
	v := NewVector(StandardNames)
	require.Len(t, v, len(StandardNames))
	for _, n := range StandardNames {
		assert.Equal(t, Default, v[n])
	}
	assert.Equal(t, []string{"accomplishment", "emotional", "financial", "physical", "social"}, v.Names())
}

func TestValidate(t *testing.T) {
	vocab := map[string]struct{}{"physical": {}}

	require.NoError(t, Vector{"physical": 3}.Validate(vocab))
	assert.ErrorIs(t, Vector{"hunger": 3}.Validate(vocab), ErrUnknownMotive)
	assert.Error(t, Vector{"physical": 9}.Validate(vocab))
}

func TestCompare(t *testing.T) {
	cases := []struct {
		op   Op
		v, t float64
		want bool
	}{
		{OpEqual, 2, 2, true},
		{OpLess, 1, 2, true},
		{OpGreater, 1, 2, false},
		{OpLessEqual, 2, 2, true},
		{OpGreaterEqual, 1, 2, false},
	}
	for _, c := range cases {
		got, err := Compare(c.op, c.v, c.t)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%v %s %v", c.v, c.op, c.t)
	}

	_, err := Compare(Op("~"), 1, 1)
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestParseOp(t *testing.T) {
	assert.Equal(t, OpGreaterEqual, ParseOp("GREATER_EQUALS"))
	assert.Equal(t, OpLessEqual, ParseOp("≤"))
	assert.Equal(t, OpEqual, ParseOp("=="))
	assert.False(t, ParseOp("between").Valid())
}

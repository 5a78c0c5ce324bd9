// Package motive implements the bounded motive vector every agent carries.
// Values live in the closed range [Min, Max]; every write is clamped.
package motive

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Bounds of every motive value.
const (
	Min     = 0.0
	Max     = 5.0
	Default = 1.0 // Starting value for a motive an agent was not configured with
)

// StandardNames is the vocabulary used when a world does not declare its own.
var StandardNames = []string{"accomplishment", "emotional", "financial", "social", "physical"}

// ErrUnknownMotive is returned when a motive name is outside the vocabulary.
var ErrUnknownMotive = errors.New("unknown motive")

// Clamp bounds v to [Min, Max].
func Clamp(v float64) float64 {
	return math.Max(Min, math.Min(Max, v))
}

// Vector maps motive name → current value.
type Vector map[string]float64

// NewVector returns a vector holding Default for every name.
func NewVector(names []string) Vector {
	v := make(Vector, len(names))
	for _, n := range names {
		v[n] = Default
	}
	return v
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Set stores a clamped value.
func (v Vector) Set(name string, value float64) {
	v[name] = Clamp(value)
}

// Apply adds every effect delta to the vector, clamping each result.
func (v Vector) Apply(effects map[string]float64) {
	for name, delta := range effects {
		v[name] = Clamp(v[name] + delta)
	}
}

// Gain returns the achievable motive increase of applying effects now.
// A delta that would push past a bound only counts up to that bound.
// Terms are summed in name order so equal inputs give bit-identical results.
func (v Vector) Gain(effects map[string]float64) float64 {
	names := make([]string, 0, len(effects))
	for name := range effects {
		names = append(names, name)
	}
	sort.Strings(names)

	var total float64
	for _, name := range names {
		cur := v[name]
		total += Clamp(cur+effects[name]) - cur
	}
	return total
}

// Decay lowers every motive by amount.
func (v Vector) Decay(amount float64) {
	for name, val := range v {
		v[name] = Clamp(val - amount)
	}
}

// Content reports whether every motive sits at Max.
func (v Vector) Content() bool {
	for _, val := range v {
		if val < Max {
			return false
		}
	}
	return true
}

// Names returns the motive names in sorted order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v))
	for n := range v {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every stored name belongs to vocab and every value is in range.
func (v Vector) Validate(vocab map[string]struct{}) error {
	for name, val := range v {
		if _, ok := vocab[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMotive, name)
		}
		if val < Min || val > Max {
			return fmt.Errorf("motive %q value %v outside [%v, %v]", name, val, Min, Max)
		}
	}
	return nil
}

package actions

import (
	"errors"
	"log/slog"

	"github.com/talgya/anthology/internal/motive"
)

// Requirements holds at most one requirement of each class.
// A nil Location or People means the class is unconstrained.
type Requirements struct {
	Motives  []MotiveCondition
	Location *LocationRequirement
	People   *PeopleRequirement
}

// MotiveCondition is one (motive, operator, threshold) triple.
type MotiveCondition struct {
	Motive    string
	Op        motive.Op
	Threshold float64
}

// LocationRequirement constrains the tags of a candidate location.
type LocationRequirement struct {
	HasAllOf       []string
	HasOneOrMoreOf []string
	HasNoneOf      []string
}

// PeopleRequirement constrains who is present at a candidate location.
// MaxPeople of 0 leaves the occupant count unbounded above.
type PeopleRequirement struct {
	MinPeople             int
	MaxPeople             int
	SpecificPeoplePresent []string
	SpecificPeopleAbsent  []string
	RelationshipsPresent  []string
}

// MotivesSatisfied reports whether every condition holds for v.
// A condition with an unrecognized operator never holds. Catalog.Validate
// warns about it once at load, so evaluation only logs at debug level.
func (r Requirements) MotivesSatisfied(v motive.Vector) bool {
	for _, c := range r.Motives {
		ok, err := motive.Compare(c.Op, v[c.Motive], c.Threshold)
		if err != nil {
			if errors.Is(err, motive.ErrUnknownOperator) {
				slog.Debug("malformed motive requirement", "motive", c.Motive, "op", string(c.Op), "error", err)
			}
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// motiveNames lists every motive referenced by the requirements.
func (r Requirements) motiveNames() []string {
	names := make([]string, 0, len(r.Motives))
	for _, c := range r.Motives {
		names = append(names, c.Motive)
	}
	return names
}

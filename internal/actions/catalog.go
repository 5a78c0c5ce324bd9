package actions

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/anthology/internal/motive"
)

var (
	ErrActionNotFound   = errors.New("action not found")
	ErrDuplicateAction  = errors.New("duplicate action")
	ErrScheduleCycle    = errors.New("schedule action cycle")
	errScheduleNoTarget = errors.New("schedule action without instigator action")
)

// maxScheduleDepth bounds instigator resolution when computing utility.
const maxScheduleDepth = 16

// Catalog is the registry of actions. It is populated at world init and
// read-only afterwards, so concurrent readers need no locking.
type Catalog struct {
	byName map[string]*Action
	order  []*Action // Insertion order keeps selection deterministic under a seed
}

// NewCatalog returns a catalog holding the built-in wait and travel actions.
func NewCatalog() *Catalog {
	c := &Catalog{byName: make(map[string]*Action)}
	c.byName[WaitAction] = newWait()
	c.byName[TravelAction] = newTravel()
	c.order = append(c.order, c.byName[WaitAction], c.byName[TravelAction])
	return c
}

// Add registers an action. Built-in names and repeated names are rejected.
func (c *Catalog) Add(a *Action) error {
	if a == nil || a.Name == "" {
		return fmt.Errorf("add action: empty name")
	}
	if _, ok := c.byName[a.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, a.Name)
	}
	c.byName[a.Name] = a
	c.order = append(c.order, a)
	return nil
}

// Get looks an action up by name.
func (c *Catalog) Get(name string) (*Action, error) {
	a, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
	}
	return a, nil
}

// Wait returns the built-in wait action.
func (c *Catalog) Wait() *Action { return c.byName[WaitAction] }

// Travel returns the built-in travel action.
func (c *Catalog) Travel() *Action { return c.byName[TravelAction] }

// All returns every action in insertion order.
func (c *Catalog) All() []*Action {
	out := make([]*Action, len(c.order))
	copy(out, c.order)
	return out
}

// Selectable returns the actions agents may choose, in insertion order.
func (c *Catalog) Selectable() []*Action {
	out := make([]*Action, 0, len(c.order))
	for _, a := range c.order {
		if !a.Hidden {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of registered actions, built-ins included.
func (c *Catalog) Len() int { return len(c.order) }

// Gain returns the achievable motive gain of a for an agent holding v.
// Schedule actions are valued through their instigator action.
func (c *Catalog) Gain(v motive.Vector, a *Action) (float64, error) {
	for depth := 0; depth < maxScheduleDepth; depth++ {
		if !a.IsSchedule() {
			return v.Gain(a.Effects), nil
		}
		next, err := c.Get(a.InstigatorAction)
		if err != nil {
			return 0, fmt.Errorf("resolve instigator of %q: %w", a.Name, err)
		}
		a = next
	}
	return 0, fmt.Errorf("%w: starting at %q", ErrScheduleCycle, a.Name)
}

// Validate checks that every schedule reference resolves and every motive
// name belongs to vocab.
func (c *Catalog) Validate(vocab map[string]struct{}) error {
	for _, a := range c.order {
		if a.IsSchedule() {
			if a.InstigatorAction == "" {
				return fmt.Errorf("action %q: %w", a.Name, errScheduleNoTarget)
			}
			if _, err := c.Get(a.InstigatorAction); err != nil {
				return fmt.Errorf("action %q instigator: %w", a.Name, err)
			}
			if a.TargetAction != "" {
				if _, err := c.Get(a.TargetAction); err != nil {
					return fmt.Errorf("action %q target: %w", a.Name, err)
				}
			}
			if _, err := c.Gain(motive.Vector{}, a); err != nil {
				return err
			}
		}
		for name := range a.Effects {
			if _, ok := vocab[name]; !ok {
				return fmt.Errorf("action %q effect: %w: %q", a.Name, motive.ErrUnknownMotive, name)
			}
		}
		for _, name := range a.Requirements.motiveNames() {
			if _, ok := vocab[name]; !ok {
				return fmt.Errorf("action %q requirement: %w: %q", a.Name, motive.ErrUnknownMotive, name)
			}
		}
		for _, cond := range a.Requirements.Motives {
			if !cond.Op.Valid() {
				// Kept loadable; the requirement simply never holds.
				slog.Warn("action has malformed motive requirement", "action", a.Name, "op", string(cond.Op))
			}
		}
	}
	return nil
}

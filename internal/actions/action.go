// Package actions defines the action catalog agents choose from.
// An action is either primary (direct motive effects) or schedule
// (enqueues other actions for the actor and its interaction targets).
package actions

// Kind distinguishes the two action variants.
type Kind uint8

const (
	KindPrimary  Kind = iota // Applies Effects to the actor's motives
	KindSchedule             // Enqueues InstigatorAction / TargetAction
)

func (k Kind) String() string {
	if k == KindSchedule {
		return "schedule"
	}
	return "primary"
}

// Built-in action names present in every catalog.
const (
	WaitAction   = "wait_action"
	TravelAction = "travel_action"
)

// Action is an immutable catalog entry.
type Action struct {
	Name    string
	Kind    Kind
	MinTime int  // Ticks the action occupies once started
	Hidden  bool // Selectable only by the system (e.g. travel)

	// Primary
	Effects map[string]float64

	// Schedule
	InstigatorAction string
	TargetAction     string
	Interrupt        bool // Enqueue at the front instead of the back

	Requirements Requirements
}

// IsSchedule reports whether a is a schedule action.
func (a *Action) IsSchedule() bool {
	return a.Kind == KindSchedule
}

func newWait() *Action {
	return &Action{Name: WaitAction, Kind: KindPrimary}
}

func newTravel() *Action {
	return &Action{Name: TravelAction, Kind: KindPrimary, Hidden: true}
}

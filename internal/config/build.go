package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/agents"
	"github.com/talgya/anthology/internal/motive"
	"github.com/talgya/anthology/internal/social"
	"github.com/talgya/anthology/internal/world"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownAgent    = errors.New("unknown agent")
	ErrDuplicateAgent  = errors.New("duplicate agent")
)

// Model is a fully resolved world ready for engine.NewSimulation.
type Model struct {
	Motives []string
	Catalog *actions.Catalog
	Graph   *world.Graph
	Agents  []*agents.Agent
}

// Build resolves every cross reference in w. Locations come first so agent
// positions can be checked; the distance matrix is computed before return.
func Build(w *World) (*Model, error) {
	names := w.Motives
	if len(names) == 0 {
		names = motive.StandardNames
	}
	vocab := make(map[string]struct{}, len(names))
	for _, n := range names {
		vocab[n] = struct{}{}
	}

	g, err := buildGraph(w.Locations)
	if err != nil {
		return nil, err
	}
	cat, err := buildCatalog(w.Actions)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(vocab); err != nil {
		return nil, configErr("actions", err)
	}
	ag, err := buildAgents(w.Agents, names, vocab, cat, g)
	if err != nil {
		return nil, err
	}
	return &Model{Motives: names, Catalog: cat, Graph: g, Agents: ag}, nil
}

func buildGraph(specs []LocationSpec) (*world.Graph, error) {
	nodes := make([]*world.LocationNode, 0, len(specs))
	for _, ls := range specs {
		var pos *world.Position
		if ls.X != nil || ls.Y != nil {
			pos = &world.Position{}
			if ls.X != nil {
				pos.X = *ls.X
			}
			if ls.Y != nil {
				pos.Y = *ls.Y
			}
		}
		nodes = append(nodes, world.NewLocation(ls.Name, pos, ls.Tags, ls.Connections))
	}
	g, err := world.Build(nodes)
	if err != nil {
		return nil, configErr("locations", err)
	}
	return g, nil
}

func buildCatalog(spec ActionsFile) (*actions.Catalog, error) {
	cat := actions.NewCatalog()
	for _, p := range spec.Primary {
		a := &actions.Action{
			Name:         p.Name,
			Kind:         actions.KindPrimary,
			MinTime:      p.MinTime,
			Hidden:       p.Hidden,
			Effects:      p.Effects,
			Requirements: buildRequirements(p.Requirements),
		}
		if err := cat.Add(a); err != nil {
			return nil, configErr(fmt.Sprintf("primary action %q", p.Name), err)
		}
	}
	for _, s := range spec.Schedule {
		a := &actions.Action{
			Name:             s.Name,
			Kind:             actions.KindSchedule,
			MinTime:          s.MinTime,
			Hidden:           s.Hidden,
			InstigatorAction: s.InstigatorAction,
			TargetAction:     s.TargetAction,
			Interrupt:        s.Interrupt,
			Requirements:     buildRequirements(s.Requirements),
		}
		if err := cat.Add(a); err != nil {
			return nil, configErr(fmt.Sprintf("schedule action %q", s.Name), err)
		}
	}
	return cat, nil
}

func buildRequirements(rs *RequirementsSpec) actions.Requirements {
	var r actions.Requirements
	if rs == nil {
		return r
	}
	for _, m := range rs.Motive {
		r.Motives = append(r.Motives, actions.MotiveCondition{
			Motive:    m.Motive,
			Op:        motive.ParseOp(m.Op),
			Threshold: m.Threshold,
		})
	}
	if l := rs.Location; l != nil {
		r.Location = &actions.LocationRequirement{
			HasAllOf:       l.HasAllOf,
			HasOneOrMoreOf: l.HasOneOrMoreOf,
			HasNoneOf:      l.HasNoneOf,
		}
	}
	if p := rs.People; p != nil {
		r.People = &actions.PeopleRequirement{
			MinPeople:             p.MinPeople,
			MaxPeople:             p.MaxPeople,
			SpecificPeoplePresent: p.SpecificPeoplePresent,
			SpecificPeopleAbsent:  p.SpecificPeopleAbsent,
			RelationshipsPresent:  p.RelationshipsPresent,
		}
	}
	return r
}

func buildAgents(specs []AgentSpec, names []string, vocab map[string]struct{}, cat *actions.Catalog, g *world.Graph) ([]*agents.Agent, error) {
	known := make(map[string]struct{}, len(specs))
	for _, as := range specs {
		if _, dup := known[as.Name]; dup {
			return nil, configErr(fmt.Sprintf("agent %q", as.Name), ErrDuplicateAgent)
		}
		known[as.Name] = struct{}{}
	}

	out := make([]*agents.Agent, 0, len(specs))
	for _, as := range specs {
		key := fmt.Sprintf("agent %q", as.Name)
		if _, err := g.Location(as.CurrentLocation); err != nil {
			return nil, configErr(key+" current_location", fmt.Errorf("%w: %q", ErrUnknownLocation, as.CurrentLocation))
		}

		v := motive.NewVector(names)
		for name, val := range as.Motives {
			if _, ok := vocab[name]; !ok {
				return nil, configErr(key+" motives", fmt.Errorf("%w: %q", motive.ErrUnknownMotive, name))
			}
			v[name] = val
		}

		rels := make([]social.Relationship, 0, len(as.Relationships))
		for _, rs := range as.Relationships {
			if _, ok := known[rs.With]; !ok {
				return nil, configErr(key+" relationships", fmt.Errorf("%w: %q", ErrUnknownAgent, rs.With))
			}
			rels = append(rels, social.Relationship{Type: rs.Type, With: rs.With, Valence: rs.Valence})
		}

		a := agents.New(as.Name, as.CurrentLocation, v, rels)
		if as.CurrentAction != "" && as.CurrentAction != actions.WaitAction {
			act, err := cat.Get(as.CurrentAction)
			if err != nil {
				return nil, configErr(key+" current_action", err)
			}
			a.Enqueue(act, false)
		}
		out = append(out, a)
	}
	return out, nil
}

// Export turns a live model back into a world document. Agents keep their
// current location and current action; in-flight travel is not recorded.
func Export(m *Model) *World {
	w := &World{Motives: append([]string(nil), m.Motives...)}

	for _, a := range m.Catalog.All() {
		if a.Name == actions.WaitAction || a.Name == actions.TravelAction {
			continue
		}
		req := exportRequirements(a.Requirements)
		if a.IsSchedule() {
			w.Actions.Schedule = append(w.Actions.Schedule, ScheduleSpec{
				Name:             a.Name,
				MinTime:          a.MinTime,
				Hidden:           a.Hidden,
				InstigatorAction: a.InstigatorAction,
				TargetAction:     a.TargetAction,
				Interrupt:        a.Interrupt,
				Requirements:     req,
			})
			continue
		}
		w.Actions.Primary = append(w.Actions.Primary, PrimarySpec{
			Name:         a.Name,
			MinTime:      a.MinTime,
			Hidden:       a.Hidden,
			Effects:      a.Effects,
			Requirements: req,
		})
	}

	for _, n := range m.Graph.Locations() {
		ls := LocationSpec{Name: n.Name, Tags: n.TagList(), Connections: n.Connections}
		if n.Position != nil {
			x, y := n.Position.X, n.Position.Y
			ls.X, ls.Y = &x, &y
		}
		w.Locations = append(w.Locations, ls)
	}

	for _, a := range m.Agents {
		as := AgentSpec{
			Name:            a.Name,
			Motives:         a.Motives.Clone(),
			CurrentLocation: a.CurrentLocation,
			CurrentAction:   a.CurrentAction(),
		}
		if a.Destination != "" {
			as.CurrentLocation = a.Destination
			if len(a.Queue) > 1 {
				as.CurrentAction = a.Queue[1].Name
			} else {
				as.CurrentAction = actions.WaitAction
			}
		}
		for _, r := range a.Relationships {
			as.Relationships = append(as.Relationships, RelationshipSpec{Type: r.Type, With: r.With, Valence: r.Valence})
		}
		w.Agents = append(w.Agents, as)
	}
	sort.Slice(w.Agents, func(i, j int) bool { return w.Agents[i].Name < w.Agents[j].Name })
	return w
}

func exportRequirements(r actions.Requirements) *RequirementsSpec {
	if len(r.Motives) == 0 && r.Location == nil && r.People == nil {
		return nil
	}
	rs := &RequirementsSpec{}
	for _, c := range r.Motives {
		rs.Motive = append(rs.Motive, MotiveSpec{Motive: c.Motive, Op: string(c.Op), Threshold: c.Threshold})
	}
	if l := r.Location; l != nil {
		rs.Location = &LocationReq{HasAllOf: l.HasAllOf, HasOneOrMoreOf: l.HasOneOrMoreOf, HasNoneOf: l.HasNoneOf}
	}
	if p := r.People; p != nil {
		rs.People = &PeopleReqSpec{
			MinPeople:             p.MinPeople,
			MaxPeople:             p.MaxPeople,
			SpecificPeoplePresent: p.SpecificPeoplePresent,
			SpecificPeopleAbsent:  p.SpecificPeopleAbsent,
			RelationshipsPresent:  p.RelationshipsPresent,
		}
	}
	return rs
}

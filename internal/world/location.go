// Package world provides the location graph agents live on: named nodes
// with tags and weighted connections, occupancy tracking, the all-pairs
// distance matrix and the requirement filters action selection relies on.
package world

import (
	"fmt"
	"sort"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/social"
)

// Position is an optional 2D coordinate used for lookup and generated grids.
// It plays no part in path lengths.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Set is an unordered set of strings.
type Set map[string]struct{}

// NewSet builds a Set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// LocationNode is a vertex of the location graph.
type LocationNode struct {
	ID          int                // Dense index into the distance matrix, assigned by Graph.AddLocation
	Name        string             // Unique key
	Position    *Position          // Optional
	Tags        Set                //
	Connections map[string]float64 // Neighbor name → edge weight (directed)

	present Set // Agents currently here; never persisted
}

// NewLocation builds an unregistered node.
func NewLocation(name string, pos *Position, tags []string, connections map[string]float64) *LocationNode {
	conns := make(map[string]float64, len(connections))
	for k, v := range connections {
		conns[k] = v
	}
	return &LocationNode{
		ID:          -1,
		Name:        name,
		Position:    pos,
		Tags:        NewSet(tags...),
		Connections: conns,
		present:     make(Set),
	}
}

// HasAllOf is true iff every tag in tags is on the node.
func (n *LocationNode) HasAllOf(tags []string) bool {
	for _, t := range tags {
		if !n.Tags.Has(t) {
			return false
		}
	}
	return true
}

// HasOneOrMoreOf is true iff tags is empty or shares a tag with the node.
func (n *LocationNode) HasOneOrMoreOf(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Tags.Has(t) {
			return true
		}
	}
	return false
}

// HasNoneOf is true iff tags is empty or shares no tag with the node.
func (n *LocationNode) HasNoneOf(tags []string) bool {
	for _, t := range tags {
		if n.Tags.Has(t) {
			return false
		}
	}
	return true
}

// SatisfiesLocation applies all three tag constraints conjunctively.
func (n *LocationNode) SatisfiesLocation(req actions.LocationRequirement) bool {
	return n.HasAllOf(req.HasAllOf) && n.HasOneOrMoreOf(req.HasOneOrMoreOf) && n.HasNoneOf(req.HasNoneOf)
}

// SatisfiesPeople evaluates req against the node's occupants. When probe is
// non-empty and not already present it is counted as an occupant; the
// node's own occupancy is never modified.
func (n *LocationNode) SatisfiesPeople(req actions.PeopleRequirement, dir social.Directory, probe string) bool {
	occupants := n.present
	if probe != "" && !occupants.Has(probe) {
		occupants = make(Set, len(n.present)+1)
		for name := range n.present {
			occupants[name] = struct{}{}
		}
		occupants[probe] = struct{}{}
	}

	count := len(occupants)
	if count < req.MinPeople {
		return false
	}
	if req.MaxPeople > 0 && count > req.MaxPeople {
		return false
	}
	for _, name := range req.SpecificPeoplePresent {
		if !occupants.Has(name) {
			return false
		}
	}
	for _, name := range req.SpecificPeopleAbsent {
		if occupants.Has(name) {
			return false
		}
	}
	if len(req.RelationshipsPresent) == 0 {
		return true
	}
	if dir == nil {
		return false
	}
	here := social.TypesAmong(dir, occupants)
	for _, t := range req.RelationshipsPresent {
		if _, ok := here[t]; !ok {
			return false
		}
	}
	return true
}

// Occupants returns the names present at the node, sorted.
func (n *LocationNode) Occupants() []string {
	return n.present.Sorted()
}

// TagList returns the node's tags, sorted.
func (n *LocationNode) TagList() []string {
	return n.Tags.Sorted()
}

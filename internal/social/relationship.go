// Package social provides agent relationships and the lookup used to ask
// which relationship types are present among a group of co-located agents.
package social

import "sort"

// Relationship is a directed bond owned by its source agent.
// If Norma holds {Type: "sibling", With: "Quentin"} then Norma is Quentin's
// sibling; Quentin holds no reciprocal entry unless configured.
type Relationship struct {
	Type    string  `json:"type"`    // e.g. "student", "teacher", "sibling"
	With    string  `json:"with"`    // Target agent name
	Valence float64 `json:"valence"` // Strength of the bond
}

// Directory resolves an agent's outgoing relationships by name.
// Unknown names yield nil.
type Directory interface {
	RelationshipsOf(agent string) []Relationship
}

// TypesAmong returns the set of relationship types held by some member of
// group toward another member of group.
func TypesAmong(dir Directory, group map[string]struct{}) map[string]struct{} {
	types := make(map[string]struct{})
	for name := range group {
		for _, r := range dir.RelationshipsOf(name) {
			if r.With == name {
				continue
			}
			if _, ok := group[r.With]; ok {
				types[r.Type] = struct{}{}
			}
		}
	}
	return types
}

// SortedTypes returns the relationship types an agent holds, deduplicated.
func SortedTypes(rels []Relationship) []string {
	seen := make(map[string]struct{}, len(rels))
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		if _, ok := seen[r.Type]; ok {
			continue
		}
		seen[r.Type] = struct{}{}
		out = append(out, r.Type)
	}
	sort.Strings(out)
	return out
}

// Static is a Directory backed by a fixed map, for tests and generated worlds.
type Static map[string][]Relationship

// RelationshipsOf implements Directory.
func (s Static) RelationshipsOf(agent string) []Relationship {
	return s[agent]
}

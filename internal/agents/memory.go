// Agent memory: a short record of completed actions, oldest dropped first.
package agents

import "sort"

const MaxMemories = 50

// Memory records one completed action.
type Memory struct {
	Tick     uint64 `json:"tick"`
	Action   string `json:"action"`
	Location string `json:"location"`
}

// Remember appends a memory, dropping the oldest once MaxMemories is reached.
func Remember(a *Agent, tick uint64, action, location string) {
	m := Memory{Tick: tick, Action: action, Location: location}
	if len(a.Memories) >= MaxMemories {
		copy(a.Memories, a.Memories[1:])
		a.Memories = a.Memories[:len(a.Memories)-1]
	}
	a.Memories = append(a.Memories, m)
}

// RecentMemories returns the most recent N memories ordered by tick descending.
func RecentMemories(a *Agent, count int) []Memory {
	if len(a.Memories) == 0 {
		return nil
	}

	sorted := make([]Memory, len(a.Memories))
	copy(sorted, a.Memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tick > sorted[j].Tick
	})

	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// ActionCounts tallies remembered actions by name.
func ActionCounts(a *Agent) map[string]int {
	counts := make(map[string]int)
	for _, m := range a.Memories {
		counts[m.Action]++
	}
	return counts
}

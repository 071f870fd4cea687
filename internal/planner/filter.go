package planner

import "slices"

// CandidateFilter narrows a preference pool through three tiers of exclusions.
// Tier 1 (same meal) is mandatory; tiers 2 (same day) and 3 (earlier days)
// are dropped whenever they would leave nothing to choose from.
type CandidateFilter struct {
	AllowPotatoException bool
}

// Narrow returns the candidates of pool that survive the tiers. The result is
// never empty for a non-empty pool.
func (f CandidateFilter) Narrow(pool, sameMeal, sameDay, priorDays []string) []string {
	if len(pool) == 0 {
		return nil
	}

	tier1 := f.without(pool, sameMeal)
	if len(tier1) == 0 {
		// The hard invariant cannot hold; at least avoid the literal repeats.
		fallback := withoutValues(pool, sameMeal)
		if len(fallback) == 0 {
			return append([]string(nil), pool...)
		}
		return fallback
	}

	tier2 := f.without(tier1, sameDay)
	if len(tier2) == 0 {
		return tier1
	}

	tier3 := f.without(tier2, priorDays)
	if len(tier3) == 0 {
		return tier2
	}
	return tier3
}

// without drops every dish that shares a tag with an exclusion.
func (f CandidateFilter) without(pool, exclusions []string) []string {
	out := make([]string, 0, len(pool))
	for _, dish := range pool {
		if ConflictsWithAny(dish, exclusions, f.AllowPotatoException) {
			continue
		}
		out = append(out, dish)
	}
	return out
}

// withoutValues drops exact-string matches of values.
func withoutValues(pool []string, values []string) []string {
	out := make([]string, 0, len(pool))
	for _, dish := range pool {
		if slices.Contains(values, dish) {
			continue
		}
		out = append(out, dish)
	}
	return out
}

package planner

// Conflicts reports whether two dishes share an ingredient tag. With
// allowPotatoException the potato tag is ignored on both sides.
func Conflicts(a, b string, allowPotatoException bool) bool {
	tagsA := ExtractTags(a)
	if len(tagsA) == 0 {
		return false
	}
	for tag := range ExtractTags(b) {
		if allowPotatoException && tag == TagPotato {
			continue
		}
		if tagsA.Has(tag) {
			return true
		}
	}
	return false
}

// ConflictsWithAny reports whether dish conflicts with at least one entry of list.
func ConflictsWithAny(dish string, list []string, allowPotatoException bool) bool {
	for _, other := range list {
		if Conflicts(dish, other, allowPotatoException) {
			return true
		}
	}
	return false
}

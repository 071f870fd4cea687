package planner

// HistoryCapacity is how many recent values are remembered per component.
const HistoryCapacity = 3

// RegenerationHistory remembers the latest regenerated values of each
// component, oldest first. It lives beside the WeekMenu and survives a
// full-week generate.
type RegenerationHistory struct {
	Primary   []string `json:"primary"`
	Vegetable []string `json:"vegetable"`
}

// Recent returns the remembered values for a single component.
func (h RegenerationHistory) Recent(c Component) []string {
	switch c {
	case ComponentPrimary:
		return h.Primary
	case ComponentVegetable:
		return h.Vegetable
	}
	return nil
}

// Push appends value and trims the component's history to HistoryCapacity.
func (h *RegenerationHistory) Push(c Component, value string) {
	switch c {
	case ComponentPrimary:
		h.Primary = pushBounded(h.Primary, value)
	case ComponentVegetable:
		h.Vegetable = pushBounded(h.Vegetable, value)
	}
}

// Clear forgets everything.
func (h *RegenerationHistory) Clear() {
	h.Primary = nil
	h.Vegetable = nil
}

// IsEmpty reports whether nothing has been remembered yet.
func (h RegenerationHistory) IsEmpty() bool {
	return len(h.Primary) == 0 && len(h.Vegetable) == 0
}

func pushBounded(list []string, value string) []string {
	list = append(list, value)
	if len(list) > HistoryCapacity {
		list = append([]string(nil), list[len(list)-HistoryCapacity:]...)
	}
	return list
}

package planner

import (
	"fmt"
	"strings"
	"time"
)

// DaysInWeek is the fixed length of every WeekMenu.
const DaysInWeek = 7

// Staple is the constant last item of every lunch and dinner course.
const Staple = "Roti/Rice"

// Placeholder names used when a preference category is empty.
const (
	PlaceholderBreakfast = "Breakfast"
	PlaceholderPrimary   = "Dal"
	PlaceholderVegetable = "Vegetable"
)

var dayNames = [DaysInWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// MealKind identifies one of the three meals of a day.
type MealKind string

const (
	MealBreakfast MealKind = "breakfast"
	MealLunch     MealKind = "lunch"
	MealDinner    MealKind = "dinner"
)

// Component identifies which part of a lunch or dinner course is regenerated.
type Component string

const (
	ComponentPrimary   Component = "primary"
	ComponentVegetable Component = "vegetable"
	ComponentBoth      Component = "both"
)

// ParseMealKind validates a meal kind coming from user input.
func ParseMealKind(s string) (MealKind, error) {
	switch k := MealKind(strings.ToLower(strings.TrimSpace(s))); k {
	case MealBreakfast, MealLunch, MealDinner:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMealKind, s)
}

// ParseComponent validates a component coming from user input.
func ParseComponent(s string) (Component, error) {
	switch c := Component(strings.ToLower(strings.TrimSpace(s))); c {
	case ComponentPrimary, ComponentVegetable, ComponentBoth:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidComponent, s)
}

// Preferences is a read-only snapshot of the user's per-category dish lists.
type Preferences struct {
	Breakfast      []string `json:"breakfast"`
	ProteinLegumeA []string `json:"protein_legume_a"`
	ProteinLegumeB []string `json:"protein_legume_b,omitempty"`
	Vegetable      []string `json:"vegetable"`
}

// ProteinPool returns the union of both protein/legume lists, keeping first-seen order.
func (p Preferences) ProteinPool() []string {
	pool := make([]string, 0, len(p.ProteinLegumeA)+len(p.ProteinLegumeB))
	seen := make(map[string]struct{}, cap(pool))
	for _, list := range [][]string{p.ProteinLegumeA, p.ProteinLegumeB} {
		for _, dish := range list {
			if _, ok := seen[dish]; ok {
				continue
			}
			seen[dish] = struct{}{}
			pool = append(pool, dish)
		}
	}
	return pool
}

// Normalize trims every name and drops blanks and duplicates within each list.
func (p Preferences) Normalize() Preferences {
	return Preferences{
		Breakfast:      normalizeList(p.Breakfast),
		ProteinLegumeA: normalizeList(p.ProteinLegumeA),
		ProteinLegumeB: normalizeList(p.ProteinLegumeB),
		Vegetable:      normalizeList(p.Vegetable),
	}
}

func normalizeList(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Course is a lunch or dinner: primary dish, vegetable dish and the staple.
type Course [3]string

// NewCourse builds a course with the staple in last position.
func NewCourse(primary, vegetable string) Course {
	return Course{primary, vegetable, Staple}
}

func (c Course) Primary() string   { return c[0] }
func (c Course) Vegetable() string { return c[1] }

// Meal is one day of the plan.
type Meal struct {
	Breakfast string `json:"breakfast"`
	Lunch     Course `json:"lunch"`
	Dinner    Course `json:"dinner"`
}

// Dishes returns every selected dish of the day, staples excluded.
func (m Meal) Dishes() []string {
	dishes := make([]string, 0, 5)
	for _, d := range []string{m.Breakfast, m.Lunch[0], m.Lunch[1], m.Dinner[0], m.Dinner[1]} {
		if d != "" {
			dishes = append(dishes, d)
		}
	}
	return dishes
}

// Items returns everything served that day, staples included.
func (m Meal) Items() []string {
	items := []string{m.Breakfast}
	items = append(items, m.Lunch[:]...)
	return append(items, m.Dinner[:]...)
}

// WeekMenu holds seven meals indexed Monday(0) to Sunday(6).
type WeekMenu [DaysInWeek]Meal

// IsEmpty reports whether the week has never been generated.
func (w WeekMenu) IsEmpty() bool {
	return w == WeekMenu{}
}

// DayName returns the English weekday name for a canonical index.
func DayName(day int) string {
	if day < 0 || day >= DaysInWeek {
		return ""
	}
	return dayNames[day]
}

// ParseDay accepts either a canonical index ("0".."6") or a weekday name prefix ("mon", "Tuesday").
func ParseDay(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return int(s[0] - '0'), nil
	}
	if len(s) >= 3 {
		for i, name := range dayNames {
			if strings.HasPrefix(strings.ToLower(name), s) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// TodayIndex maps a date onto the Monday-first canonical index.
func TodayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % DaysInWeek
}

func validateDay(day int) error {
	if day < 0 || day >= DaysInWeek {
		return fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}
	return nil
}

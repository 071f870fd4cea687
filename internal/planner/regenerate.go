package planner

import "fmt"

// RegenerateMeal rebuilds one meal of week[day] in place. Earlier days act as
// prior-day history and the day's other meals stay fixed. Attempts that
// reproduce the existing meal are retried up to the engine's attempt limit,
// after which the last result is kept.
func (e *Engine) RegenerateMeal(week *WeekMenu, day int, kind MealKind, prefs Preferences) (Meal, error) {
	if err := validateDay(day); err != nil {
		return Meal{}, err
	}
	targets := slotsFor(kind)
	if targets == nil {
		return Meal{}, fmt.Errorf("%w: %q", ErrInvalidMealKind, kind)
	}
	prefs = prefs.Normalize()

	current := week[day]
	result := current
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		ctx := newGenerationContext(e.rnd, prefs, week[:day], day+attempt)
		result = e.assembleDay(ctx, current, targets)
		if result != current {
			break
		}
	}

	week[day] = result
	return result, nil
}

// RegenerateComponent replaces the primary dish, the vegetable dish, or both
// of a lunch or dinner course and records the new values in history.
func (e *Engine) RegenerateComponent(week *WeekMenu, history *RegenerationHistory, day int, kind MealKind, comp Component, prefs Preferences) (Course, error) {
	if err := validateDay(day); err != nil {
		return Course{}, err
	}
	if kind != MealLunch && kind != MealDinner {
		return Course{}, fmt.Errorf("%w: %q has no components", ErrInvalidMealKind, kind)
	}

	var components []Component
	switch comp {
	case ComponentPrimary, ComponentVegetable:
		components = []Component{comp}
	case ComponentBoth:
		components = []Component{ComponentPrimary, ComponentVegetable}
	default:
		return Course{}, fmt.Errorf("%w: %q", ErrInvalidComponent, comp)
	}
	if history == nil {
		history = &RegenerationHistory{}
	}
	prefs = prefs.Normalize()

	for _, c := range components {
		e.regenerateOne(week, history, day, kind, c, prefs)
	}
	return courseOf(week[day], kind), nil
}

func (e *Engine) regenerateOne(week *WeekMenu, history *RegenerationHistory, day int, kind MealKind, comp Component, prefs Preferences) {
	idx, pool, placeholder := 0, prefs.ProteinPool(), PlaceholderPrimary
	if comp == ComponentVegetable {
		idx, pool, placeholder = 1, prefs.Vegetable, PlaceholderVegetable
	}

	course := courseOf(week[day], kind)
	if course[2] == "" {
		course[2] = Staple
	}
	if len(pool) == 0 {
		course[idx] = placeholder
		setCourse(&week[day], kind, course)
		return
	}

	current, partner := course[idx], course[1-idx]

	candidates := withoutValues(pool, history.Recent(comp))
	if len(candidates) == 0 {
		candidates = pool
	}
	if narrowed := withoutValues(candidates, []string{current}); len(narrowed) > 0 {
		candidates = narrowed
	}
	if narrowed := e.filter.without(candidates, []string{partner}); len(narrowed) > 0 {
		candidates = narrowed
	}

	var previous string
	if day > 0 {
		previous = courseOf(week[day-1], kind)[idx]
	}
	mealOffset := 0
	if kind == MealDinner {
		mealOffset = 1
	}

	choice := historyBiasedPick(e.rnd, candidates, previous, day, mealOffset)
	course[idx] = choice
	setCourse(&week[day], kind, course)
	history.Push(comp, choice)
}

func courseOf(m Meal, kind MealKind) Course {
	if kind == MealDinner {
		return m.Dinner
	}
	return m.Lunch
}

func setCourse(m *Meal, kind MealKind, c Course) {
	if kind == MealDinner {
		m.Dinner = c
		return
	}
	m.Lunch = c
}

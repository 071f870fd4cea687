package planner

// slot is a selectable position within a day, in assembly order.
type slot int

const (
	slotBreakfast slot = iota
	slotLunchPrimary
	slotLunchVegetable
	slotDinnerPrimary
	slotDinnerVegetable
	slotCount
)

var allSlots = []slot{slotBreakfast, slotLunchPrimary, slotLunchVegetable, slotDinnerPrimary, slotDinnerVegetable}

func slotsFor(kind MealKind) []slot {
	switch kind {
	case MealBreakfast:
		return []slot{slotBreakfast}
	case MealLunch:
		return []slot{slotLunchPrimary, slotLunchVegetable}
	case MealDinner:
		return []slot{slotDinnerPrimary, slotDinnerVegetable}
	}
	return nil
}

func (s slot) placeholder() string {
	switch s {
	case slotBreakfast:
		return PlaceholderBreakfast
	case slotLunchPrimary, slotDinnerPrimary:
		return PlaceholderPrimary
	default:
		return PlaceholderVegetable
	}
}

// partner is the other component of the same course.
func (s slot) partner() (slot, bool) {
	switch s {
	case slotLunchPrimary:
		return slotLunchVegetable, true
	case slotLunchVegetable:
		return slotLunchPrimary, true
	case slotDinnerPrimary:
		return slotDinnerVegetable, true
	case slotDinnerVegetable:
		return slotDinnerPrimary, true
	}
	return 0, false
}

func (s slot) isCourse() bool {
	return s != slotBreakfast && s < slotCount
}

// dayValues is a day's selectable slots; staples are not part of it.
type dayValues [slotCount]string

func valuesOf(m Meal) dayValues {
	return dayValues{m.Breakfast, m.Lunch[0], m.Lunch[1], m.Dinner[0], m.Dinner[1]}
}

func (v dayValues) meal() Meal {
	return Meal{
		Breakfast: v[slotBreakfast],
		Lunch:     NewCourse(v[slotLunchPrimary], v[slotLunchVegetable]),
		Dinner:    NewCourse(v[slotDinnerPrimary], v[slotDinnerVegetable]),
	}
}

// exclusions returns the filled values that constrain s. Lunch and dinner
// dishes of a day are all kept tag-disjoint; breakfast only counts as
// same-day context.
func (v dayValues) exclusions(s slot, filled [slotCount]bool) (sameMeal, sameDay []string) {
	for other := slotBreakfast; other < slotCount; other++ {
		if other == s || !filled[other] || v[other] == "" {
			continue
		}
		sameDay = append(sameDay, v[other])
		if s.isCourse() && other.isCourse() {
			sameMeal = append(sameMeal, v[other])
		}
	}
	return sameMeal, sameDay
}

// GenerationContext is the state shared by the days of one assembly run.
type GenerationContext struct {
	prior   []Meal
	cursors [slotCount]int
	pools   [slotCount][]string
}

// newGenerationContext snapshots the pools and shuffles the dinner copies once.
// Every cursor starts at cursorStart.
func newGenerationContext(rnd RandomSource, prefs Preferences, prior []Meal, cursorStart int) *GenerationContext {
	protein := prefs.ProteinPool()
	ctx := &GenerationContext{prior: append([]Meal(nil), prior...)}
	ctx.pools[slotBreakfast] = prefs.Breakfast
	ctx.pools[slotLunchPrimary] = protein
	ctx.pools[slotLunchVegetable] = prefs.Vegetable
	ctx.pools[slotDinnerPrimary] = shuffled(rnd, protein)
	ctx.pools[slotDinnerVegetable] = shuffled(rnd, prefs.Vegetable)
	for i := range ctx.cursors {
		ctx.cursors[i] = cursorStart
	}
	return ctx
}

func (c *GenerationContext) priorDishes() []string {
	var dishes []string
	for _, m := range c.prior {
		dishes = append(dishes, m.Dishes()...)
	}
	return dishes
}

// assembleDay fills the targeted slots of base in assembly order; the other
// slots of base are kept and act as fixed context.
func (e *Engine) assembleDay(ctx *GenerationContext, base Meal, targets []slot) Meal {
	values := valuesOf(base)
	var filled [slotCount]bool
	for s := range filled {
		filled[s] = true
	}
	for _, s := range targets {
		filled[s] = false
	}

	prior := ctx.priorDishes()
	for _, s := range allSlots {
		if filled[s] {
			continue
		}
		sameMeal, sameDay := values.exclusions(s, filled)
		if len(e.filter.without(ctx.pools[s], sameMeal)) == 0 {
			// The day's courses cannot all stay apart; keep at least this course's pair apart.
			sameMeal = nil
			if p, ok := s.partner(); ok && filled[p] && values[p] != "" {
				sameMeal = []string{values[p]}
			}
		}
		candidates := e.filter.Narrow(ctx.pools[s], sameMeal, sameDay, prior)
		values[s] = roundRobin(e.rnd, candidates, &ctx.cursors[s], s.placeholder())
		filled[s] = true
	}
	return values.meal()
}

// assembleWeek builds seven days with one shared context.
func (e *Engine) assembleWeek(prefs Preferences) WeekMenu {
	var week WeekMenu
	ctx := newGenerationContext(e.rnd, prefs, nil, 0)
	for day := range week {
		week[day] = e.assembleDay(ctx, Meal{}, allSlots)
		ctx.prior = append(ctx.prior, week[day])
	}
	return week
}

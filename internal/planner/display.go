package planner

// DisplayDay is one row of the today-first presentation of a week.
type DisplayDay struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Meal  Meal   `json:"meal"`
}

// Rotate reorders a Monday-first week so that position 0 is today.
func Rotate(week WeekMenu, today int) WeekMenu {
	var out WeekMenu
	for i := range out {
		out[i] = week[(today+i)%DaysInWeek]
	}
	return out
}

// Unrotate is the inverse of Rotate.
func Unrotate(display WeekMenu, today int) WeekMenu {
	var out WeekMenu
	for i := range display {
		out[(today+i)%DaysInWeek] = display[i]
	}
	return out
}

// DisplayOrder lists the week starting at today with canonical indexes and day names.
func DisplayOrder(week WeekMenu, today int) []DisplayDay {
	days := make([]DisplayDay, 0, DaysInWeek)
	for i := 0; i < DaysInWeek; i++ {
		idx := (today + i) % DaysInWeek
		days = append(days, DisplayDay{Index: idx, Name: DayName(idx), Meal: week[idx]})
	}
	return days
}

// FixDisplayAdjacency rotates week to start at today and replaces any slot
// value that literally repeats the previous displayed day (the last and first
// displayed days count as adjacent), and any dinner item that repeats the
// same day's lunch. The result is returned in Monday-first order.
func (e *Engine) FixDisplayAdjacency(week WeekMenu, today int, prefs Preferences) WeekMenu {
	if today < 0 || today >= DaysInWeek {
		today = 0
	}
	prefs = prefs.Normalize()
	pools := [slotCount][]string{
		slotBreakfast:       prefs.Breakfast,
		slotLunchPrimary:    prefs.ProteinPool(),
		slotLunchVegetable:  prefs.Vegetable,
		slotDinnerPrimary:   prefs.ProteinPool(),
		slotDinnerVegetable: prefs.Vegetable,
	}

	display := Rotate(week, today)
	days := make([]dayValues, DaysInWeek)
	for i, m := range display {
		days[i] = valuesOf(m)
	}

	for pos := range days {
		for _, s := range []slot{slotDinnerPrimary, slotDinnerVegetable} {
			if v := days[pos][s]; v != "" && (v == days[pos][slotLunchPrimary] || v == days[pos][slotLunchVegetable]) {
				e.replaceForDisplay(days, pos, s, v, pools[s])
			}
		}
	}

	// Walk positions 1..6, then the wrap pair where position 0 follows 6.
	order := []int{1, 2, 3, 4, 5, 6, 0}
	for _, pos := range order {
		prev := (pos + DaysInWeek - 1) % DaysInWeek
		for _, s := range allSlots {
			v := days[pos][s]
			if v == "" || v != days[prev][s] {
				continue
			}
			e.replaceForDisplay(days, pos, s, v, pools[s])
		}
	}

	for i := range display {
		display[i] = days[i].meal()
	}
	return Unrotate(display, today)
}

// replaceForDisplay swaps days[pos][s] for another pool entry. Excluded
// outright are offending, the previous day's value, the dishes of the day's
// other course, and any entry that would add a tag clash with the day's other
// lunch and dinner dishes. The next day's value is avoided when the pool
// allows it. When nothing qualifies the slot is left as it is.
func (e *Engine) replaceForDisplay(days []dayValues, pos int, s slot, offending string, pool []string) {
	prev := days[(pos+DaysInWeek-1)%DaysInWeek][s]
	next := days[(pos+1)%DaysInWeek][s]

	excluded := []string{offending, prev}
	switch s {
	case slotLunchPrimary, slotLunchVegetable:
		excluded = append(excluded, days[pos][slotDinnerPrimary], days[pos][slotDinnerVegetable])
	case slotDinnerPrimary, slotDinnerVegetable:
		excluded = append(excluded, days[pos][slotLunchPrimary], days[pos][slotLunchVegetable])
	}
	candidates := withoutValues(pool, excluded)
	if s.isCourse() {
		for other := slotLunchPrimary; other < slotCount; other++ {
			dish := days[pos][other]
			if other == s || Conflicts(offending, dish, e.filter.AllowPotatoException) {
				continue
			}
			candidates = e.filter.without(candidates, []string{dish})
		}
	}
	if len(candidates) == 0 {
		return
	}
	if narrowed := withoutValues(candidates, []string{next}); len(narrowed) > 0 {
		candidates = narrowed
	}

	days[pos][s] = candidates[e.rnd.Intn(len(candidates))]
}

package planner

import "testing"

func weekOf(build func(day int) Meal) WeekMenu {
	var w WeekMenu
	for d := range w {
		w[d] = build(d)
	}
	return w
}

func TestRotateRoundTrip(t *testing.T) {
	week := weekOf(func(d int) Meal { return Meal{Breakfast: DayName(d)} })
	for today := 0; today < DaysInWeek; today++ {
		display := Rotate(week, today)
		if display[0].Breakfast != DayName(today) {
			t.Errorf("Expected %s first, got %s", DayName(today), display[0].Breakfast)
		}
		if display[DaysInWeek-1].Breakfast != DayName((today+6)%DaysInWeek) {
			t.Errorf("Expected the day before %s last, got %s", DayName(today), display[6].Breakfast)
		}
		if Unrotate(display, today) != week {
			t.Errorf("Expected Unrotate to restore the week for today=%d", today)
		}
	}
}

func TestDisplayOrder(t *testing.T) {
	week := weekOf(func(d int) Meal { return Meal{Breakfast: DayName(d)} })
	days := DisplayOrder(week, 5)
	if len(days) != DaysInWeek {
		t.Fatalf("Expected 7 days, got %d", len(days))
	}
	wantIdx := []int{5, 6, 0, 1, 2, 3, 4}
	for i, d := range days {
		if d.Index != wantIdx[i] || d.Name != DayName(wantIdx[i]) || d.Meal.Breakfast != DayName(wantIdx[i]) {
			t.Errorf("Unexpected display day %d: %+v", i, d)
		}
	}
}

func assertNoAdjacentBreakfast(t *testing.T, week WeekMenu, today int) {
	t.Helper()
	display := Rotate(week, today)
	for i := range display {
		next := (i + 1) % DaysInWeek
		if display[i].Breakfast == display[next].Breakfast {
			t.Errorf("today=%d: displayed days %d and %d both have breakfast %q", today, i, next, display[i].Breakfast)
		}
	}
}

func TestGenerateHasNoAdjacentBreakfastRepeats(t *testing.T) {
	prefs := Preferences{
		Breakfast:      []string{"Poha", "Upma", "Idli"},
		ProteinLegumeA: []string{"Moong Dal", "Rajma"},
		Vegetable:      []string{"Lauki", "Bhindi Fry"},
	}
	for today := 0; today < DaysInWeek; today++ {
		for seed := int64(1); seed <= 20; seed++ {
			engine := NewEngine(WithRandomSource(NewRandomSource(seed)), WithClock(clockAt(today)))
			assertNoAdjacentBreakfast(t, engine.Generate(prefs), today)
		}
	}
}

func TestFixDisplayAdjacency(t *testing.T) {
	prefs := Preferences{
		Breakfast:      []string{"Poha", "Upma", "Idli"},
		ProteinLegumeA: []string{"Moong Dal", "Masoor Dal", "Toor Dal", "Urad Dal"},
		Vegetable:      []string{"Lauki", "Bhindi Fry", "Tinda"},
	}
	same := NewCourse("Moong Dal", "Lauki")
	week := weekOf(func(int) Meal { return Meal{Breakfast: "Poha", Lunch: same, Dinner: same} })

	for today := 0; today < DaysInWeek; today++ {
		engine := NewEngine(WithRandomSource(NewRandomSource(int64(today + 1))))
		fixed := engine.FixDisplayAdjacency(week, today, prefs)

		assertNoAdjacentBreakfast(t, fixed, today)
		for day, meal := range fixed {
			if meal.Dinner[0] == meal.Lunch[0] || meal.Dinner[0] == meal.Lunch[1] ||
				meal.Dinner[1] == meal.Lunch[0] || meal.Dinner[1] == meal.Lunch[1] {
				t.Errorf("today=%d: expected dinner to differ from lunch on day %d, got %v / %v", today, day, meal.Lunch, meal.Dinner)
			}
			if meal.Lunch[2] != Staple || meal.Dinner[2] != Staple {
				t.Errorf("Expected staples to survive on day %d", day)
			}
		}
		display := Rotate(fixed, today)
		for i := range display {
			next := (i + 1) % DaysInWeek
			if display[i].Lunch[0] == display[next].Lunch[0] {
				t.Errorf("today=%d: displayed days %d and %d share lunch %q", today, i, next, display[i].Lunch[0])
			}
		}
	}
}

func TestFixDisplayAdjacencyLeavesPlaceholders(t *testing.T) {
	placeholder := Meal{
		Breakfast: PlaceholderBreakfast,
		Lunch:     NewCourse(PlaceholderPrimary, PlaceholderVegetable),
		Dinner:    NewCourse(PlaceholderPrimary, PlaceholderVegetable),
	}
	week := weekOf(func(int) Meal { return placeholder })

	fixed := NewEngine().FixDisplayAdjacency(week, 2, Preferences{})
	if fixed != week {
		t.Errorf("Expected placeholders to be left alone, got %+v", fixed)
	}
}

func TestFixDisplayAdjacencySinglePoolEntry(t *testing.T) {
	prefs := Preferences{Breakfast: []string{"Poha"}}
	week := weekOf(func(int) Meal { return Meal{Breakfast: "Poha"} })

	fixed := NewEngine().FixDisplayAdjacency(week, 0, prefs)
	for day, meal := range fixed {
		if meal.Breakfast != "Poha" {
			t.Errorf("Expected 'Poha' to stay on day %d, got %q", day, meal.Breakfast)
		}
	}
}

func TestFixDisplayAdjacencyKeepsTagsApart(t *testing.T) {
	prefs := Preferences{
		ProteinLegumeA: []string{"Paneer Tikka"},
		Vegetable:      []string{"Bhindi Fry", "Palak Paneer"},
	}
	course := NewCourse("Paneer Tikka", "Bhindi Fry")
	week := weekOf(func(int) Meal { return Meal{Breakfast: "Poha", Lunch: course, Dinner: course} })

	fixed := NewEngine().FixDisplayAdjacency(week, 3, prefs)
	for day, meal := range fixed {
		if meal.Lunch[1] != "Bhindi Fry" || meal.Dinner[1] != "Bhindi Fry" {
			t.Errorf("Expected the only disjoint vegetable to stay on day %d, got %v / %v", day, meal.Lunch, meal.Dinner)
		}
	}
}

func TestFixDisplayAdjacencyKeepsRepeatOverTagClash(t *testing.T) {
	lunch := NewCourse("Rajma", "Palak Paneer")
	week := weekOf(func(int) Meal { return Meal{Breakfast: "Poha", Lunch: lunch, Dinner: lunch} })

	t.Run("OnlyClashingAlternative", func(t *testing.T) {
		prefs := Preferences{
			ProteinLegumeA: []string{"Rajma", "Paneer Tikka"},
			Vegetable:      []string{"Palak Paneer"},
		}
		fixed := NewEngine().FixDisplayAdjacency(week, 0, prefs)
		if fixed != week {
			t.Errorf("Expected the repeat to stay rather than add a paneer clash, got %+v", fixed)
		}
	})

	t.Run("DisjointAlternative", func(t *testing.T) {
		prefs := Preferences{
			ProteinLegumeA: []string{"Rajma", "Paneer Tikka", "Moong Dal"},
			Vegetable:      []string{"Palak Paneer"},
		}
		fixed := NewEngine().FixDisplayAdjacency(week, 0, prefs)
		for day, meal := range fixed {
			if meal.Dinner.Primary() != "Moong Dal" {
				t.Errorf("Expected dinner on day %d to switch to 'Moong Dal', got %v", day, meal.Dinner)
			}
			if meal.Lunch != lunch {
				t.Errorf("Expected lunch on day %d to stay, got %v", day, meal.Lunch)
			}
		}
	})
}

package planner

import (
	"errors"
	"slices"
	"testing"
)

func TestRegenerateMealValidation(t *testing.T) {
	engine := NewEngine()
	var week WeekMenu

	if _, err := engine.RegenerateMeal(&week, 7, MealLunch, Preferences{}); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("Expected ErrInvalidDay, got %v", err)
	}
	if _, err := engine.RegenerateMeal(&week, -1, MealLunch, Preferences{}); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("Expected ErrInvalidDay, got %v", err)
	}
	if _, err := engine.RegenerateMeal(&week, 0, MealKind("brunch"), Preferences{}); !errors.Is(err, ErrInvalidMealKind) {
		t.Errorf("Expected ErrInvalidMealKind, got %v", err)
	}
}

func TestRegenerateMealBreakfast(t *testing.T) {
	engine := NewEngine(WithRandomSource(&scriptedSource{fallbackFloat: 0.5}))
	prefs := Preferences{Breakfast: []string{"Poha", "Upma", "Idli"}}
	week := weekOf(func(d int) Meal {
		return Meal{Breakfast: "Poha", Lunch: NewCourse("Moong Dal", "Lauki"), Dinner: NewCourse("Rajma", "Tinda")}
	})
	before := week

	meal, err := engine.RegenerateMeal(&week, 2, MealBreakfast, prefs)
	if err != nil {
		t.Fatalf("RegenerateMeal failed: %v", err)
	}

	// Cursors start at the day index, so day 2 lands on the third entry.
	if meal.Breakfast != "Idli" {
		t.Errorf("Expected 'Idli', got %q", meal.Breakfast)
	}
	if week[2] != meal {
		t.Errorf("Expected the week to hold the regenerated meal, got %+v", week[2])
	}
	if meal.Lunch != before[2].Lunch || meal.Dinner != before[2].Dinner {
		t.Errorf("Expected lunch and dinner to stay, got %+v", meal)
	}
	for d := range week {
		if d != 2 && week[d] != before[d] {
			t.Errorf("Expected day %d to be untouched", d)
		}
	}
}

func TestRegenerateMealDinnerRespectsLunch(t *testing.T) {
	engine := NewEngine(WithRandomSource(&scriptedSource{fallbackFloat: 0.5}))
	prefs := Preferences{
		ProteinLegumeA: []string{"Chana Dal", "Rajma", "Moong Dal"},
		Vegetable:      []string{"Bhindi Fry", "Lauki", "Palak"},
	}
	var week WeekMenu
	week[1] = Meal{Breakfast: "Poha", Lunch: NewCourse("Chana Dal", "Bhindi Fry"), Dinner: NewCourse("Rajma", "Lauki")}

	meal, err := engine.RegenerateMeal(&week, 1, MealDinner, prefs)
	if err != nil {
		t.Fatalf("RegenerateMeal failed: %v", err)
	}

	want := NewCourse("Moong Dal", "Palak")
	if meal.Dinner != want {
		t.Errorf("Expected dinner %v, got %v", want, meal.Dinner)
	}
	if meal.Lunch != NewCourse("Chana Dal", "Bhindi Fry") || meal.Breakfast != "Poha" {
		t.Errorf("Expected breakfast and lunch to stay, got %+v", meal)
	}
}

func TestRegenerateMealAcceptsRepeatAfterAttempts(t *testing.T) {
	rnd := &scriptedSource{fallbackFloat: 0.5}
	engine := NewEngine(WithRandomSource(rnd), WithMaxAttempts(3))
	prefs := Preferences{Breakfast: []string{"Poha"}}
	week := weekOf(func(d int) Meal {
		return Meal{Breakfast: "Poha", Lunch: NewCourse("Moong Dal", "Lauki"), Dinner: NewCourse("Rajma", "Tinda")}
	})

	meal, err := engine.RegenerateMeal(&week, 0, MealBreakfast, prefs)
	if err != nil {
		t.Fatalf("Expected a repeat to be tolerated, got %v", err)
	}
	if meal.Breakfast != "Poha" {
		t.Errorf("Expected 'Poha', got %q", meal.Breakfast)
	}
	if rnd.floatCalls != 3 {
		t.Errorf("Expected 3 attempts, got %d", rnd.floatCalls)
	}
}

func TestRegenerateMealKeepsCoursesTagDisjoint(t *testing.T) {
	prefs := richPreferences()
	for seed := int64(1); seed <= 30; seed++ {
		engine := NewEngine(WithRandomSource(NewRandomSource(seed)))
		week := engine.Generate(prefs)
		for _, kind := range []MealKind{MealLunch, MealDinner} {
			meal, err := engine.RegenerateMeal(&week, int(seed)%DaysInWeek, kind, prefs)
			if err != nil {
				t.Fatalf("RegenerateMeal failed: %v", err)
			}
			c := courseOf(meal, kind)
			if Conflicts(c[0], c[1], false) {
				t.Errorf("Expected %v not to share a tag", c)
			}
			if c[2] != Staple {
				t.Errorf("Expected staple last, got %v", c)
			}
		}
	}
}

func TestRegenerateComponentValidation(t *testing.T) {
	engine := NewEngine()
	var (
		week    WeekMenu
		history RegenerationHistory
	)

	if _, err := engine.RegenerateComponent(&week, &history, 0, MealBreakfast, ComponentPrimary, Preferences{}); !errors.Is(err, ErrInvalidMealKind) {
		t.Errorf("Expected ErrInvalidMealKind, got %v", err)
	}
	if _, err := engine.RegenerateComponent(&week, &history, 0, MealLunch, Component("staple"), Preferences{}); !errors.Is(err, ErrInvalidComponent) {
		t.Errorf("Expected ErrInvalidComponent, got %v", err)
	}
	if _, err := engine.RegenerateComponent(&week, &history, 9, MealLunch, ComponentPrimary, Preferences{}); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("Expected ErrInvalidDay, got %v", err)
	}
}

func TestRegenerateComponentAvoidsRecentValues(t *testing.T) {
	prefs := Preferences{
		ProteinLegumeA: []string{"Moong Dal"},
		Vegetable:      []string{"Bhindi Fry", "Lauki", "Tinda", "Karela", "Baingan Bharta"},
	}

	for seed := int64(1); seed <= 25; seed++ {
		engine := NewEngine(WithRandomSource(NewRandomSource(seed)))
		var (
			week    WeekMenu
			history RegenerationHistory
		)
		week[1].Lunch = NewCourse("Moong Dal", "Tinda")
		week[2].Lunch = NewCourse("Moong Dal", "Bhindi Fry")

		var seen []string
		for i := 0; i < 10; i++ {
			course, err := engine.RegenerateComponent(&week, &history, 2, MealLunch, ComponentVegetable, prefs)
			if err != nil {
				t.Fatalf("RegenerateComponent failed: %v", err)
			}
			value := course[1]
			if i == 0 && value == "Bhindi Fry" {
				t.Fatalf("seed %d: expected the current value to be replaced", seed)
			}
			recent := seen[max(0, len(seen)-HistoryCapacity):]
			if slices.Contains(recent, value) {
				t.Fatalf("seed %d call %d: %q repeats one of %v", seed, i, value, recent)
			}
			if course[0] != "Moong Dal" || course[2] != Staple {
				t.Errorf("Expected the rest of the course to stay, got %v", course)
			}
			seen = append(seen, value)
		}

		distinct := map[string]bool{}
		for _, v := range seen {
			distinct[v] = true
		}
		if len(distinct) < 2 {
			t.Errorf("seed %d: expected at least 2 distinct values, got %v", seed, seen)
		}
		if len(history.Vegetable) != HistoryCapacity || len(history.Primary) != 0 {
			t.Errorf("Expected a full vegetable history only, got %+v", history)
		}
		if history.Vegetable[HistoryCapacity-1] != seen[len(seen)-1] {
			t.Errorf("Expected the newest value last in history, got %v", history.Vegetable)
		}
	}
}

func TestRegenerateComponentAvoidsPartnerConflict(t *testing.T) {
	prefs := Preferences{
		ProteinLegumeA: []string{"Paneer Tikka"},
		Vegetable:      []string{"Palak Paneer", "Bhindi Fry", "Lauki"},
	}
	for seed := int64(1); seed <= 10; seed++ {
		engine := NewEngine(WithRandomSource(NewRandomSource(seed)))
		var week WeekMenu
		week[0].Dinner = NewCourse("Paneer Tikka", "Lauki")

		course, err := engine.RegenerateComponent(&week, &RegenerationHistory{}, 0, MealDinner, ComponentVegetable, prefs)
		if err != nil {
			t.Fatalf("RegenerateComponent failed: %v", err)
		}
		if course[1] != "Bhindi Fry" {
			t.Errorf("Expected 'Bhindi Fry', got %q", course[1])
		}
	}
}

func TestRegenerateComponentSelection(t *testing.T) {
	prefs := Preferences{
		ProteinLegumeA: []string{"Chana Dal", "Rajma", "Moong Dal", "Masoor Dal"},
		Vegetable:      []string{"Lauki"},
	}
	newWeek := func() WeekMenu {
		var w WeekMenu
		w[1].Dinner = NewCourse("Masoor Dal", "Lauki")
		w[2].Dinner = NewCourse("Chana Dal", "Lauki")
		return w
	}

	t.Run("systematic pick uses day and meal offset", func(t *testing.T) {
		engine := NewEngine(WithRandomSource(&scriptedSource{floats: []float64{0.5, 0.9}}))
		week := newWeek()
		history := RegenerationHistory{Primary: []string{"Rajma"}}

		course, err := engine.RegenerateComponent(&week, &history, 2, MealDinner, ComponentPrimary, prefs)
		if err != nil {
			t.Fatalf("RegenerateComponent failed: %v", err)
		}
		// candidates [Moong Dal, Masoor Dal]; (2 + 1) mod 2 = 1
		if course[0] != "Masoor Dal" {
			t.Errorf("Expected 'Masoor Dal', got %q", course[0])
		}
		if !slices.Equal(history.Primary, []string{"Rajma", "Masoor Dal"}) {
			t.Errorf("Unexpected history %v", history.Primary)
		}
	})

	t.Run("continuity keeps the previous day's value", func(t *testing.T) {
		engine := NewEngine(WithRandomSource(&scriptedSource{floats: []float64{0.01}}))
		week := newWeek()

		course, err := engine.RegenerateComponent(&week, &RegenerationHistory{}, 2, MealDinner, ComponentPrimary, prefs)
		if err != nil {
			t.Fatalf("RegenerateComponent failed: %v", err)
		}
		if course[0] != "Masoor Dal" {
			t.Errorf("Expected yesterday's 'Masoor Dal', got %q", course[0])
		}
	})

	t.Run("random pick", func(t *testing.T) {
		engine := NewEngine(WithRandomSource(&scriptedSource{floats: []float64{0.5, 0.2}, ints: []int{0}}))
		week := newWeek()

		course, err := engine.RegenerateComponent(&week, &RegenerationHistory{}, 2, MealDinner, ComponentPrimary, prefs)
		if err != nil {
			t.Fatalf("RegenerateComponent failed: %v", err)
		}
		if course[0] != "Rajma" {
			t.Errorf("Expected 'Rajma', got %q", course[0])
		}
	})

	t.Run("history exhausting the pool falls back to the pool", func(t *testing.T) {
		engine := NewEngine(WithRandomSource(&scriptedSource{fallbackFloat: 0.9}))
		week := newWeek()
		history := RegenerationHistory{Vegetable: []string{"Lauki"}}
		vegPrefs := Preferences{ProteinLegumeA: prefs.ProteinLegumeA, Vegetable: []string{"Lauki", "Tinda"}}

		course, err := engine.RegenerateComponent(&week, &history, 2, MealDinner, ComponentVegetable, vegPrefs)
		if err != nil {
			t.Fatalf("RegenerateComponent failed: %v", err)
		}
		if course[1] != "Tinda" {
			t.Errorf("Expected 'Tinda', got %q", course[1])
		}

		course, err = engine.RegenerateComponent(&week, &history, 2, MealDinner, ComponentVegetable, vegPrefs)
		if err != nil {
			t.Fatalf("RegenerateComponent failed: %v", err)
		}
		if course[1] != "Lauki" {
			t.Errorf("Expected the pool to be reused once history covers it, got %q", course[1])
		}
	})
}

func TestRegenerateComponentBoth(t *testing.T) {
	engine := NewEngine(WithRandomSource(&scriptedSource{fallbackFloat: 0.9}))
	prefs := Preferences{
		ProteinLegumeA: []string{"Chana Dal", "Moong Dal"},
		Vegetable:      []string{"Bhindi Fry", "Lauki"},
	}
	var (
		week    WeekMenu
		history RegenerationHistory
	)
	week[0].Lunch = NewCourse("Chana Dal", "Bhindi Fry")

	course, err := engine.RegenerateComponent(&week, &history, 0, MealLunch, ComponentBoth, prefs)
	if err != nil {
		t.Fatalf("RegenerateComponent failed: %v", err)
	}
	want := NewCourse("Moong Dal", "Lauki")
	if course != want || week[0].Lunch != want {
		t.Errorf("Expected %v, got %v", want, course)
	}
	if !slices.Equal(history.Primary, []string{"Moong Dal"}) || !slices.Equal(history.Vegetable, []string{"Lauki"}) {
		t.Errorf("Expected one history entry per component, got %+v", history)
	}
}

func TestRegenerateComponentEmptyPool(t *testing.T) {
	engine := NewEngine()
	var (
		week    WeekMenu
		history RegenerationHistory
	)
	week[3].Dinner = NewCourse("Rajma", "Bhindi Fry")

	course, err := engine.RegenerateComponent(&week, &history, 3, MealDinner, ComponentBoth, Preferences{})
	if err != nil {
		t.Fatalf("RegenerateComponent failed: %v", err)
	}
	want := NewCourse(PlaceholderPrimary, PlaceholderVegetable)
	if course != want {
		t.Errorf("Expected %v, got %v", want, course)
	}
	if !history.IsEmpty() {
		t.Errorf("Expected history to stay empty, got %+v", history)
	}
}

func TestRegenerateComponentNilHistory(t *testing.T) {
	engine := NewEngine()
	var week WeekMenu
	week[0].Lunch = NewCourse("Rajma", "Lauki")
	prefs := Preferences{ProteinLegumeA: []string{"Rajma", "Moong Dal"}, Vegetable: []string{"Lauki"}}

	course, err := engine.RegenerateComponent(&week, nil, 0, MealLunch, ComponentPrimary, prefs)
	if err != nil {
		t.Fatalf("RegenerateComponent failed: %v", err)
	}
	if course[0] != "Moong Dal" {
		t.Errorf("Expected 'Moong Dal', got %q", course[0])
	}
}

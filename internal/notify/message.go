// Package notify builds and delivers the daily "tomorrow's menu" reminder.
package notify

import (
	"fmt"
	"strings"
	"time"

	"menu-planner/internal/planner"
)

// Message is a reminder ready to be stored or sent.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

const (
	titleTomorrow = "Check out your next meals"
	titleNoMenu   = "Plan tomorrow's meals"
	bodyNoMenu    = "Set preferences and generate your menu to get reminders."
)

// TomorrowIndex is the canonical index of the day after now.
func TomorrowIndex(now time.Time) int {
	return planner.TodayIndex(now.AddDate(0, 0, 1))
}

// FormatTomorrow describes tomorrow's meals. A week that was never
// generated yields a prompt to plan instead.
func FormatTomorrow(week planner.WeekMenu, now time.Time) Message {
	if week.IsEmpty() {
		return Message{Title: titleNoMenu, Body: bodyNoMenu}
	}
	meal := week[TomorrowIndex(now)]
	return Message{
		Title: titleTomorrow,
		Body: fmt.Sprintf("Tomorrow: Breakfast - %s; Lunch - %s; Dinner - %s",
			meal.Breakfast, strings.Join(meal.Lunch[:], ", "), strings.Join(meal.Dinner[:], ", ")),
	}
}

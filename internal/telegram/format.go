package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-planner/internal/metrics"
	"menu-planner/internal/planner"
)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatCourse(c planner.Course) string {
	items := make([]string, 0, len(c))
	for _, item := range c {
		if item != "" {
			items = append(items, escape(item))
		}
	}
	return strings.Join(items, ", ")
}

func formatDay(d planner.DisplayDay) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n", d.Name))
	sb.WriteString(fmt.Sprintf("🍳 Breakfast: %s\n", escape(d.Meal.Breakfast)))
	sb.WriteString(fmt.Sprintf("🍛 Lunch: %s\n", formatCourse(d.Meal.Lunch)))
	sb.WriteString(fmt.Sprintf("🍲 Dinner: %s\n", formatCourse(d.Meal.Dinner)))
	return sb.String()
}

func formatWeek(days []planner.DisplayDay) string {
	var sb strings.Builder
	sb.WriteString("📅 *Weekly Menu*\n\n")
	for i, d := range days {
		if i == 0 {
			d.Name += " (today)"
		}
		sb.WriteString(formatDay(d))
		sb.WriteString("\n")
	}
	return sb.String()
}

func regenData(day int, kind planner.MealKind, comp string) string {
	return fmt.Sprintf("regen|%d|%s|%s", day, kind, comp)
}

// dayKeyboard offers whole-meal and single-dish swaps for one day.
func dayKeyboard(day int) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Breakfast", regenData(day, planner.MealBreakfast, "-")),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Lunch", regenData(day, planner.MealLunch, "-")),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Dinner", regenData(day, planner.MealDinner, "-")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🥘 Lunch dal", regenData(day, planner.MealLunch, string(planner.ComponentPrimary))),
			tgbotapi.NewInlineKeyboardButtonData("🥦 Lunch veg", regenData(day, planner.MealLunch, string(planner.ComponentVegetable))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🥘 Dinner dal", regenData(day, planner.MealDinner, string(planner.ComponentPrimary))),
			tgbotapi.NewInlineKeyboardButtonData("🥦 Dinner veg", regenData(day, planner.MealDinner, string(planner.ComponentVegetable))),
		),
	)
	return &kb
}

func formatUsageReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s* %s: %d calls, %d busy, %d errors, avg %.0fms\n",
			d.Date, escape(d.Operation), d.Total, d.Busy, d.Errors, d.AvgLatencyMS))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

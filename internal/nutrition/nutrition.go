// Package nutrition gives rough per-100g nutrition estimates for menu items.
// The figures are indicative only and are never used to validate a menu.
package nutrition

import (
	"fmt"
	"math"
	"strings"
)

// Nutrition holds calories in kcal and macronutrients in grams.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n Nutrition) add(o Nutrition) Nutrition {
	return Nutrition{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// Approximate values per 100g, cooked where applicable.
var table = map[string]Nutrition{
	"Aloo Paratha": {300, 7, 45, 10},
	"Poha":         {130, 2.6, 24, 2.2},
	"Daliya":       {83, 3.5, 18, 0.2},
	"Upma":         {130, 3, 20, 4},
	"Masala Dosa":  {180, 4, 30, 5},
	"Idli":         {146, 5, 29, 0.8},
	"Veg Sandwich": {250, 8, 30, 9},
	"Cornflakes":   {357, 7.5, 84, 0.4},

	"Moong Dal":        {105, 7, 19, 0.8},
	"Masoor Dal":       {116, 9, 20, 0.4},
	"Chana Dal":        {129, 8.9, 22.5, 2.6},
	"Rajma":            {127, 8.7, 22.8, 0.5},
	"Chhole":           {164, 8.9, 27.4, 2.6},
	"Toor (Arhar) Dal": {121, 7.2, 20.6, 1.7},
	"Urad Dal":         {116, 8.3, 20, 0.6},

	"Beans":                {35, 2, 7, 0.2},
	"Broccoli":             {55, 3.7, 11, 0.6},
	"Peas":                 {81, 5.4, 14, 0.4},
	"Bottle Gourd (Lauki)": {14, 0.6, 3.4, 0.1},
	"Capsicum":             {31, 1, 6, 0.3},
	"Mushroom":             {22, 3.1, 3.3, 0.3},
	"Potato":               {87, 2, 20, 0.1},
	"Paneer":               {265, 18, 8, 20},

	"Roti/Rice": {130, 2.7, 28, 0.3},
}

// Keyword fallbacks, checked in order against the lowercased item name.
var fallbacks = []struct {
	keywords []string
	entry    string
}{
	{[]string{"dal", "rajma", "chhole"}, "Chana Dal"},
	{[]string{"paratha"}, "Aloo Paratha"},
	{[]string{"roti", "rice"}, "Roti/Rice"},
	{[]string{"peas"}, "Peas"},
	{[]string{"broccoli"}, "Broccoli"},
	{[]string{"beans"}, "Beans"},
	{[]string{"capsicum"}, "Capsicum"},
	{[]string{"mushroom"}, "Mushroom"},
	{[]string{"lauki", "bottle gourd"}, "Bottle Gourd (Lauki)"},
	{[]string{"cornflake"}, "Cornflakes"},
}

// Lookup finds an item by exact name, then by keyword.
func Lookup(item string) (Nutrition, bool) {
	if n, ok := table[item]; ok {
		return n, true
	}
	lowered := strings.ToLower(item)
	for _, f := range fallbacks {
		for _, kw := range f.keywords {
			if strings.Contains(lowered, kw) {
				return table[f.entry], true
			}
		}
	}
	return Nutrition{}, false
}

// Sum adds up every known item and silently skips the rest.
func Sum(items []string) Nutrition {
	total, _ := SumWithUnknown(items)
	return total
}

// SumWithUnknown adds up every known item and lists the ones without data.
// Blank items are ignored.
func SumWithUnknown(items []string) (total Nutrition, unknown []string) {
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		n, ok := Lookup(item)
		if !ok {
			unknown = append(unknown, item)
			continue
		}
		total = total.add(n)
	}
	return total, unknown
}

// Format renders a total with values rounded to whole units.
func Format(n Nutrition) string {
	return fmt.Sprintf("%d kcal • Protein %dg • Carbs %dg • Fat %dg per 100g",
		round(n.Calories), round(n.Protein), round(n.Carbs), round(n.Fat))
}

// FormatSummary is Format followed by the items that had no data, if any.
func FormatSummary(total Nutrition, unknown []string) string {
	base := Format(total)
	if len(unknown) == 0 {
		return base
	}
	return base + " • Missing data for: " + strings.Join(unknown, ", ")
}

func round(v float64) int {
	return int(math.Round(v))
}

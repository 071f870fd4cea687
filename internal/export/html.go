// Package export renders a week as a printable HTML page.
package export

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"menu-planner/internal/nutrition"
	"menu-planner/internal/planner"
)

var pageTemplate = template.Must(template.New("week").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; color: #1f2937; }
h1 { text-align: center; font-size: 24px; }
table { width: 100%; border-collapse: collapse; font-size: 12px; }
th, td { border: 1px solid #d1d5db; padding: 10px 8px; vertical-align: top; }
th.breakfast { background: #fef2f2; color: #991b1b; }
th.lunch { background: #fffbeb; color: #92400e; }
th.dinner { background: #f3e8ff; color: #6b21a8; }
tr.today td.day { font-weight: bold; }
td.nutrition { color: #6b7280; font-size: 11px; }
footer { margin-top: 16px; font-size: 10px; color: #9ca3af; text-align: center; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table id="menu">
<thead>
<tr><th>Day</th><th class="breakfast">Breakfast</th><th class="lunch">Lunch</th><th class="dinner">Dinner</th>{{if .WithNutrition}}<th>Nutrition</th>{{end}}</tr>
</thead>
<tbody>
{{range $i, $d := .Rows}}<tr data-day="{{$d.Index}}"{{if eq $i 0}} class="today"{{end}}>
<td class="day">{{$d.Name}}</td>
<td class="breakfast">{{$d.Breakfast}}</td>
<td class="lunch">{{$d.Lunch}}</td>
<td class="dinner">{{$d.Dinner}}</td>
{{if $.WithNutrition}}<td class="nutrition">{{$d.Nutrition}}</td>{{end}}
</tr>
{{end}}</tbody>
</table>
<footer>Generated {{.Generated}}</footer>
</body>
</html>
`))

// Options controls the rendered page.
type Options struct {
	OwnerName     string
	WithNutrition bool
	Now           time.Time
}

type row struct {
	Index     int
	Name      string
	Breakfast string
	Lunch     string
	Dinner    string
	Nutrition string
}

type page struct {
	Title         string
	Rows          []row
	WithNutrition bool
	Generated     string
}

// WriteHTML renders days, usually a today-first DisplayOrder, as one table row each.
func WriteHTML(w io.Writer, days []planner.DisplayDay, opts Options) error {
	name := opts.OwnerName
	if name == "" {
		name = "User"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	p := page{
		Title:         fmt.Sprintf("%s's 7-Day Meal Plan", name),
		WithNutrition: opts.WithNutrition,
		Generated:     now.Format("Mon, 02 Jan 2006 15:04"),
	}
	for _, d := range days {
		r := row{
			Index:     d.Index,
			Name:      d.Name,
			Breakfast: d.Meal.Breakfast,
			Lunch:     joinCourse(d.Meal.Lunch),
			Dinner:    joinCourse(d.Meal.Dinner),
		}
		if opts.WithNutrition {
			r.Nutrition = nutrition.FormatSummary(nutrition.SumWithUnknown(d.Meal.Items()))
		}
		p.Rows = append(p.Rows, r)
	}

	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render week: %w", err)
	}
	return nil
}

func joinCourse(c planner.Course) string {
	items := make([]string, 0, len(c))
	for _, item := range c {
		if item != "" {
			items = append(items, item)
		}
	}
	return strings.Join(items, ", ")
}

package tools

import (
	"fmt"
	"strings"

	"meal-planner/internal/meals"
)

// RenderMeals formats a get_recent_meals answer. The header reflects the filters in q.
func RenderMeals(found []meals.Meal, q meals.Query) string {
	if len(found) == 0 {
		return "No meals found within the specified criteria."
	}

	var sb strings.Builder
	switch {
	case q.Search != "":
		fmt.Fprintf(&sb, "Here are the meals matching '%s':\n\n", q.Search)
	case q.StartDate != "" || q.EndDate != "":
		fmt.Fprintf(&sb, "Here are the meals from %s to %s:\n\n", orDefault(q.StartDate, "beginning"), orDefault(q.EndDate, "now"))
	default:
		sb.WriteString("Here are the most recent meals:\n\n")
	}

	for _, m := range found {
		sb.WriteString(RenderMeal(m))
	}
	return sb.String()
}

// RenderMeal formats one meal as a Markdown list item.
func RenderMeal(m meals.Meal) string {
	ingredients := "No tags"
	if len(m.Ingredients) > 0 {
		ingredients = strings.Join(m.Ingredients, ", ")
	}
	recipe := ""
	if m.Recipe != "" {
		recipe = fmt.Sprintf(" (Recipe: %s)", m.Recipe)
	}
	return fmt.Sprintf("- **%s** (%s, %s)\n  Ingredients: %s%s\n", m.Name, m.Date, m.Heure, ingredients, recipe)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

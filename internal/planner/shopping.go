package planner

import (
	"fmt"
	"regexp"
	"strings"
)

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)

// FallbackShoppingList merges ingredients without the model. Parenthetical
// notes are stripped, identical names are counted, and the count becomes a
// rough quantity: 1 -> "name", 2-3 -> "Nx name", more -> "ceil(N/2) lbs name".
// Items keep the order in which they first appear.
func FallbackShoppingList(meals []GeneratedMeal) []string {
	counts := make(map[string]int)
	var order []string

	for _, meal := range meals {
		for _, ingredient := range meal.Ingredients {
			name := strings.TrimSpace(parenthetical.ReplaceAllString(ingredient, ""))
			if _, seen := counts[name]; !seen {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	items := make([]string, 0, len(order))
	for _, name := range order {
		switch n := counts[name]; {
		case n == 1:
			items = append(items, name)
		case n <= 3:
			items = append(items, fmt.Sprintf("%dx %s", n, name))
		default:
			items = append(items, fmt.Sprintf("%d lbs %s", (n+1)/2, name))
		}
	}
	return items
}

// LeftoverIngredients is the de-duplicated union of every meal's
// ingredients, in first-seen order.
func LeftoverIngredients(meals []GeneratedMeal) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, meal := range meals {
		for _, ingredient := range meal.Ingredients {
			if _, ok := seen[ingredient]; ok {
				continue
			}
			seen[ingredient] = struct{}{}
			out = append(out, ingredient)
		}
	}
	return out
}

package planner

import "strconv"

// SkillLevel is the cook's self-declared ability.
type SkillLevel string

const (
	SkillEasy   SkillLevel = "Easy"
	SkillMedium SkillLevel = "Medium"
	SkillHard   SkillLevel = "Hard"
)

// SkillLevels lists the levels in wizard order.
var SkillLevels = []SkillLevel{SkillEasy, SkillMedium, SkillHard}

// Valid reports whether s is one of the known levels.
func (s SkillLevel) Valid() bool {
	switch s {
	case SkillEasy, SkillMedium, SkillHard:
		return true
	}
	return false
}

// Description is the label shown next to the level in the wizard.
func (s SkillLevel) Description() string {
	switch s {
	case SkillEasy:
		return "Simple recipes, 15-30 minutes"
	case SkillMedium:
		return "Moderate complexity, 30-60 minutes"
	case SkillHard:
		return "Advanced techniques, 60+ minutes"
	}
	return ""
}

// TimeRange is the cook-time window, in minutes, used to clamp catalog meals.
// An unset or unknown level gets the 20-45 default.
func (s SkillLevel) TimeRange() (min, max int) {
	switch s {
	case SkillEasy:
		return 15, 30
	case SkillMedium:
		return 30, 60
	case SkillHard:
		return 60, 90
	}
	return 20, 45
}

// MealPlanRequest holds the parameters of one generation call.
type MealPlanRequest struct {
	PlanType            string     `json:"planType" validate:"required"`
	MealsPerDay         int        `json:"mealsPerDay" validate:"min=1"`
	PeopleCount         int        `json:"peopleCount" validate:"min=1"`
	SkillLevel          SkillLevel `json:"skillLevel,omitempty" validate:"omitempty,oneof=Easy Medium Hard"`
	DietaryRestrictions []string   `json:"dietaryRestrictions,omitempty"`
	Allergies           []string   `json:"allergies,omitempty"`
	Preferences         []string   `json:"preferences,omitempty"`
}

// MealCount is the number of meals a week of this request holds.
func (r MealPlanRequest) MealCount() int {
	return r.MealsPerDay * 7
}

// GeneratedMeal is one meal, from the model or from the catalog.
type GeneratedMeal struct {
	Name         string     `json:"name" validate:"required"`
	Description  string     `json:"description"`
	CookTime     int        `json:"cookTime" validate:"gt=0"`
	Servings     int        `json:"servings"`
	Difficulty   SkillLevel `json:"difficulty"`
	Ingredients  []string   `json:"ingredients" validate:"min=1,dive,required"`
	Instructions []string   `json:"instructions"`
}

// ShoppingListEntry is one line of the week's shopping list.
type ShoppingListEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	IsChecked bool   `json:"isChecked"`
}

// NewShoppingList wraps consolidated item strings into unchecked entries
// with quantity "1", using the position as id.
func NewShoppingList(items []string) []ShoppingListEntry {
	entries := make([]ShoppingListEntry, 0, len(items))
	for i, item := range items {
		entries = append(entries, ShoppingListEntry{
			ID:       strconv.Itoa(i),
			Name:     item,
			Quantity: "1",
		})
	}
	return entries
}

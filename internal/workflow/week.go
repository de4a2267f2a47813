package workflow

import (
	"fmt"
	"slices"
	"time"

	"kitchen-ai/internal/planner"
)

// DayNames maps day index to its label.
var DayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// SlotNames maps the first meal slots of a day to their labels. Later slots
// are labelled "Meal N".
var SlotNames = []string{"Breakfast", "Lunch", "Dinner", "Snack"}

// PlanOptions are the themes offered before custom input.
var PlanOptions = []string{
	"healthy meals", "pasta dishes", "quick meals", "budget-friendly meals",
	"vegetarian meals", "keto meals", "mediterranean meals", "asian cuisine",
	"mexican cuisine", "comfort food", "low-carb meals", "high-protein meals",
	"family-friendly meals", "gourmet meals", "one-pot meals", "meal prep friendly",
	"gluten-free meals", "dairy-free meals", "seafood dishes", "chicken dishes",
}

// PeopleCountOptions are the household sizes offered as buttons.
var PeopleCountOptions = []int{1, 2, 3, 4, 5, 6, 7, 8}

// SlotLabel returns the day and slot of meal i when a day has mealsPerDay
// meals. Indices past the week stay on Sunday.
func SlotLabel(i, mealsPerDay int) (day, slot string) {
	d, s := i/mealsPerDay, i%mealsPerDay
	day = DayNames[min(d, len(DayNames)-1)]
	if s < len(SlotNames) {
		return day, SlotNames[s]
	}
	return day, fmt.Sprintf("Meal %d", s+1)
}

// MealLabel is "<Day> <Slot>" for meal i.
func MealLabel(i, mealsPerDay int) string {
	day, slot := SlotLabel(i, mealsPerDay)
	return day + " " + slot
}

// WeekPlan is the generated week and everything derived from it.
type WeekPlan struct {
	PlanType      string                      `json:"planType"`
	MealsPerDay   int                         `json:"mealsPerDay"`
	PeopleCount   int                         `json:"peopleCount"`
	SkillLevel    planner.SkillLevel          `json:"skillLevel"`
	Meals         []planner.GeneratedMeal     `json:"meals"`
	ShoppingList  []planner.ShoppingListEntry `json:"shoppingList"`
	WeekStartDate time.Time                   `json:"weekStartDate"`
}

// Request rebuilds the generation request the week came from.
func (w *WeekPlan) Request() planner.MealPlanRequest {
	return planner.MealPlanRequest{
		PlanType:    w.PlanType,
		MealsPerDay: w.MealsPerDay,
		PeopleCount: w.PeopleCount,
		SkillLevel:  w.SkillLevel,
	}
}

// Summaries renders every meal as "<Day> <Slot>: <name>".
func (w *WeekPlan) Summaries() []string {
	out := make([]string, len(w.Meals))
	for i, m := range w.Meals {
		out[i] = fmt.Sprintf("%s: %s", MealLabel(i, w.MealsPerDay), m.Name)
	}
	return out
}

func (w *WeekPlan) valid() bool {
	return w != nil && w.MealsPerDay >= 1 && w.PeopleCount >= 1 && len(w.Meals) == w.MealsPerDay*7
}

// clone copies the slices a transition may replace elements of.
func (w *WeekPlan) clone() *WeekPlan {
	c := *w
	c.Meals = slices.Clone(w.Meals)
	c.ShoppingList = slices.Clone(w.ShoppingList)
	return &c
}

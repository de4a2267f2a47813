// Package workflow drives the meal-planning wizard: theme, meal count,
// household size and skill, then generation, review, shopping, cooking and
// saving the finished week to history.
package workflow

import (
	"slices"

	"kitchen-ai/internal/planner"
)

// Step names a wizard state. The values double as the persisted step.
type Step string

const (
	StepInitial       Step = "initial"
	StepPlanType      Step = "plan-type"
	StepCustomInput   Step = "custom-input"
	StepMealsPerDay   Step = "meals-per-day"
	StepPeopleCount   Step = "people-count"
	StepSkillLevel    Step = "skill-level"
	StepGenerating    Step = "generating"
	StepMenuReview    Step = "menu-review"
	StepShoppingList  Step = "shopping-list"
	StepRecipeCheck   Step = "recipe-check"
	StepWeekExecution Step = "week-execution"
	StepWeekComplete  Step = "week-complete"
)

// State is one of the variants below. Each carries only the data that is
// valid at its step. States are never mutated once handed out.
type State interface {
	Step() Step
	isState()
}

type Initial struct{}

type ChoosingPlanType struct{}

type EnteringCustomPlanType struct{}

type ChoosingMealsPerDay struct {
	PlanType string
}

type ChoosingPeopleCount struct {
	PlanType    string
	MealsPerDay int
}

type ChoosingSkillLevel struct {
	PlanType    string
	MealsPerDay int
	PeopleCount int
}

type Generating struct {
	Request planner.MealPlanRequest
}

type ReviewingMenu struct {
	Week *WeekPlan
}

type ReviewingShoppingList struct {
	Week *WeekPlan
}

type CheckingRecipes struct {
	Week *WeekPlan
}

type ExecutingWeek struct {
	Week     *WeekPlan
	Progress Progress
}

type WeekCompleted struct {
	Week      *WeekPlan
	Progress  Progress
	Leftovers []string
}

func (Initial) Step() Step                { return StepInitial }
func (ChoosingPlanType) Step() Step       { return StepPlanType }
func (EnteringCustomPlanType) Step() Step { return StepCustomInput }
func (ChoosingMealsPerDay) Step() Step    { return StepMealsPerDay }
func (ChoosingPeopleCount) Step() Step    { return StepPeopleCount }
func (ChoosingSkillLevel) Step() Step     { return StepSkillLevel }
func (Generating) Step() Step             { return StepGenerating }
func (ReviewingMenu) Step() Step          { return StepMenuReview }
func (ReviewingShoppingList) Step() Step  { return StepShoppingList }
func (CheckingRecipes) Step() Step        { return StepRecipeCheck }
func (ExecutingWeek) Step() Step          { return StepWeekExecution }
func (WeekCompleted) Step() Step          { return StepWeekComplete }

func (Initial) isState()                {}
func (ChoosingPlanType) isState()       {}
func (EnteringCustomPlanType) isState() {}
func (ChoosingMealsPerDay) isState()    {}
func (ChoosingPeopleCount) isState()    {}
func (ChoosingSkillLevel) isState()     {}
func (Generating) isState()             {}
func (ReviewingMenu) isState()          {}
func (ReviewingShoppingList) isState()  {}
func (CheckingRecipes) isState()        {}
func (ExecutingWeek) isState()          {}
func (WeekCompleted) isState()          {}

// WeekOf returns the week plan carried by s, or nil before generation.
func WeekOf(s State) *WeekPlan {
	switch st := s.(type) {
	case ReviewingMenu:
		return st.Week
	case ReviewingShoppingList:
		return st.Week
	case CheckingRecipes:
		return st.Week
	case ExecutingWeek:
		return st.Week
	case WeekCompleted:
		return st.Week
	}
	return nil
}

// withWeek returns s carrying w instead of its current week.
func withWeek(s State, w *WeekPlan) State {
	switch st := s.(type) {
	case ReviewingMenu:
		st.Week = w
		return st
	case ReviewingShoppingList:
		st.Week = w
		return st
	case CheckingRecipes:
		st.Week = w
		return st
	case ExecutingWeek:
		st.Week = w
		return st
	case WeekCompleted:
		st.Week = w
		return st
	}
	return s
}

// MealRating is the cook's verdict on one meal.
type MealRating struct {
	Rating int    `json:"rating"`
	Notes  string `json:"notes"`
}

// Progress tracks which meals of the week are done.
type Progress struct {
	// Completed holds meal indices in ascending order.
	Completed []int
	Ratings   map[int]MealRating
}

func (p Progress) IsCompleted(i int) bool {
	_, ok := slices.BinarySearch(p.Completed, i)
	return ok
}

// complete returns a copy of p with meal i completed and rated.
func (p Progress) complete(i int, r MealRating) Progress {
	next := p.rate(i, r)
	if pos, ok := slices.BinarySearch(next.Completed, i); !ok {
		next.Completed = slices.Insert(slices.Clone(next.Completed), pos, i)
	}
	return next
}

// rate returns a copy of p with the rating of meal i replaced.
func (p Progress) rate(i int, r MealRating) Progress {
	ratings := make(map[int]MealRating, len(p.Ratings)+1)
	for k, v := range p.Ratings {
		ratings[k] = v
	}
	ratings[i] = r
	return Progress{Completed: p.Completed, Ratings: ratings}
}

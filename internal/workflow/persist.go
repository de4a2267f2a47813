package workflow

import (
	"encoding/json"
	"errors"
	"fmt"

	"kitchen-ai/internal/planner"
)

// ErrCorruptSession is returned when a stored session cannot become a State.
var ErrCorruptSession = errors.New("corrupt session")

// record is the flat layout sessions are stored in.
type record struct {
	WeekData            *WeekPlan          `json:"weekData"`
	Step                Step               `json:"step"`
	SelectedPlanType    string             `json:"selectedPlanType"`
	SelectedMealsPerDay int                `json:"selectedMealsPerDay"`
	SelectedPeopleCount int                `json:"selectedPeopleCount"`
	SelectedSkillLevel  planner.SkillLevel `json:"selectedSkillLevel"`
	CompletedMeals      []int              `json:"completedMeals"`
	MealRatings         map[int]MealRating `json:"mealRatings"`
	LeftoverIngredients []string           `json:"leftoverIngredients"`
}

// EncodeState serializes s. Decoding the output yields an equal State.
func EncodeState(s State) ([]byte, error) {
	r := record{Step: s.Step()}

	switch st := s.(type) {
	case Initial, ChoosingPlanType, EnteringCustomPlanType:
	case ChoosingMealsPerDay:
		r.SelectedPlanType = st.PlanType
	case ChoosingPeopleCount:
		r.SelectedPlanType = st.PlanType
		r.SelectedMealsPerDay = st.MealsPerDay
	case ChoosingSkillLevel:
		r.SelectedPlanType = st.PlanType
		r.SelectedMealsPerDay = st.MealsPerDay
		r.SelectedPeopleCount = st.PeopleCount
	case Generating:
		r.SelectedPlanType = st.Request.PlanType
		r.SelectedMealsPerDay = st.Request.MealsPerDay
		r.SelectedPeopleCount = st.Request.PeopleCount
		r.SelectedSkillLevel = st.Request.SkillLevel
	case ExecutingWeek:
		r.CompletedMeals, r.MealRatings = st.Progress.Completed, st.Progress.Ratings
	case WeekCompleted:
		r.CompletedMeals, r.MealRatings = st.Progress.Completed, st.Progress.Ratings
		r.LeftoverIngredients = st.Leftovers
	}

	if w := WeekOf(s); w != nil {
		r.WeekData = w
		r.SelectedPlanType = w.PlanType
		r.SelectedMealsPerDay = w.MealsPerDay
		r.SelectedPeopleCount = w.PeopleCount
		r.SelectedSkillLevel = w.SkillLevel
	}

	if r.CompletedMeals == nil {
		r.CompletedMeals = []int{}
	}
	if r.MealRatings == nil {
		r.MealRatings = map[int]MealRating{}
	}
	if r.LeftoverIngredients == nil {
		r.LeftoverIngredients = []string{}
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// DecodeState rebuilds a State from EncodeState output. A record whose step
// lacks the data that step requires yields ErrCorruptSession.
func DecodeState(data []byte) (State, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}

	corrupt := func(reason string) (State, error) {
		return nil, fmt.Errorf("%w: step %q %s", ErrCorruptSession, r.Step, reason)
	}

	switch r.Step {
	case StepInitial, "":
		return Initial{}, nil
	case StepPlanType:
		return ChoosingPlanType{}, nil
	case StepCustomInput:
		return EnteringCustomPlanType{}, nil
	case StepMealsPerDay:
		if r.SelectedPlanType == "" {
			return corrupt("has no plan type")
		}
		return ChoosingMealsPerDay{PlanType: r.SelectedPlanType}, nil
	case StepPeopleCount:
		if r.SelectedPlanType == "" || r.SelectedMealsPerDay < 1 {
			return corrupt("has incomplete selections")
		}
		return ChoosingPeopleCount{PlanType: r.SelectedPlanType, MealsPerDay: r.SelectedMealsPerDay}, nil
	case StepSkillLevel:
		if r.SelectedPlanType == "" || r.SelectedMealsPerDay < 1 || r.SelectedPeopleCount < 1 {
			return corrupt("has incomplete selections")
		}
		return ChoosingSkillLevel{
			PlanType:    r.SelectedPlanType,
			MealsPerDay: r.SelectedMealsPerDay,
			PeopleCount: r.SelectedPeopleCount,
		}, nil
	case StepGenerating:
		req := planner.MealPlanRequest{
			PlanType:    r.SelectedPlanType,
			MealsPerDay: r.SelectedMealsPerDay,
			PeopleCount: r.SelectedPeopleCount,
			SkillLevel:  r.SelectedSkillLevel,
		}
		if req.PlanType == "" || req.MealsPerDay < 1 || req.PeopleCount < 1 || !req.SkillLevel.Valid() {
			return corrupt("has an invalid request")
		}
		return Generating{Request: req}, nil
	}

	if !r.WeekData.valid() {
		return corrupt("has no valid week")
	}
	w := r.WeekData
	progress := Progress{Completed: nilIfEmpty(r.CompletedMeals), Ratings: r.MealRatings}
	if len(progress.Ratings) == 0 {
		progress.Ratings = nil
	}
	if reason := checkProgress(progress, len(w.Meals)); reason != "" {
		return corrupt(reason)
	}
	done := len(progress.Completed) == len(w.Meals)

	switch r.Step {
	case StepMenuReview:
		return ReviewingMenu{Week: w}, nil
	case StepShoppingList:
		return ReviewingShoppingList{Week: w}, nil
	case StepRecipeCheck:
		return CheckingRecipes{Week: w}, nil
	case StepWeekExecution:
		if done {
			return corrupt("has every meal completed")
		}
		return ExecutingWeek{Week: w, Progress: progress}, nil
	case StepWeekComplete:
		if !done {
			return corrupt("is complete with meals left")
		}
		return WeekCompleted{Week: w, Progress: progress, Leftovers: nilIfEmpty(r.LeftoverIngredients)}, nil
	}
	return corrupt("is unknown")
}

// checkProgress returns why p cannot belong to a week of n meals, or "".
// Completed must be strictly increasing and in range; ratings must be 1-5
// and only on completed meals.
func checkProgress(p Progress, n int) string {
	for k, i := range p.Completed {
		if i < 0 || i >= n {
			return "has an out of range completed meal"
		}
		if k > 0 && i <= p.Completed[k-1] {
			return "has unordered or repeated completed meals"
		}
	}
	for i, r := range p.Ratings {
		if !p.IsCompleted(i) {
			return "has a rating on an uncooked meal"
		}
		if validRating(r.Rating) != nil {
			return "has a rating out of range"
		}
	}
	return ""
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"kitchen-ai/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWeek(withList bool) *WeekPlan {
	req := planner.MealPlanRequest{PlanType: "healthy meals", MealsPerDay: 2, PeopleCount: 3, SkillLevel: planner.SkillMedium}
	w := &WeekPlan{
		PlanType:      req.PlanType,
		MealsPerDay:   req.MealsPerDay,
		PeopleCount:   req.PeopleCount,
		SkillLevel:    req.SkillLevel,
		Meals:         planner.CatalogMeals(req),
		WeekStartDate: time.Date(2024, 12, 9, 8, 0, 0, 0, time.UTC),
	}
	if withList {
		w.ShoppingList = planner.NewShoppingList(planner.FallbackShoppingList(w.Meals))
		w.ShoppingList[1].IsChecked = true
		w.ShoppingList[2].Quantity = "2 bunches"
	}
	return w
}

func allStates() []State {
	progress := Progress{
		Completed: []int{0, 3, 7},
		Ratings: map[int]MealRating{
			0: {Rating: 5, Notes: "great"},
			3: {Rating: 2},
			7: {Rating: 4, Notes: "kids liked it"},
		},
	}
	all := Progress{Ratings: map[int]MealRating{}}
	for i := 0; i < 14; i++ {
		all = all.complete(i, MealRating{Rating: 3})
	}
	done := sampleWeek(true)

	return []State{
		Initial{},
		ChoosingPlanType{},
		EnteringCustomPlanType{},
		ChoosingMealsPerDay{PlanType: "pasta dishes"},
		ChoosingPeopleCount{PlanType: "pasta dishes", MealsPerDay: 3},
		ChoosingSkillLevel{PlanType: "pasta dishes", MealsPerDay: 3, PeopleCount: 4},
		Generating{Request: planner.MealPlanRequest{PlanType: "pasta dishes", MealsPerDay: 3, PeopleCount: 4, SkillLevel: planner.SkillHard}},
		ReviewingMenu{Week: sampleWeek(false)},
		ReviewingShoppingList{Week: sampleWeek(true)},
		CheckingRecipes{Week: sampleWeek(true)},
		ExecutingWeek{Week: sampleWeek(true)},
		ExecutingWeek{Week: sampleWeek(true), Progress: progress},
		WeekCompleted{Week: done, Progress: all, Leftovers: planner.LeftoverIngredients(done.Meals)},
	}
}

func TestStateRoundTrip(t *testing.T) {
	for _, st := range allStates() {
		t.Run(string(st.Step()), func(t *testing.T) {
			data, err := EncodeState(st)
			require.NoError(t, err)

			decoded, err := DecodeState(data)
			require.NoError(t, err)
			assert.Equal(t, st, decoded)

			again, err := EncodeState(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
		})
	}
}

func TestRecordLayout(t *testing.T) {
	p := Progress{}.complete(1, MealRating{Rating: 4, Notes: "crispy"})
	data, err := EncodeState(ExecutingWeek{Week: sampleWeek(true), Progress: p})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"weekData", "step", "selectedPlanType", "selectedMealsPerDay", "selectedPeopleCount",
		"selectedSkillLevel", "completedMeals", "mealRatings", "leftoverIngredients",
	} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, `"week-execution"`, string(raw["step"]))
	assert.JSONEq(t, `[1]`, string(raw["completedMeals"]))
	assert.JSONEq(t, `{"1":{"rating":4,"notes":"crispy"}}`, string(raw["mealRatings"]))
	assert.JSONEq(t, `"healthy meals"`, string(raw["selectedPlanType"]))

	var week map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["weekData"], &week))
	assert.JSONEq(t, `"2024-12-09T08:00:00Z"`, string(week["weekStartDate"]))
	assert.Contains(t, string(week["shoppingList"]), `"isChecked":true`)
}

func TestDecodeStateRejectsCorruptRecords(t *testing.T) {
	cases := map[string]string{
		"NotJSON":            `{"step":`,
		"MealsWithoutTheme":  `{"step":"meals-per-day"}`,
		"SkillWithoutPeople": `{"step":"skill-level","selectedPlanType":"x","selectedMealsPerDay":2}`,
		"GeneratingBadSkill": `{"step":"generating","selectedPlanType":"x","selectedMealsPerDay":2,"selectedPeopleCount":2,"selectedSkillLevel":"Expert"}`,
		"ReviewWithoutWeek":  `{"step":"menu-review","weekData":null}`,
		"WeekWithWrongCount": `{"step":"menu-review","weekData":{"planType":"x","mealsPerDay":2,"peopleCount":1,"meals":[]}}`,
		"UnknownStep":        `{"step":"dessert"}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeState([]byte(data))
			assert.ErrorIs(t, err, ErrCorruptSession)
		})
	}

	// Each case tampers with a valid week-execution record.
	tampered := map[string]func(r *record){
		"CompletedOutOfRange": func(r *record) { r.CompletedMeals = []int{99} },
		"CompletedRepeated": func(r *record) {
			r.CompletedMeals = make([]int, 13)
			r.MealRatings = map[int]MealRating{0: {Rating: 3}}
		},
		"CompletedUnordered": func(r *record) {
			r.CompletedMeals = []int{3, 2}
			r.MealRatings = nil
		},
		"RatingOnUncookedMeal": func(r *record) { r.MealRatings[5] = MealRating{Rating: 4} },
		"RatingOutOfRange":     func(r *record) { r.MealRatings[2] = MealRating{Rating: 9} },
		"ExecutionWithEveryMealDone": func(r *record) {
			r.CompletedMeals = nil
			r.MealRatings = map[int]MealRating{}
			for i := range r.WeekData.Meals {
				r.CompletedMeals = append(r.CompletedMeals, i)
				r.MealRatings[i] = MealRating{Rating: 3}
			}
		},
		"CompleteWithMealsLeft": func(r *record) { r.Step = StepWeekComplete },
	}
	for name, tamper := range tampered {
		t.Run(name, func(t *testing.T) {
			st := ExecutingWeek{Week: sampleWeek(true), Progress: Progress{}.complete(2, MealRating{Rating: 1})}
			data, err := EncodeState(st)
			require.NoError(t, err)

			var r record
			require.NoError(t, json.Unmarshal(data, &r))
			tamper(&r)
			data, err = json.Marshal(r)
			require.NoError(t, err)

			_, err = DecodeState(data)
			assert.ErrorIs(t, err, ErrCorruptSession)
		})
	}
}

func TestDecodeEmptyStepIsInitial(t *testing.T) {
	st, err := DecodeState([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, Initial{}, st)
}

package workflow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"kitchen-ai/internal/database"
	"kitchen-ai/internal/history"
	"kitchen-ai/internal/llm"
	"kitchen-ai/internal/metrics"
	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/session"
	"kitchen-ai/internal/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// --- Mock chat completions API ---
type mockChatAPI struct {
	weekCalls     atomic.Int32
	mealCalls     atomic.Int32
	shoppingCalls atomic.Int32
}

func meal(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"description":  "Test dish",
		"cookTime":     25,
		"servings":     99,
		"difficulty":   "Easy",
		"ingredients":  []string{"1 cup rice", "2 eggs"},
		"instructions": []string{"Cook"},
	}
}

// reply picks a completion from the prompt text, the way a real model
// would answer each of the planner's prompts.
func (m *mockChatAPI) reply(prompt string) string {
	switch {
	case strings.Contains(prompt, "Generate a weekly meal plan"):
		m.weekCalls.Add(1)
		meals := make([]map[string]any, 0, 7)
		for i := range 7 {
			meals = append(meals, meal(fmt.Sprintf("Fried Rice %d", i+1)))
		}
		body, _ := json.MarshalIndent(map[string]any{"meals": meals}, "", "  ")
		// Fenced, with a trailing comma the planner has to repair.
		return "Here is your plan:\n```json\n" + strings.Replace(string(body), "]\n}", "],\n}", 1) + "\n```"
	case strings.Contains(prompt, "Generate ONE meal"):
		m.mealCalls.Add(1)
		body, _ := json.Marshal(meal("Egg Drop Soup"))
		return string(body)
	case strings.Contains(prompt, "consolidated shopping list"):
		m.shoppingCalls.Add(1)
		return `{"items": ["7 cups rice", "14 eggs"]}`
	}
	return "I don't know"
}

func (m *mockChatAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	resp := map[string]any{
		"model": "mock-model",
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": m.reply(req.Messages[0].Content)}},
		},
		"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type stack struct {
	api      *mockChatAPI
	engine   *workflow.Engine
	history  *history.Repository
	metrics  *metrics.Store
	registry *prometheus.Registry
	restart  func() *workflow.Engine
}

func newStack(t *testing.T) *stack {
	t.Helper()

	api := &mockChatAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "kitchen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	store := metrics.NewStore(db.SQL)
	textGen := llm.NewRateLimited(llm.NewChatClient(llm.ChatConfig{URL: srv.URL, APIKey: "test", Model: "mock-model"}), 0)
	p := planner.NewPlanner(textGen, logger, planner.Options{
		Recorder: metrics.NewRecorder(store, metrics.NewCollector(reg)),
	})

	hist := history.NewRepository(db.SQL)
	sessions := session.NewRepository(db.SQL, time.Hour)
	restart := func() *workflow.Engine {
		return workflow.NewEngine(p, sessions, hist, logger, workflow.Options{
			Location: time.UTC,
			Now:      func() time.Time { return time.Date(2024, 12, 9, 18, 0, 0, 0, time.UTC) },
		})
	}

	return &stack{api: api, engine: restart(), history: hist, metrics: store, registry: reg, restart: restart}
}

func TestPlanningWeekEndToEnd(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	const key = "chat-42"

	_, err := s.engine.Start(ctx, key)
	require.NoError(t, err)
	_, err = s.engine.ChoosePlanType(ctx, key, "asian cuisine")
	require.NoError(t, err)
	_, err = s.engine.ChooseMealsPerDay(ctx, key, 1)
	require.NoError(t, err)
	_, err = s.engine.ChoosePeopleCount(ctx, key, 3)
	require.NoError(t, err)

	st, err := s.engine.ChooseSkillLevel(ctx, key, planner.SkillEasy)
	require.NoError(t, err)
	week := workflow.WeekOf(st)
	require.NotNil(t, week)
	require.Len(t, week.Meals, 7)
	assert.Equal(t, "Fried Rice 1", week.Meals[0].Name)
	assert.Equal(t, 3, week.Meals[0].Servings)

	st, err = s.engine.RefreshMeal(ctx, key, 4)
	require.NoError(t, err)
	assert.Equal(t, "Egg Drop Soup", workflow.WeekOf(st).Meals[4].Name)

	st, err = s.engine.AcceptMenu(ctx, key)
	require.NoError(t, err)
	list := workflow.WeekOf(st).ShoppingList
	require.Len(t, list, 2)
	assert.Equal(t, "7 cups rice", list[0].Name)

	// A restarted process resumes from the database.
	s.engine = s.restart()
	st, err = s.engine.State(ctx, key)
	require.NoError(t, err)
	assert.IsType(t, workflow.ReviewingShoppingList{}, st)

	_, err = s.engine.StartWeek(ctx, key)
	require.NoError(t, err)
	_, err = s.engine.ConfirmReady(ctx, key)
	require.NoError(t, err)
	for i := range 7 {
		st, err = s.engine.CompleteMeal(ctx, key, i, 4, "")
		require.NoError(t, err)
	}
	assert.IsType(t, workflow.WeekCompleted{}, st)

	entry, err := s.engine.SaveWeek(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Week of 12/9/2024", entry.Title)

	entries, err := s.history.Search(ctx, key, "egg drop")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Meals, "Friday Breakfast: Egg Drop Soup")

	assert.Equal(t, int32(1), s.api.weekCalls.Load())
	assert.Equal(t, int32(1), s.api.mealCalls.Load())
	assert.Equal(t, int32(1), s.api.shoppingCalls.Load())

	usage, err := s.metrics.GetDailyUsage(1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 3, usage[0].TotalExecution)
	assert.Equal(t, 0, usage[0].Fallbacks)
	assert.Equal(t, 300, usage[0].TotalPrompt)

	count, err := testutil.GatherAndCount(s.registry)
	require.NoError(t, err)
	assert.Positive(t, count)
}

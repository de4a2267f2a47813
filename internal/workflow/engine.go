package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"kitchen-ai/internal/history"
	"kitchen-ai/internal/planner"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator produces meals and shopping lists. *planner.Planner satisfies it.
type Generator interface {
	GenerateWeek(ctx context.Context, req planner.MealPlanRequest) (planner.WeekResult, error)
	GenerateOne(ctx context.Context, req planner.MealPlanRequest) (planner.MealResult, error)
	ConsolidateShoppingList(ctx context.Context, meals []planner.GeneratedMeal) planner.ShoppingResult
}

// SessionStore persists encoded sessions. Load returns nil, nil when
// nothing is stored under key.
type SessionStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// HistoryStore receives finished weeks.
type HistoryStore interface {
	Append(ctx context.Context, owner string, e history.Entry) error
}

// Options tunes an Engine. Zero values take the defaults.
type Options struct {
	MaxMealsPerDay  int
	TitleDateLayout string
	// Location renders the week start in history titles. Defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
}

// Engine runs one wizard per session key. All methods are safe for
// concurrent use; generation calls run without holding the engine lock and
// their results are dropped if the session moved on in the meantime.
type Engine struct {
	gen     Generator
	store   SessionStore
	history HistoryStore
	logger  *zap.Logger
	opts    Options

	mu       sync.Mutex
	sessions map[string]*session
}

// NewEngine creates a new Engine.
func NewEngine(gen Generator, store SessionStore, hist HistoryStore, logger *zap.Logger, opts Options) *Engine {
	if opts.MaxMealsPerDay < 1 {
		opts.MaxMealsPerDay = len(SlotNames)
	}
	if opts.TitleDateLayout == "" {
		opts.TitleDateLayout = "1/2/2006"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		gen:      gen,
		store:    store,
		history:  hist,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// MealsPerDayOptions lists the meal counts a user may pick.
func (e *Engine) MealsPerDayOptions() []int {
	opts := make([]int, e.opts.MaxMealsPerDay)
	for i := range opts {
		opts[i] = i + 1
	}
	return opts
}

// State returns the current state of the session, restoring it from the
// store on first use.
func (e *Engine) State(ctx context.Context, key string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.state, nil
}

// session returns the live session for key. e.mu must be held.
func (e *Engine) session(ctx context.Context, key string) (*session, error) {
	if s, ok := e.sessions[key]; ok {
		s.lastUsed = e.opts.Now()
		return s, nil
	}

	data, err := e.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", key, err)
	}

	var state State = Initial{}
	if data != nil {
		restored, err := DecodeState(data)
		if err != nil {
			e.logger.Warn("Discarding unreadable session", zap.String("session", key), zap.Error(err))
		} else {
			state = restored
		}
	}

	s := newSession(state)
	s.lastUsed = e.opts.Now()
	e.sessions[key] = s

	// Nothing is generating after a restart; send the user back to the last choice.
	if g, ok := state.(Generating); ok {
		e.logger.Info("Resuming interrupted generation at skill selection", zap.String("session", key))
		e.commit(ctx, key, s, ChoosingSkillLevel{
			PlanType:    g.Request.PlanType,
			MealsPerDay: g.Request.MealsPerDay,
			PeopleCount: g.Request.PeopleCount,
		})
	}
	return s, nil
}

// EvictIdle forgets sessions unused for longer than maxIdle that have no
// generation in flight, and returns how many it dropped. Their state stays
// in the store, so the next message reloads it, or starts over if the
// stored row has expired in the meantime.
func (e *Engine) EvictIdle(maxIdle time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.opts.Now().Add(-maxIdle)
	evicted := 0
	for key, s := range e.sessions {
		if len(s.tasks) == 0 && s.lastUsed.Before(cutoff) {
			delete(e.sessions, key)
			evicted++
		}
	}
	return evicted
}

// commit installs next and writes it through to the store. A failed write
// is logged; the live session stays authoritative.
func (e *Engine) commit(ctx context.Context, key string, s *session, next State) {
	s.set(next)

	data, err := EncodeState(next)
	if err == nil {
		err = e.store.Save(context.WithoutCancel(ctx), key, data)
	}
	if err != nil {
		e.logger.Error("Failed to persist session",
			zap.String("session", key),
			zap.String("step", string(next.Step())),
			zap.Error(err),
		)
	}
}

// transition applies fn to the current state and commits its result. On
// error the state is unchanged and returned alongside the error.
func (e *Engine) transition(ctx context.Context, key string, fn func(State) (State, error)) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(ctx, key)
	if err != nil {
		return nil, err
	}
	next, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	e.commit(ctx, key, s, next)
	return next, nil
}

func invalid(cur State, action string) error {
	return fmt.Errorf("%w: %s during %s", ErrInvalidTransition, action, cur.Step())
}

// Start opens the plan type menu.
func (e *Engine) Start(ctx context.Context, key string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		if _, ok := cur.(Initial); !ok {
			return nil, invalid(cur, "start")
		}
		return ChoosingPlanType{}, nil
	})
}

// ChoosePlanType selects a theme and moves on to the meals-per-day choice.
func (e *Engine) ChoosePlanType(ctx context.Context, key, planType string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		if _, ok := cur.(ChoosingPlanType); !ok {
			return nil, invalid(cur, "choose plan type")
		}
		planType = strings.TrimSpace(planType)
		if planType == "" {
			return nil, fmt.Errorf("%w: empty plan type", ErrInvalidSelection)
		}
		return ChoosingMealsPerDay{PlanType: planType}, nil
	})
}

// RequestCustomPlanType switches to free-text theme entry.
func (e *Engine) RequestCustomPlanType(ctx context.Context, key string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		if _, ok := cur.(ChoosingPlanType); !ok {
			return nil, invalid(cur, "custom plan type")
		}
		return EnteringCustomPlanType{}, nil
	})
}

// SubmitCustomPlanType accepts the typed theme.
func (e *Engine) SubmitCustomPlanType(ctx context.Context, key, text string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		if _, ok := cur.(EnteringCustomPlanType); !ok {
			return nil, invalid(cur, "submit custom plan type")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: empty plan type", ErrInvalidSelection)
		}
		return ChoosingMealsPerDay{PlanType: text}, nil
	})
}

// BackToPlanTypes leaves custom entry for the preset themes.
func (e *Engine) BackToPlanTypes(ctx context.Context, key string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		if _, ok := cur.(EnteringCustomPlanType); !ok {
			return nil, invalid(cur, "back")
		}
		return ChoosingPlanType{}, nil
	})
}

func (e *Engine) ChooseMealsPerDay(ctx context.Context, key string, n int) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		st, ok := cur.(ChoosingMealsPerDay)
		if !ok {
			return nil, invalid(cur, "choose meals per day")
		}
		if n < 1 || n > e.opts.MaxMealsPerDay {
			return nil, fmt.Errorf("%w: %d meals per day", ErrInvalidSelection, n)
		}
		return ChoosingPeopleCount{PlanType: st.PlanType, MealsPerDay: n}, nil
	})
}

func (e *Engine) ChoosePeopleCount(ctx context.Context, key string, n int) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		st, ok := cur.(ChoosingPeopleCount)
		if !ok {
			return nil, invalid(cur, "choose people count")
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: %d people", ErrInvalidSelection, n)
		}
		return ChoosingSkillLevel{PlanType: st.PlanType, MealsPerDay: st.MealsPerDay, PeopleCount: n}, nil
	})
}

// ChooseSkillLevel completes the request and generates the week. It blocks
// until the menu is ready. A failed generation returns the session to
// Initial and yields ErrGenerationFailed.
func (e *Engine) ChooseSkillLevel(ctx context.Context, key string, level planner.SkillLevel) (State, error) {
	e.mu.Lock()
	s, err := e.session(ctx, key)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	cur, ok := s.state.(ChoosingSkillLevel)
	if !ok {
		defer e.mu.Unlock()
		return s.state, invalid(s.state, "choose skill level")
	}
	if !level.Valid() {
		defer e.mu.Unlock()
		return s.state, fmt.Errorf("%w: skill level %q", ErrInvalidSelection, level)
	}

	req := planner.MealPlanRequest{
		PlanType:    cur.PlanType,
		MealsPerDay: cur.MealsPerDay,
		PeopleCount: cur.PeopleCount,
		SkillLevel:  level,
	}
	e.commit(ctx, key, s, Generating{Request: req})
	taskCtx, t := s.begin(ctx, opGenerate)
	e.mu.Unlock()

	res, genErr := e.gen.GenerateWeek(taskCtx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !s.finish(opGenerate, t) {
		return s.state, ErrStaleResult
	}

	if genErr == nil && len(res.Meals) != req.MealCount() {
		genErr = fmt.Errorf("got %d meals, want %d", len(res.Meals), req.MealCount())
	}
	if genErr != nil {
		e.logger.Error("Meal plan generation failed", zap.String("session", key), zap.Error(genErr))
		e.commit(ctx, key, s, Initial{})
		return s.state, fmt.Errorf("%w: %w", ErrGenerationFailed, genErr)
	}

	week := &WeekPlan{
		PlanType:      req.PlanType,
		MealsPerDay:   req.MealsPerDay,
		PeopleCount:   req.PeopleCount,
		SkillLevel:    req.SkillLevel,
		Meals:         res.Meals,
		WeekStartDate: e.opts.Now().UTC(),
	}
	e.commit(ctx, key, s, ReviewingMenu{Week: week})
	e.logger.Info("Meal plan ready",
		zap.String("session", key),
		zap.String("outcome", string(res.Meta.Outcome)),
		zap.Int("meals", len(week.Meals)),
	)
	return s.state, nil
}

// RefreshMeal replaces meal i of the menu under review with a new one of
// the same theme. Refreshes of different meals may run concurrently; a
// second refresh of the same meal supersedes the first.
func (e *Engine) RefreshMeal(ctx context.Context, key string, i int) (State, error) {
	e.mu.Lock()
	s, err := e.session(ctx, key)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	cur, ok := s.state.(ReviewingMenu)
	if !ok {
		defer e.mu.Unlock()
		return s.state, invalid(s.state, "refresh meal")
	}
	if i < 0 || i >= len(cur.Week.Meals) {
		defer e.mu.Unlock()
		return s.state, fmt.Errorf("%w: meal %d", ErrInvalidSelection, i)
	}
	if s.busy(opConsolidate) {
		defer e.mu.Unlock()
		return s.state, ErrBusy
	}
	op := opRefresh + strconv.Itoa(i)
	taskCtx, t := s.begin(ctx, op)
	req := cur.Week.Request()
	e.mu.Unlock()

	res, genErr := e.gen.GenerateOne(taskCtx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !s.finish(op, t) {
		return s.state, ErrStaleResult
	}
	cur, ok = s.state.(ReviewingMenu)
	if !ok {
		return s.state, ErrStaleResult
	}
	if genErr != nil {
		e.logger.Error("Meal refresh failed", zap.String("session", key), zap.Int("meal", i), zap.Error(genErr))
		return s.state, fmt.Errorf("%w: %w", ErrRefreshFailed, genErr)
	}

	week := cur.Week.clone()
	week.Meals[i] = res.Meal
	e.commit(ctx, key, s, ReviewingMenu{Week: week})
	return s.state, nil
}

// AcceptMenu consolidates the menu into a shopping list. Pending refreshes
// are cancelled.
func (e *Engine) AcceptMenu(ctx context.Context, key string) (State, error) {
	e.mu.Lock()
	s, err := e.session(ctx, key)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	cur, ok := s.state.(ReviewingMenu)
	if !ok {
		defer e.mu.Unlock()
		return s.state, invalid(s.state, "accept menu")
	}
	if s.busy(opConsolidate) {
		defer e.mu.Unlock()
		return s.state, ErrBusy
	}
	s.cancelPrefix(opRefresh)
	taskCtx, t := s.begin(ctx, opConsolidate)
	week := cur.Week
	e.mu.Unlock()

	res := e.gen.ConsolidateShoppingList(taskCtx, week.Meals)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !s.finish(opConsolidate, t) {
		return s.state, ErrStaleResult
	}
	if cur, ok := s.state.(ReviewingMenu); !ok || cur.Week != week {
		return s.state, ErrStaleResult
	}
	if len(res.Items) == 0 {
		e.logger.Error("Shopping list came back empty", zap.String("session", key))
		return s.state, ErrConsolidationFailed
	}

	next := week.clone()
	next.ShoppingList = planner.NewShoppingList(res.Items)
	e.commit(ctx, key, s, ReviewingShoppingList{Week: next})
	return s.state, nil
}

// StartWeek moves from the shopping list to the recipe check.
func (e *Engine) StartWeek(ctx context.Context, key string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		st, ok := cur.(ReviewingShoppingList)
		if !ok {
			return nil, invalid(cur, "start week")
		}
		return CheckingRecipes{Week: st.Week}, nil
	})
}

// ConfirmReady begins cooking with no meal completed.
func (e *Engine) ConfirmReady(ctx context.Context, key string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		st, ok := cur.(CheckingRecipes)
		if !ok {
			return nil, invalid(cur, "confirm ready")
		}
		return ExecutingWeek{Week: st.Week}, nil
	})
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating %d", ErrInvalidSelection, rating)
	}
	return nil
}

// CompleteMeal marks meal i cooked with a 1-5 rating. Completing the last
// meal finishes the week and computes the leftover ingredients.
func (e *Engine) CompleteMeal(ctx context.Context, key string, i, rating int, notes string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		st, ok := cur.(ExecutingWeek)
		if !ok {
			return nil, invalid(cur, "complete meal")
		}
		if i < 0 || i >= len(st.Week.Meals) {
			return nil, fmt.Errorf("%w: meal %d", ErrInvalidSelection, i)
		}
		if err := validRating(rating); err != nil {
			return nil, err
		}
		if st.Progress.IsCompleted(i) {
			return nil, fmt.Errorf("%w: meal %d", ErrMealAlreadyCompleted, i)
		}

		progress := st.Progress.complete(i, MealRating{Rating: rating, Notes: strings.TrimSpace(notes)})
		if len(progress.Completed) == len(st.Week.Meals) {
			return WeekCompleted{
				Week:      st.Week,
				Progress:  progress,
				Leftovers: planner.LeftoverIngredients(st.Week.Meals),
			}, nil
		}
		return ExecutingWeek{Week: st.Week, Progress: progress}, nil
	})
}

// RateMeal changes the rating of an already completed meal.
func (e *Engine) RateMeal(ctx context.Context, key string, i, rating int, notes string) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		if err := validRating(rating); err != nil {
			return nil, err
		}
		r := MealRating{Rating: rating, Notes: strings.TrimSpace(notes)}
		switch st := cur.(type) {
		case ExecutingWeek:
			if !st.Progress.IsCompleted(i) {
				return nil, fmt.Errorf("%w: meal %d", ErrMealNotCompleted, i)
			}
			st.Progress = st.Progress.rate(i, r)
			return st, nil
		case WeekCompleted:
			if !st.Progress.IsCompleted(i) {
				return nil, fmt.Errorf("%w: meal %d", ErrMealNotCompleted, i)
			}
			st.Progress = st.Progress.rate(i, r)
			return st, nil
		}
		return nil, invalid(cur, "rate meal")
	})
}

// SaveWeek appends the finished week to history under the session key and
// starts the session over.
func (e *Engine) SaveWeek(ctx context.Context, key string) (history.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(ctx, key)
	if err != nil {
		return history.Entry{}, err
	}
	st, ok := s.state.(WeekCompleted)
	if !ok {
		return history.Entry{}, invalid(s.state, "save week")
	}

	entry := history.Entry{
		ID:        uuid.NewString(),
		Title:     "Week of " + st.Week.WeekStartDate.In(e.opts.Location).Format(e.opts.TitleDateLayout),
		Meals:     st.Week.Summaries(),
		CreatedAt: e.opts.Now().UTC(),
	}
	if err := e.history.Append(ctx, key, entry); err != nil {
		return history.Entry{}, fmt.Errorf("failed to save week: %w", err)
	}

	e.reset(ctx, key, s)
	e.logger.Info("Week saved to history", zap.String("session", key), zap.String("entry", entry.ID))
	return entry, nil
}

// Reset abandons whatever the session was doing.
func (e *Engine) Reset(ctx context.Context, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(ctx, key)
	if err != nil {
		return err
	}
	e.reset(ctx, key, s)
	return nil
}

func (e *Engine) reset(ctx context.Context, key string, s *session) {
	s.cancelAll()
	s.set(Initial{})
	if err := e.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		e.logger.Error("Failed to delete session", zap.String("session", key), zap.Error(err))
	}
}

// HandleText routes free text. During custom theme entry it is the theme;
// anywhere else the user gets the canned guidance reply.
func (e *Engine) HandleText(ctx context.Context, key, text string) (State, string, error) {
	cur, err := e.State(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if _, ok := cur.(EnteringCustomPlanType); ok {
		next, err := e.SubmitCustomPlanType(ctx, key, text)
		return next, "", err
	}
	return cur, FreeTextReply, nil
}

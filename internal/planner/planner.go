package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen-ai/internal/llm"
	"kitchen-ai/internal/shared"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	AgentWeek     = "week"
	AgentMeal     = "meal"
	AgentShopping = "shopping"

	defaultTimeout = 30 * time.Second
)

var (
	// ErrInvalidRequest wraps request validation failures. It is the only
	// error the generation methods return.
	ErrInvalidRequest = errors.New("invalid meal plan request")

	errMealCount  = errors.New("meal count mismatch")
	errEmptyItems = errors.New("shopping list has no items")
)

// MetaRecorder receives the metadata of every generation step.
type MetaRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// Options tunes a Planner.
type Options struct {
	// Timeout bounds each completion call. Zero means 30s.
	Timeout  time.Duration
	Recorder MetaRecorder
}

// Planner turns requests into meals and meals into a shopping list. Every
// model failure degrades to the local catalog or heuristic, so callers
// always receive a structurally valid result.
type Planner struct {
	textGen  llm.TextGenerator
	logger   *zap.Logger
	validate *validator.Validate
	timeout  time.Duration
	recorder MetaRecorder
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, logger *zap.Logger, opts Options) *Planner {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Planner{
		textGen:  textGen,
		logger:   logger,
		validate: validator.New(),
		timeout:  opts.Timeout,
		recorder: opts.Recorder,
	}
}

type WeekResult struct {
	Meals []GeneratedMeal
	Meta  shared.AgentMeta
}

type MealResult struct {
	Meal GeneratedMeal
	Meta shared.AgentMeta
}

type ShoppingResult struct {
	Items []string
	Meta  shared.AgentMeta
}

// GenerateWeek returns exactly req.MealCount() meals with servings set to
// the requested head count.
func (p *Planner) GenerateWeek(ctx context.Context, req MealPlanRequest) (WeekResult, error) {
	if err := p.ValidateRequest(req); err != nil {
		return WeekResult{}, err
	}

	start := time.Now()
	meals, usage, err := p.completeWeek(ctx, req)
	meta := shared.AgentMeta{AgentName: AgentWeek, Usage: usage, Outcome: shared.OutcomeAI}
	if err != nil {
		meals = CatalogMeals(req)
		p.fallback(&meta, err)
	}
	meta.Latency = time.Since(start)
	p.record(meta)

	return WeekResult{Meals: meals, Meta: meta}, nil
}

// GenerateOne returns a single replacement meal for the request's theme.
func (p *Planner) GenerateOne(ctx context.Context, req MealPlanRequest) (MealResult, error) {
	req.MealsPerDay = 1
	if err := p.ValidateRequest(req); err != nil {
		return MealResult{}, err
	}

	start := time.Now()
	meal, usage, err := p.completeMeal(ctx, req)
	meta := shared.AgentMeta{AgentName: AgentMeal, Usage: usage, Outcome: shared.OutcomeAI}
	if err != nil {
		meal = CatalogMeal(req)
		p.fallback(&meta, err)
	}
	meta.Latency = time.Since(start)
	p.record(meta)

	return MealResult{Meal: meal, Meta: meta}, nil
}

// ConsolidateShoppingList merges every meal's ingredients into shopping
// items. No meals means no items and no model call.
func (p *Planner) ConsolidateShoppingList(ctx context.Context, meals []GeneratedMeal) ShoppingResult {
	if len(meals) == 0 {
		return ShoppingResult{Items: []string{}, Meta: shared.AgentMeta{AgentName: AgentShopping, Outcome: shared.OutcomeAI}}
	}

	start := time.Now()
	items, usage, err := p.completeShopping(ctx, meals)
	meta := shared.AgentMeta{AgentName: AgentShopping, Usage: usage, Outcome: shared.OutcomeAI}
	if err != nil {
		items = FallbackShoppingList(meals)
		p.fallback(&meta, err)
	}
	meta.Latency = time.Since(start)
	p.record(meta)

	return ShoppingResult{Items: items, Meta: meta}
}

// ValidateRequest checks the request invariants.
func (p *Planner) ValidateRequest(req MealPlanRequest) error {
	if strings.TrimSpace(req.PlanType) == "" {
		return fmt.Errorf("%w: plan type is empty", ErrInvalidRequest)
	}
	if err := p.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (p *Planner) completeWeek(ctx context.Context, req MealPlanRequest) ([]GeneratedMeal, shared.TokenUsage, error) {
	prompt, err := buildWeekPrompt(req)
	if err != nil {
		return nil, shared.TokenUsage{}, fmt.Errorf("failed to build week prompt: %w", err)
	}

	resp, err := p.generate(ctx, prompt, llm.WithTemperature(0.7), llm.WithMaxTokens(4000))
	if err != nil {
		return nil, resp.Usage, err
	}

	var envelope struct {
		Meals []GeneratedMeal `json:"meals"`
	}
	if _, err := decodeCompletion(resp.Content, &envelope); err != nil {
		return nil, resp.Usage, err
	}
	if len(envelope.Meals) != req.MealCount() {
		return nil, resp.Usage, fmt.Errorf("%w: want %d, got %d", errMealCount, req.MealCount(), len(envelope.Meals))
	}
	for i := range envelope.Meals {
		if err := p.normalizeMeal(&envelope.Meals[i], req); err != nil {
			return nil, resp.Usage, fmt.Errorf("meal %d: %w", i, err)
		}
	}
	return envelope.Meals, resp.Usage, nil
}

func (p *Planner) completeMeal(ctx context.Context, req MealPlanRequest) (GeneratedMeal, shared.TokenUsage, error) {
	prompt, err := buildMealPrompt(req)
	if err != nil {
		return GeneratedMeal{}, shared.TokenUsage{}, fmt.Errorf("failed to build meal prompt: %w", err)
	}

	resp, err := p.generate(ctx, prompt, llm.WithTemperature(0.7), llm.WithMaxTokens(1500))
	if err != nil {
		return GeneratedMeal{}, resp.Usage, err
	}

	var meal GeneratedMeal
	if _, err := decodeCompletion(resp.Content, &meal); err != nil {
		return GeneratedMeal{}, resp.Usage, err
	}
	if err := p.normalizeMeal(&meal, req); err != nil {
		return GeneratedMeal{}, resp.Usage, err
	}
	return meal, resp.Usage, nil
}

func (p *Planner) completeShopping(ctx context.Context, meals []GeneratedMeal) ([]string, shared.TokenUsage, error) {
	prompt, err := buildShoppingPrompt(meals)
	if err != nil {
		return nil, shared.TokenUsage{}, fmt.Errorf("failed to build shopping prompt: %w", err)
	}

	resp, err := p.generate(ctx, prompt, llm.WithTemperature(0.3), llm.WithMaxTokens(2000))
	if err != nil {
		return nil, resp.Usage, err
	}

	var envelope struct {
		Items []string `json:"items"`
	}
	if _, err := decodeCompletion(resp.Content, &envelope); err != nil {
		return nil, resp.Usage, err
	}

	items := make([]string, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, resp.Usage, errEmptyItems
	}
	return items, resp.Usage, nil
}

func (p *Planner) generate(ctx context.Context, prompt string, opts ...llm.CallOption) (llm.ContentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.textGen.GenerateContent(callCtx, prompt, opts...)
	if err != nil {
		return resp, fmt.Errorf("failed to generate content: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return resp, fmt.Errorf("empty completion")
	}
	return resp, nil
}

// normalizeMeal rejects malformed meals and pins the fields the caller
// already decided: servings and, when the model returned nonsense, difficulty.
func (p *Planner) normalizeMeal(meal *GeneratedMeal, req MealPlanRequest) error {
	if err := p.validate.Struct(meal); err != nil {
		return fmt.Errorf("invalid meal: %w", err)
	}
	meal.Servings = req.PeopleCount
	if !meal.Difficulty.Valid() {
		meal.Difficulty = req.SkillLevel
		if !meal.Difficulty.Valid() {
			meal.Difficulty = SkillMedium
		}
	}
	if meal.Instructions == nil {
		meal.Instructions = []string{}
	}
	return nil
}

func (p *Planner) fallback(meta *shared.AgentMeta, err error) {
	meta.Outcome = shared.OutcomeFallback
	meta.Reason = err.Error()
	p.logger.Warn("generation failed, using local fallback",
		zap.String("operation", meta.AgentName),
		zap.Error(err),
	)
}

func (p *Planner) record(meta shared.AgentMeta) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordMeta(meta); err != nil {
		p.logger.Warn("failed to record generation metrics", zap.String("operation", meta.AgentName), zap.Error(err))
	}
}

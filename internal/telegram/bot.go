package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"kitchen-ai/internal/config"
	"kitchen-ai/internal/history"
	"kitchen-ai/internal/metrics"
	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/workflow"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Sender is the part of the Telegram API the bot talks through.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// HistoryBrowser serves the saved-weeks screens.
type HistoryBrowser interface {
	List(ctx context.Context, owner string) ([]history.Entry, error)
	ListFavorites(ctx context.Context, owner string) ([]history.Entry, error)
	Search(ctx context.Context, owner, term string) ([]history.Entry, error)
	Get(ctx context.Context, owner, id string) (history.Entry, error)
	ToggleFavorite(ctx context.Context, owner, id string) (history.Entry, error)
	Delete(ctx context.Context, owner, id string) error
}

// UsageReporter feeds the admin /metrics command.
type UsageReporter interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

type Options struct {
	// AllowedIDs limits who may talk to the bot. Empty admits everyone.
	AllowedIDs []int64
	AdminID    int64
	// DataPath is measured for the disk figure of /metrics.
	DataPath string
}

// Bot wraps the Telegram API and the planning workflow. Each chat is one
// workflow session.
type Bot struct {
	api     Sender
	engine  *workflow.Engine
	history HistoryBrowser
	usage   UsageReporter
	logger  *zap.Logger
	allowed map[int64]bool
	adminID int64
	data    string
}

// New creates a Bot over an already configured API client.
func New(api Sender, engine *workflow.Engine, hist HistoryBrowser, usage UsageReporter, logger *zap.Logger, opts Options) *Bot {
	allowed := make(map[int64]bool, len(opts.AllowedIDs))
	for _, id := range opts.AllowedIDs {
		allowed[id] = true
	}
	return &Bot{
		api:     api,
		engine:  engine,
		history: hist,
		usage:   usage,
		logger:  logger,
		allowed: allowed,
		adminID: opts.AdminID,
		data:    opts.DataPath,
	}
}

// NewBot initializes the Telegram API and sets the webhook.
func NewBot(cfg *config.Config, engine *workflow.Engine, hist HistoryBrowser, usage UsageReporter, logger *zap.Logger) (*Bot, error) {
	allowed, err := cfg.Telegram.AllowedIDs()
	if err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.Telegram.WebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.Telegram.WebhookURL, err)
	}
	logger.Info("Webhook set", zap.String("response", resp.Description))

	return New(api, engine, hist, usage, logger, Options{
		AllowedIDs: allowed,
		AdminID:    cfg.Telegram.AdminID,
		DataPath:   filepath.Dir(cfg.Database.Path),
	}), nil
}

// RegisterHandlers mounts the webhook, health and Prometheus endpoints.
func (b *Bot) RegisterHandlers(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("Error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	from := update.SentFrom()
	if from == nil {
		return
	}
	if !b.isAllowed(from.ID) {
		b.logger.Warn("Unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
		return
	}

	// Telegram retries slow webhooks; generation runs past its deadline.
	go b.handleUpdate(context.Background(), update)
}

func (b *Bot) isAllowed(id int64) bool {
	return len(b.allowed) == 0 || b.allowed[id]
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.processMessage(ctx, update.Message)
	}
}

func sessionKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// index parses a 0-based index.
func index(data string) (int, error) {
	i, err := strconv.Atoi(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", workflow.ErrInvalidSelection, data)
	}
	return i, nil
}

// position parses a 1-based list position typed by the user.
func position(arg string, n int) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || p < 1 || p > n {
		return 0, fmt.Errorf("%w: position %q", workflow.ErrInvalidSelection, arg)
	}
	return p - 1, nil
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	key := sessionKey(chatID)
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		st, err := b.engine.State(ctx, key)
		b.show(chatID, st, err)
	case "reset":
		err := b.engine.Reset(ctx, key)
		b.show(chatID, workflow.Initial{}, err)
	case "help":
		b.send(chatID, helpText, nil)
	case "metrics":
		b.handleMetricsRequest(msg)
	case "recipe":
		b.handleRecipe(ctx, chatID, args)
	case "add":
		st, err := b.engine.AddShoppingItem(ctx, key, args)
		b.show(chatID, st, err)
	case "qty":
		pos, amount, _ := strings.Cut(args, " ")
		b.editShoppingAt(ctx, chatID, pos, func(id string) (workflow.State, error) {
			return b.engine.SetShoppingQuantity(ctx, key, id, amount)
		})
	case "remove":
		b.editShoppingAt(ctx, chatID, args, func(id string) (workflow.State, error) {
			return b.engine.DeleteShoppingItem(ctx, key, id)
		})
	case "leftovers":
		b.handleLeftovers(ctx, chatID)
	case "history":
		entries, err := b.history.List(ctx, key)
		b.showHistory(chatID, "Your saved weeks", entries, err)
	case "favorites":
		entries, err := b.history.ListFavorites(ctx, key)
		b.showHistory(chatID, "Your favorite weeks", entries, err)
	case "search":
		entries, err := b.history.Search(ctx, key, args)
		b.showHistory(chatID, "Matching weeks", entries, err)
	case "":
		st, reply, err := b.engine.HandleText(ctx, key, msg.Text)
		if err == nil && reply != "" {
			b.send(chatID, reply, startKeyboard())
			return
		}
		b.show(chatID, st, err)
	default:
		b.send(chatID, helpText, nil)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.adminID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.", nil)
		return
	}

	usage, err := b.usage.GetDailyUsage(7)
	if err != nil {
		b.logger.Error("Failed to fetch metrics", zap.Error(err))
		b.send(msg.Chat.ID, "❌ Error fetching metrics.", nil)
		return
	}
	report := metrics.Report(usage, metrics.GetSysHealth(b.data))
	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, report)); err != nil {
		b.logger.Error("Failed to send metrics", zap.Error(err))
	}
}

func (b *Bot) handleRecipe(ctx context.Context, chatID int64, arg string) {
	st, err := b.engine.State(ctx, sessionKey(chatID))
	if err != nil {
		b.fail(chatID, err)
		return
	}
	week := workflow.WeekOf(st)
	if week == nil {
		b.fail(chatID, workflow.ErrInvalidTransition)
		return
	}
	i, err := position(arg, len(week.Meals))
	if err != nil {
		b.fail(chatID, err)
		return
	}
	b.send(chatID, formatRecipe(week, i), nil)
}

func (b *Bot) editShoppingAt(ctx context.Context, chatID int64, pos string, edit func(id string) (workflow.State, error)) {
	st, err := b.engine.State(ctx, sessionKey(chatID))
	if err != nil {
		b.fail(chatID, err)
		return
	}
	week := workflow.WeekOf(st)
	if week == nil {
		b.fail(chatID, workflow.ErrInvalidTransition)
		return
	}
	i, err := position(pos, len(week.ShoppingList))
	if err != nil {
		b.fail(chatID, workflow.ErrShoppingItemNotFound)
		return
	}
	next, err := edit(week.ShoppingList[i].ID)
	b.show(chatID, next, err)
}

func (b *Bot) handleLeftovers(ctx context.Context, chatID int64) {
	st, err := b.engine.State(ctx, sessionKey(chatID))
	if err != nil {
		b.fail(chatID, err)
		return
	}
	done, ok := st.(workflow.WeekCompleted)
	if !ok {
		b.send(chatID, "🥡 Leftovers are worked out once every meal of the week is cooked.", nil)
		return
	}
	b.send(chatID, formatLeftovers(done.Leftovers), nil)
}

func (b *Bot) showHistory(chatID int64, title string, entries []history.Entry, err error) {
	if err != nil {
		b.fail(chatID, err)
		return
	}
	text, markup := formatHistory(title, entries)
	b.send(chatID, text, markup)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}
	if query.Message == nil {
		return
	}

	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID
	key := sessionKey(chatID)
	action, data, _ := strings.Cut(query.Data, "|")

	var st workflow.State
	var err error
	switch action {
	case "start":
		st, err = b.engine.Start(ctx, key)
	case "plan":
		i, convErr := index(data)
		if convErr != nil || i < 0 || i >= len(workflow.PlanOptions) {
			b.fail(chatID, workflow.ErrInvalidSelection)
			return
		}
		st, err = b.engine.ChoosePlanType(ctx, key, workflow.PlanOptions[i])
	case "custom":
		st, err = b.engine.RequestCustomPlanType(ctx, key)
	case "back":
		st, err = b.engine.BackToPlanTypes(ctx, key)
	case "meals":
		n, convErr := index(data)
		if convErr != nil {
			b.fail(chatID, convErr)
			return
		}
		st, err = b.engine.ChooseMealsPerDay(ctx, key, n)
	case "people":
		n, convErr := index(data)
		if convErr != nil {
			b.fail(chatID, convErr)
			return
		}
		st, err = b.engine.ChoosePeopleCount(ctx, key, n)
	case "skill":
		b.edit(chatID, messageID, generatingText, nil)
		st, err = b.engine.ChooseSkillLevel(ctx, key, planner.SkillLevel(data))
	case "refresh":
		i, convErr := index(data)
		if convErr != nil {
			b.fail(chatID, convErr)
			return
		}
		st, err = b.engine.RefreshMeal(ctx, key, i)
	case "accept":
		b.edit(chatID, messageID, "🛒 *Building your shopping list...*", nil)
		st, err = b.engine.AcceptMenu(ctx, key)
	case "toggle":
		st, err = b.engine.ToggleShoppingItem(ctx, key, data)
	case "startweek":
		st, err = b.engine.StartWeek(ctx, key)
	case "ready":
		st, err = b.engine.ConfirmReady(ctx, key)
	case "done":
		i, convErr := index(data)
		if convErr != nil {
			b.fail(chatID, convErr)
			return
		}
		b.edit(chatID, messageID, fmt.Sprintf("How was meal %d? Rate it to mark it cooked.", i+1), ratingKeyboard(i))
		return
	case "rate":
		st, err = b.rate(ctx, key, data)
	case "save":
		if _, err := b.engine.SaveWeek(ctx, key); err != nil {
			b.fail(chatID, err)
			return
		}
		b.edit(chatID, messageID, workflow.SavedReply, startKeyboard())
		return
	case "hview", "hfav", "hdel", "hreuse":
		b.handleHistoryCallback(ctx, chatID, messageID, action, data)
		return
	default:
		b.logger.Warn("Unknown callback", zap.String("data", query.Data))
		return
	}

	if err != nil {
		b.fail(chatID, err)
	}
	if st != nil {
		text, markup := renderState(st, b.engine.MealsPerDayOptions())
		b.edit(chatID, messageID, text, markup)
	}
}

// rate completes meal i with rating r, or re-rates it if already cooked.
// data is "i|r".
func (b *Bot) rate(ctx context.Context, key, data string) (workflow.State, error) {
	rawIdx, rawRating, _ := strings.Cut(data, "|")
	i, err := index(rawIdx)
	if err != nil {
		return nil, err
	}
	r, err := index(rawRating)
	if err != nil {
		return nil, err
	}

	st, err := b.engine.CompleteMeal(ctx, key, i, r, "")
	if errors.Is(err, workflow.ErrMealAlreadyCompleted) || errors.Is(err, workflow.ErrInvalidTransition) {
		return b.engine.RateMeal(ctx, key, i, r, "")
	}
	return st, err
}

func (b *Bot) handleHistoryCallback(ctx context.Context, chatID int64, messageID int, action, id string) {
	key := sessionKey(chatID)
	switch action {
	case "hview":
		e, err := b.history.Get(ctx, key, id)
		if err != nil {
			b.fail(chatID, err)
			return
		}
		b.send(chatID, formatEntry(e), nil)
		return
	case "hreuse":
		e, err := b.history.Get(ctx, key, id)
		if err != nil {
			b.fail(chatID, err)
			return
		}
		st, err := b.engine.ReuseEntry(ctx, key, e)
		if err != nil {
			b.fail(chatID, err)
			return
		}
		text, markup := renderState(st, b.engine.MealsPerDayOptions())
		b.edit(chatID, messageID, text, markup)
		return
	case "hfav":
		if _, err := b.history.ToggleFavorite(ctx, key, id); err != nil {
			b.fail(chatID, err)
			return
		}
	case "hdel":
		if err := b.history.Delete(ctx, key, id); err != nil {
			b.fail(chatID, err)
			return
		}
	}

	entries, err := b.history.List(ctx, key)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	text, markup := formatHistory("Your saved weeks", entries)
	b.edit(chatID, messageID, text, markup)
}

// show sends the screen for st, preceded by the user-facing error text.
func (b *Bot) show(chatID int64, st workflow.State, err error) {
	if err != nil {
		b.fail(chatID, err)
	}
	if st == nil {
		return
	}
	text, markup := renderState(st, b.engine.MealsPerDayOptions())
	b.send(chatID, text, markup)
}

// fail reports err to the chat. Stale results are dropped silently.
func (b *Bot) fail(chatID int64, err error) {
	text := workflow.UserMessage(err)
	if text == "" {
		b.logger.Debug("Dropped stale result", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	b.logger.Warn("Request failed", zap.Int64("chat_id", chatID), zap.Error(err))
	b.send(chatID, "❌ "+text, nil)
}

func (b *Bot) send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("Failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

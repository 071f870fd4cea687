package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"menu-planner/internal/app"
	"menu-planner/internal/config"
	"menu-planner/internal/metrics"
	"menu-planner/internal/notify"
	"menu-planner/internal/planner"
)

// MenuService is the part of the app the bot drives.
type MenuService interface {
	Generate(ctx context.Context, ownerID string) (planner.WeekMenu, error)
	RegenerateMeal(ctx context.Context, ownerID string, day int, kind planner.MealKind) (planner.Meal, error)
	RegenerateComponent(ctx context.Context, ownerID string, day int, kind planner.MealKind, comp planner.Component) (planner.Course, error)
	DisplayWeek(ctx context.Context, ownerID string, today int) ([]planner.DisplayDay, error)
	Day(ctx context.Context, ownerID string, day int) (planner.Meal, error)
	ClearHistory(ctx context.Context, ownerID string) error
}

// UsageReporter backs the /metrics command.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// messenger is the subset of *tgbotapi.BotAPI the bot uses.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the menu service.
type Bot struct {
	api     messenger
	menus   MenuService
	usage   UsageReporter
	allowed map[int64]struct{}
	dataDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg config.TelegramConfig, menus MenuService, usage UsageReporter, dataDir string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	if cfg.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.WebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.WebhookURL, err)
		}
		logger.Info("Webhook set", zap.String("description", resp.Description))
	}

	return newBot(api, menus, usage, cfg.AllowedUsers, dataDir, logger), nil
}

func newBot(api messenger, menus MenuService, usage UsageReporter, allowedUsers []int64, dataDir string, logger *zap.Logger) *Bot {
	allowed := make(map[int64]struct{}, len(allowedUsers))
	for _, id := range allowedUsers {
		allowed[id] = struct{}{}
	}
	return &Bot{
		api:     api,
		menus:   menus,
		usage:   usage,
		allowed: allowed,
		dataDir: dataDir,
		logger:  logger,
		now:     time.Now,
	}
}

// WebhookHandler receives updates pushed by Telegram.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			b.logger.Warn("Error parsing update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), time.Minute)
		go func() {
			defer cancel()
			b.HandleUpdate(ctx, update)
		}()
	}
}

// HandleUpdate processes one update from an allowed user.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.isAllowed(update.CallbackQuery.From) {
			return
		}
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) {
			return
		}
		b.processMessage(ctx, update.Message)
	}
}

func (b *Bot) isAllowed(user *tgbotapi.User) bool {
	if user == nil {
		return false
	}
	if _, ok := b.allowed[user.ID]; ok {
		return true
	}
	b.logger.Warn("Unauthorized access attempt", zap.Int64("user_id", user.ID), zap.String("username", user.UserName))
	return false
}

func ownerOf(user *tgbotapi.User) string {
	return strconv.FormatInt(user.ID, 10)
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	owner := ownerOf(msg.From)
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText, nil)
	case "week":
		b.sendWeek(ctx, chatID, owner)
	case "today":
		b.sendDay(ctx, chatID, owner, planner.TodayIndex(b.now()))
	case "tomorrow":
		b.sendDay(ctx, chatID, owner, notify.TomorrowIndex(b.now()))
	case "generate":
		if _, err := b.menus.Generate(ctx, owner); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.sendWeek(ctx, chatID, owner)
	case "regen":
		b.handleRegenCommand(ctx, chatID, owner, msg.CommandArguments())
	case "clearhistory":
		if err := b.menus.ClearHistory(ctx, owner); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.reply(chatID, "🧹 Regeneration history cleared.", nil)
	case "metrics":
		b.handleMetricsCommand(ctx, chatID)
	default:
		b.reply(chatID, helpText, nil)
	}
}

const helpText = "🍽 *Weekly Menu*\n\n" +
	"/week - this week starting today\n" +
	"/today - today's meals\n" +
	"/tomorrow - tomorrow's meals\n" +
	"/generate - plan a fresh week\n" +
	"/regen <day> <meal> [primary|vegetable|both] - swap a meal or one dish\n" +
	"/clearhistory - forget recently swapped dishes"

// regenRequest is a parsed /regen command or regen callback.
type regenRequest struct {
	day       int
	kind      planner.MealKind
	component planner.Component // empty for a whole meal
}

func parseRegenArgs(fields []string) (regenRequest, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return regenRequest{}, errors.New("usage: /regen <day> <meal> [primary|vegetable|both]")
	}
	day, err := planner.ParseDay(fields[0])
	if err != nil {
		return regenRequest{}, err
	}
	kind, err := planner.ParseMealKind(fields[1])
	if err != nil {
		return regenRequest{}, err
	}
	req := regenRequest{day: day, kind: kind}
	if len(fields) == 3 && fields[2] != "-" {
		if req.component, err = planner.ParseComponent(fields[2]); err != nil {
			return regenRequest{}, err
		}
	}
	return req, nil
}

func (b *Bot) handleRegenCommand(ctx context.Context, chatID int64, owner, args string) {
	req, err := parseRegenArgs(strings.Fields(args))
	if err != nil {
		b.reply(chatID, "❌ "+tgbotapi.EscapeText(tgbotapi.ModeMarkdown, err.Error()), nil)
		return
	}
	text, markup, err := b.regenerate(ctx, owner, req)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, text, markup)
}

// handleCallbackQuery handles "regen|day|meal|component" button presses.
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := strings.Split(query.Data, "|")
	if len(parts) != 4 || parts[0] != "regen" {
		return
	}

	req, err := parseRegenArgs(parts[1:])
	if err != nil {
		b.api.Request(tgbotapi.NewCallback(query.ID, err.Error()))
		return
	}

	text, markup, err := b.regenerate(ctx, ownerOf(query.From), req)
	if err != nil {
		b.api.Request(tgbotapi.NewCallback(query.ID, errorText(err)))
		return
	}
	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	if query.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to edit message", zap.Error(err))
	}
}

func (b *Bot) regenerate(ctx context.Context, owner string, req regenRequest) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	var err error
	if req.component == "" {
		_, err = b.menus.RegenerateMeal(ctx, owner, req.day, req.kind)
	} else {
		_, err = b.menus.RegenerateComponent(ctx, owner, req.day, req.kind, req.component)
	}
	if err != nil {
		return "", nil, err
	}
	meal, err := b.menus.Day(ctx, owner, req.day)
	if err != nil {
		return "", nil, err
	}
	day := planner.DisplayDay{Index: req.day, Name: planner.DayName(req.day), Meal: meal}
	return "🔄 *Updated*\n\n" + formatDay(day), dayKeyboard(req.day), nil
}

func (b *Bot) sendWeek(ctx context.Context, chatID int64, owner string) {
	days, err := b.menus.DisplayWeek(ctx, owner, planner.TodayIndex(b.now()))
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, formatWeek(days), nil)
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, owner string, day int) {
	meal, err := b.menus.Day(ctx, owner, day)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	text := formatDay(planner.DisplayDay{Index: day, Name: planner.DayName(day), Meal: meal})
	b.reply(chatID, text, dayKeyboard(day))
}

// SendReminder delivers a reminder to the owner's private chat. Owners that
// are not allowed Telegram users are skipped.
func (b *Bot) SendReminder(_ context.Context, ownerID string, msg notify.Message) error {
	chatID, err := strconv.ParseInt(ownerID, 10, 64)
	if err != nil {
		return nil
	}
	if _, ok := b.allowed[chatID]; !ok {
		return nil
	}
	text := fmt.Sprintf("🔔 *%s*\n%s",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, msg.Title),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, msg.Body))
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("failed to send reminder to chat %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	if b.usage == nil {
		b.reply(chatID, "_Metrics are not enabled_", nil)
		return
	}
	usage, err := b.usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Warn("Failed to fetch metrics", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.", nil)
		return
	}
	b.reply(chatID, formatUsageReport(usage, metrics.GetSysHealth(b.dataDir)), nil)
}

func (b *Bot) reply(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyError(chatID int64, err error) {
	if !isUserError(err) {
		b.logger.Error("Menu operation failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.reply(chatID, errorText(err), nil)
}

func isUserError(err error) bool {
	return errors.Is(err, app.ErrRegenerationInFlight) ||
		errors.Is(err, app.ErrNoMenu) ||
		errors.Is(err, planner.ErrInvalidDay) ||
		errors.Is(err, planner.ErrInvalidMealKind) ||
		errors.Is(err, planner.ErrInvalidComponent)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, app.ErrRegenerationInFlight):
		return "⏳ Another regeneration is in progress. Try again in a moment."
	case errors.Is(err, app.ErrNoMenu):
		return "🗓 No menu yet. Send /generate to plan your week."
	case isUserError(err):
		return "❌ " + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, err.Error())
	default:
		return "❌ Something went wrong. Please try again."
	}
}

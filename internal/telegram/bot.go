package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"mealgrid/internal/app"
	"mealgrid/internal/auth"
	"mealgrid/internal/config"
	"mealgrid/internal/plan"
	"mealgrid/internal/recipe"
	"mealgrid/internal/shopping"
	"mealgrid/internal/transfer"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API and the meal grid application. Each allowed
// Telegram user gets an authenticated editing session for the current week;
// inline keyboards drive the day/slot selection path.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
	cfg *config.Config

	mu       sync.Mutex
	sessions map[int64]*userSession
}

// userSession holds one Telegram user's active week.
type userSession struct {
	auth     *auth.Session
	plans    *plan.Session
	engine   *plan.Engine
	protocol *transfer.Protocol
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, application *app.App) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:      bot,
		app:      application,
		cfg:      cfg,
		sessions: make(map[int64]*userSession),
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		if b.allowed(update.CallbackQuery.From.ID) {
			b.handleCallbackQuery(update.CallbackQuery)
		}
		return
	}

	if update.Message == nil {
		return
	}

	if !b.allowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) allowed(userID int64) bool {
	return userID == b.cfg.TelegramAllowUserID || userID == b.cfg.AdminTelegramID
}

// session returns the user's editing session, creating one for the current
// week on first contact.
func (b *Bot) session(userID int64) (*userSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[userID]; ok {
		return s, nil
	}

	authSess := auth.NewSession(fmt.Sprintf("%d", userID))
	planSess := b.app.NewPlanSession(authSess)
	engine, err := planSess.Navigate(context.Background(), time.Now())
	if err != nil {
		// Load failures still yield a usable empty grid; surface and go on.
		log.Printf("Warning: %v", err)
	}

	s := &userSession{
		auth:     authSess,
		plans:    planSess,
		engine:   engine,
		protocol: transfer.NewProtocol(engine),
	}
	b.sessions[userID] = s
	return s, nil
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/metrics":
		b.handleMetricsRequest(msg)
	case text == "/plan" || text == "/start":
		b.handlePlanRequest(msg)
	case text == "/shop":
		b.handleShopRequest(msg)
	case text == "/clear":
		b.handleClearRequest(msg)
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleImportRequest(msg)
	default:
		b.handleAssignRequest(msg)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.app.Metrics().GetDailyUsage(7)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Usage Report*\n\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d items (%d lists)\n", d.Date, d.TotalItems, d.TotalCalls))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message) {
	s, err := b.session(msg.From.ID)
	if err != nil {
		b.sendError(msg.Chat.ID, "loading plan", err)
		return
	}
	b.send(msg.Chat.ID, formatGridMarkdown(s.engine))
}

func (b *Bot) handleShopRequest(msg *tgbotapi.Message) {
	s, err := b.session(msg.From.ID)
	if err != nil {
		b.sendError(msg.Chat.ID, "loading plan", err)
		return
	}

	status := b.sendAndReturn(msg.Chat.ID, "🛒 *Building your shopping list...*")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	list, err := b.app.AggregateWeek(ctx, s.auth, s.engine)
	if err != nil {
		b.editError(msg.Chat.ID, status, "building shopping list", err)
		return
	}
	b.edit(msg.Chat.ID, status, formatShoppingListMarkdown(s.engine.WeekKey(), list))
}

// handleClearRequest asks for confirmation before wiping the week; clearing
// is destructive and persists immediately once confirmed.
func (b *Bot) handleClearRequest(msg *tgbotapi.Message) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, clear the week", "clear|yes"),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "clear|no"),
		),
	)
	reply := tgbotapi.NewMessage(msg.Chat.ID, "⚠️ Clear every meal from this week?")
	reply.ReplyMarkup = keyboard
	b.api.Send(reply)
}

func (b *Bot) handleImportRequest(msg *tgbotapi.Message) {
	s, err := b.session(msg.From.ID)
	if err != nil {
		b.sendError(msg.Chat.ID, "loading session", err)
		return
	}

	status := b.sendAndReturn(msg.Chat.ID, "✂️ *Importing recipe...*")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	rec, err := b.app.ImportRecipe(ctx, s.auth, msg.Text)
	if err != nil {
		b.editError(msg.Chat.ID, status, "importing recipe", err)
		return
	}
	b.edit(msg.Chat.ID, status, fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Ingredients:* %d", rec.Title, len(rec.Ingredients)))
}

// handleAssignRequest treats plain text as a recipe search and starts the
// selection path: recipe, then day, then slot.
func (b *Bot) handleAssignRequest(msg *tgbotapi.Message) {
	s, err := b.session(msg.From.ID)
	if err != nil {
		b.sendError(msg.Chat.ID, "loading session", err)
		return
	}

	ctx := context.Background()
	recipes, err := b.app.SearchRecipes(ctx, s.auth, msg.Text, 0)
	if err != nil {
		b.sendError(msg.Chat.ID, "searching recipes", err)
		return
	}
	if len(recipes) == 0 {
		b.send(msg.Chat.ID, "🔍 No recipes matched. Send a recipe URL to import one.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, rec := range recipes {
		if i == 8 {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(rec.Title, "day|"+rec.ID),
		))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, "Which recipe do you want to plan?")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.api.Send(reply)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	s, err := b.session(query.From.ID)
	if err != nil {
		b.sendError(query.Message.Chat.ID, "loading session", err)
		return
	}

	parts := strings.Split(query.Data, "|")
	if len(parts) < 2 {
		return
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch parts[0] {
	case "clear":
		if parts[1] == "yes" {
			s.engine.ClearAll()
			b.edit(chatID, messageID, "🗑 Week cleared.")
		} else {
			b.edit(chatID, messageID, "Kept your plan.")
		}

	case "day":
		recipeID := parts[1]
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, day := range plan.Days() {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(titleCase(string(day)), fmt.Sprintf("slot|%s|%s", recipeID, day)),
			))
		}
		b.editWithKeyboard(chatID, messageID, "Which day?", tgbotapi.NewInlineKeyboardMarkup(rows...))

	case "slot":
		if len(parts) < 3 {
			return
		}
		recipeID, day := parts[1], parts[2]
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, slot := range plan.MealSlots() {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(titleCase(string(slot)), fmt.Sprintf("go|%s|%s|%s", recipeID, day, slot)),
			))
		}
		b.editWithKeyboard(chatID, messageID, "Which meal?", tgbotapi.NewInlineKeyboardMarkup(rows...))

	case "go":
		if len(parts) < 4 {
			return
		}
		b.completeSelection(s, chatID, messageID, parts[1], plan.Day(parts[2]), plan.MealSlot(parts[3]))
	}
}

// completeSelection finishes the selection path: the confirmed (day, slot)
// and recipe are forwarded to the assignment request.
func (b *Bot) completeSelection(s *userSession, chatID int64, messageID int, recipeID string, day plan.Day, slot plan.MealSlot) {
	if !plan.ValidDay(day) || !plan.ValidMealSlot(slot) {
		// Stale or malformed callback; discard like any invalid target.
		return
	}

	ctx := context.Background()
	recPtr, err := b.recipeByID(ctx, s, recipeID)
	if err != nil {
		b.editError(chatID, messageID, "assigning recipe", err)
		return
	}
	if recPtr == nil {
		b.edit(chatID, messageID, "❌ That recipe is gone from your collection.")
		return
	}

	sel := transfer.NewSelection(*recPtr)
	sel.Day = day
	sel.Slot = slot
	sel.Confirm(s.protocol)

	b.edit(chatID, messageID, fmt.Sprintf("✅ *%s* planned for *%s %s*.", recPtr.Title, day, slot))
}

func (b *Bot) recipeByID(ctx context.Context, s *userSession, id string) (*recipe.Recipe, error) {
	recipes, err := b.app.SavedRecipes(ctx, s.auth)
	if err != nil {
		return nil, err
	}
	for _, rec := range recipes {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, nil
}

func formatGridMarkdown(engine *plan.Engine) string {
	assignments := engine.AllAssignments()
	if len(assignments) == 0 {
		return fmt.Sprintf("📅 *Week of %s*\n\n_Nothing planned yet. Send a recipe name to get started._", engine.WeekKey())
	}

	byCell := make(map[plan.Day]map[plan.MealSlot]plan.MealAssignment)
	for _, a := range assignments {
		if byCell[a.Day] == nil {
			byCell[a.Day] = make(map[plan.MealSlot]plan.MealAssignment)
		}
		byCell[a.Day][a.Slot] = a
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Week of %s*\n\n", engine.WeekKey()))
	for _, day := range plan.Days() {
		slots, ok := byCell[day]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("*%s*\n", titleCase(string(day))))
		for _, slot := range plan.MealSlots() {
			if a, ok := slots[slot]; ok {
				sb.WriteString(fmt.Sprintf("  • %s: %s\n", slot, a.Recipe.Title))
			}
		}
	}
	return sb.String()
}

func formatShoppingListMarkdown(key plan.WeekKey, list *shopping.ShoppingList) string {
	if list.TotalItems == 0 {
		return "🛒 _Nothing to buy — the week is empty._"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *Shopping List — week of %s*\n\n", key))
	for _, cat := range list.Categories {
		sb.WriteString(fmt.Sprintf("*%s*\n", cat.Name))
		for _, item := range cat.Items {
			sb.WriteString(fmt.Sprintf("  • %s\n", item))
		}
	}
	sb.WriteString(fmt.Sprintf("\n*Total:* %d items", list.TotalItems))
	if list.EstimatedCost != "" {
		sb.WriteString(fmt.Sprintf(" | *Est. cost:* %s", list.EstimatedCost))
	}
	return sb.String()
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

func (b *Bot) sendAndReturn(chatID int64, text string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Failed to send message: %v", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) editWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	b.api.Send(edit)
}

func (b *Bot) sendError(chatID int64, action string, err error) {
	log.Printf("Error %s: %v", action, err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.send(chatID, fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr))
}

func (b *Bot) editError(chatID int64, messageID int, action string, err error) {
	log.Printf("Error %s: %v", action, err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.edit(chatID, messageID, fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

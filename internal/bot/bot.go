package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/service"
)

const (
	cbDonePrefix      = "done:"
	cbRebalancePrefix = "rebalance:"
)

const (
	btnConfirm           = "✅ Confirm"
	btnCancel            = "↩️ Cancel"
	menuLabelToday       = "📚 Today"
	menuLabelPlans       = "📅 Plans"
	menuLabelAssignments = "📝 Assignments"
	menuLabelHelp        = "ℹ️ Help"
)

const notLinkedText = "🔗 This chat is not linked to a study planner account yet.\n" +
	"Request a link code in the app and send it here as <code>/start &lt;code&gt;</code>."

type confirmationAction int

const (
	actionRebalance confirmationAction = iota
)

type confirmationRequest struct {
	planID string
	action confirmationAction
}

// sender is the part of the Telegram API the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the planner services the bot talks to.
type Services struct {
	Users       *service.UserService
	Assignments *service.AssignmentService
	Plans       *service.PlanService
	Reminders   *service.ReminderService
	Clock       planner.Clock
	Logger      logger.Logger
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           sender
	svc           Services
	log           logger.Logger
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

var _ service.Notifier = (*Bot)(nil)

func New(token string, svc Services) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create bot api")
	}
	b := newBot(api, svc)
	b.api = api
	b.log.Info("bot authorized", api.Self.UserName)
	return b, nil
}

func newBot(out sender, svc Services) *Bot {
	if svc.Logger == nil {
		svc.Logger = logger.Nop
	}
	if svc.Clock == nil {
		svc.Clock = planner.SystemClock(nil)
	}
	return &Bot{
		out:           out,
		svc:           svc,
		log:           svc.Logger,
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", err)
		}
	}
}

// Notify delivers a reminder to a linked chat.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	return b.sendText(chatID, text)
}

// SendDailySummaries sends the daily summary to every linked user that keeps
// notifications on.
func (b *Bot) SendDailySummaries(ctx context.Context) error {
	users, err := b.svc.Users.Linked(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !user.Preferences.NotificationsEnabled {
			continue
		}
		text, err := b.svc.Reminders.DailySummary(ctx, user)
		if err != nil {
			b.log.Error("build summary", err, user)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.log.Warn("send summary", err, user)
		}
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.Debug("command", msg.From.ID, msg.Command(), msg.CommandArguments())
		b.clearConfirmation(msg.From.ID)
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "plans":
		return b.handlePlans(ctx, msg)
	case "rebalance":
		return b.handleRebalance(ctx, msg)
	case "assignments":
		return b.handleAssignments(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		user, err := b.svc.Users.GetByTelegramID(ctx, msg.From.ID)
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(msg.Chat.ID, notLinkedText)
		}
		if err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("👋 Welcome back, %s!\n\n%s", escape(displayName(user, msg.From)), helpText))
	}

	user, err := b.svc.Users.LinkTelegram(ctx, code, msg.From.ID)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, service.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "❌ The link code is invalid or expired. Request a new one in the app.")
		}
		return err
	}
	b.log.Info("chat linked", msg.From.ID, user)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Linked! Hi %s, I will send your study reminders here.\n\n%s", escape(displayName(user, msg.From)), helpText))
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /today — today's sessions, tap a button to mark one done\n" +
	"• /done &lt;session-id&gt; — mark a session done\n" +
	"• /plans — active study plans\n" +
	"• /rebalance [plan-id] — reschedule missed sessions\n" +
	"• /assignments — open assignments by due date\n" +
	"• /report — daily summary\n" +
	"• /start &lt;code&gt; — link this chat to your account"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return err
	}
	text, err := b.svc.Reminders.DailySummary(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the summary: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return err
	}
	return b.sendToday(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendToday(ctx context.Context, chatID int64, user model.User) error {
	sessions, err := b.svc.Plans.Today(ctx, user.ID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load today's sessions: %s", escape(err.Error())))
	}
	if len(sessions) == 0 {
		return b.sendText(chatID, "Nothing planned for today. Generate a plan in the app.")
	}

	var builder strings.Builder
	builder.WriteString("📚 <b>Today's sessions</b>\n")
	builder.WriteString("Tap a button once a session is done.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, planned := range sessions {
		s := planned.Session
		builder.WriteString(service.FormatSession(s))
		if s.Completed || s.Kind == model.KindBreak {
			continue
		}
		label := fmt.Sprintf("✅ %s · %s", s.StartTime, shortTitle(s.Subject, 24))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbDonePrefix+s.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.out.Send(msg)
	return err
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return err
	}
	sessionID := strings.TrimSpace(msg.CommandArguments())
	if sessionID == "" {
		return b.sendText(msg.Chat.ID, "Tell me which session, for example <code>/done 3f2c…</code>, or use the buttons under /today.")
	}
	return b.completeSession(ctx, msg.Chat.ID, user, sessionID)
}

func (b *Bot) completeSession(ctx context.Context, chatID int64, user model.User, sessionID string) error {
	plan, err := b.svc.Plans.CompleteSession(ctx, user.ID, sessionID)
	switch {
	case errors.Is(err, planner.ErrSessionNotFound):
		return b.sendText(chatID, "Session not found in your active plans.")
	case errors.Is(err, service.ErrConflict):
		return b.sendText(chatID, "The plan changed in the meantime, please try again.")
	case err != nil:
		return err
	}
	total, completed := plan.Schedule.SessionCount()
	return b.sendText(chatID, fmt.Sprintf("🎉 Session done! %d/%d sessions completed, adherence %d%%.", completed, total, plan.AdherenceScore))
}

func (b *Bot) handlePlans(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return err
	}
	plans, err := b.svc.Plans.List(ctx, user.ID, model.PlanActive)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return b.sendText(msg.Chat.ID, "You have no active plans. Generate one in the app.")
	}

	var builder strings.Builder
	builder.WriteString("📅 <b>Active plans</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, plan := range plans {
		builder.WriteString(formatPlan(plan))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🔁 Rebalance %s", plan.StartDate.Format(model.DateLayout)),
				cbRebalancePrefix+plan.ID,
			),
		))
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.out.Send(out)
	return err
}

// handleRebalance rebalances the named plan, or every active plan.
func (b *Bot) handleRebalance(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return err
	}
	if planID := strings.TrimSpace(msg.CommandArguments()); planID != "" {
		return b.rebalance(ctx, msg.Chat.ID, user, planID)
	}

	plans, err := b.svc.Plans.List(ctx, user.ID, model.PlanActive)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return b.sendText(msg.Chat.ID, "You have no active plans to rebalance.")
	}
	for _, plan := range plans {
		if err := b.rebalance(ctx, msg.Chat.ID, user, plan.ID); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) rebalance(ctx context.Context, chatID int64, user model.User, planID string) error {
	plan, changed, err := b.svc.Plans.Rebalance(ctx, user.ID, planID)
	var vErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden):
		return b.sendText(chatID, "Plan not found.")
	case errors.As(err, &vErr):
		return b.sendText(chatID, escape(vErr.Error()))
	case errors.Is(err, service.ErrConflict):
		return b.sendText(chatID, "The plan changed in the meantime, please try again.")
	case err != nil:
		return err
	}
	period := fmt.Sprintf("%s → %s", plan.StartDate.Format(model.DateLayout), plan.EndDate.Format(model.DateLayout))
	if !changed {
		return b.sendText(chatID, fmt.Sprintf("👍 Plan %s is on track, nothing to rebalance.", period))
	}
	return b.sendText(chatID, fmt.Sprintf("🔁 Plan %s was rebalanced from today on. See /today.", period))
}

func (b *Bot) handleAssignments(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return err
	}
	open, err := b.svc.Assignments.Open(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return b.sendText(msg.Chat.ID, "No open assignments. 🎉")
	}

	now := b.svc.Clock.Now()
	var builder strings.Builder
	builder.WriteString("📝 <b>Open assignments</b>\n\n")
	for _, a := range open {
		builder.WriteString(service.FormatAssignment(a, now))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", err)
	}

	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		user, ok, err := b.linkedUser(ctx, chatID, cb.From)
		if !ok {
			return err
		}
		if err := b.completeSession(ctx, chatID, user, strings.TrimPrefix(cb.Data, cbDonePrefix)); err != nil {
			return err
		}
		return b.sendToday(ctx, chatID, user)
	case strings.HasPrefix(cb.Data, cbRebalancePrefix):
		if _, ok, err := b.linkedUser(ctx, chatID, cb.From); !ok {
			return err
		}
		planID := strings.TrimPrefix(cb.Data, cbRebalancePrefix)
		b.setConfirmation(cb.From.ID, confirmationRequest{planID: planID, action: actionRebalance})
		return b.sendWithReplyMarkup(chatID, "Reschedule the missed sessions of this plan from today on?", confirmKeyboard())
	default:
		return nil
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	switch {
	case isConfirmInput(msg.Text):
		b.clearConfirmation(msg.From.ID)
		user, ok, err := b.linkedUser(ctx, msg.Chat.ID, msg.From)
		if !ok {
			return err
		}
		switch req.action {
		case actionRebalance:
			return b.rebalance(ctx, msg.Chat.ID, user, req.planID)
		}
		return nil
	case isCancelInput(msg.Text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Cancelled.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Please confirm or cancel.", confirmKeyboard())
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(ctx, msg)
	case strings.ToLower(menuLabelPlans):
		return true, b.handlePlans(ctx, msg)
	case strings.ToLower(menuLabelAssignments):
		return true, b.handleAssignments(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// linkedUser resolves the account behind a chat. When the chat is not linked
// the user is told how to link it and ok is false.
func (b *Bot) linkedUser(ctx context.Context, chatID int64, from *tgbotapi.User) (model.User, bool, error) {
	user, err := b.svc.Users.GetByTelegramID(ctx, from.ID)
	if errors.Is(err, service.ErrNotFound) {
		return model.User{}, false, b.sendText(chatID, notLinkedText)
	}
	if err != nil {
		return model.User{}, false, err
	}
	return user, true, nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelPlans),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelAssignments),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func formatPlan(plan model.StudyPlan) string {
	total, completed := plan.Schedule.SessionCount()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>%s → %s</b> (%s)\n",
		plan.StartDate.Format(model.DateLayout), plan.EndDate.Format(model.DateLayout), escape(plan.PlanType)))
	b.WriteString(fmt.Sprintf("   %d/%d sessions · adherence %d%%\n", completed, total, plan.AdherenceScore))
	b.WriteString(fmt.Sprintf("   id: <code>%s</code>\n\n", plan.ID))
	return b.String()
}

func displayName(user model.User, from *tgbotapi.User) string {
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		return name
	}
	if from != nil {
		if name := strings.TrimSpace(from.FirstName); name != "" {
			return name
		}
	}
	return "there"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
	"study-planner/internal/service"
)

const chatID int64 = 4242

// wednesday is 2026-01-07 10:00 UTC.
var wednesday = time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type testEnv struct {
	bot *Bot
	out *fakeSender
	svc Services
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:bot_%s?mode=memory&cache=shared", name), logger.Nop)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	clock := planner.ClockFunc(func() time.Time { return wednesday })
	stores := repository.NewGormStores(db)
	plans := service.NewPlanService(service.PlanServiceOptions{
		Plans:       stores.Plans,
		Users:       stores.Users,
		Assignments: stores.Assignments,
		Synthesizer: planner.NewSynthesizer(planner.UnavailableOracle),
		Clock:       clock,
		AIModel:     "test-model",
		Logger:      logger.Nop,
	})
	svc := Services{
		Users:       service.NewUserService(stores, clock, "bot-secret", logger.Nop),
		Assignments: service.NewAssignmentService(stores.Assignments, clock),
		Plans:       plans,
		Reminders:   service.NewReminderService(stores, plans, clock, logger.Nop),
		Clock:       clock,
		Logger:      logger.Nop,
	}
	out := &fakeSender{}
	return &testEnv{bot: newBot(out, svc), out: out, svc: svc}
}

// link registers u1 and links it to chatID.
func (e *testEnv) link(t *testing.T) model.User {
	t.Helper()
	ctx := context.Background()
	_, _, err := e.svc.Users.Register(ctx, "u1", service.NewUser{Email: "u1@example.com", DisplayName: "Ada"})
	require.NoError(t, err)
	code, _, err := e.svc.Users.LinkCode(ctx, "u1")
	require.NoError(t, err)
	user, err := e.svc.Users.LinkTelegram(ctx, code, chatID)
	require.NoError(t, err)
	return user
}

func (e *testEnv) plan(t *testing.T) model.StudyPlan {
	t.Helper()
	plan, err := e.svc.Plans.Generate(context.Background(), "u1", service.GenerateInput{StartDate: "2026-01-05", EndDate: "2026-01-09"})
	require.NoError(t, err)
	return plan
}

func command(text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: chatID, FirstName: "Ada"},
		Chat:     &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func text(value string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatID, FirstName: "Ada"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text: value,
	}
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
		Data:    data,
	}
}

func TestStartLinksChat(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.bot.handleMessage(ctx, command("/start")))
	assert.Equal(t, notLinkedText, env.out.last(t).Text)

	require.NoError(t, env.bot.handleMessage(ctx, command("/today")))
	assert.Equal(t, notLinkedText, env.out.last(t).Text, "commands need a linked chat")

	require.NoError(t, env.bot.handleMessage(ctx, command("/start not-a-code")))
	assert.Contains(t, env.out.last(t).Text, "invalid or expired")

	_, _, err := env.svc.Users.Register(ctx, "u1", service.NewUser{Email: "u1@example.com", DisplayName: "Ada <3"})
	require.NoError(t, err)
	code, _, err := env.svc.Users.LinkCode(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, env.bot.handleMessage(ctx, command("/start "+code)))
	reply := env.out.last(t)
	assert.Equal(t, chatID, reply.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, reply.ParseMode)
	assert.Contains(t, reply.Text, "Linked! Hi Ada &lt;3")

	user, err := env.svc.Users.GetByTelegramID(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	require.NoError(t, env.bot.handleMessage(ctx, command("/start")))
	assert.Contains(t, env.out.last(t).Text, "Welcome back")
}

func TestTodayAndDone(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	env.link(t)

	require.NoError(t, env.bot.handleMessage(ctx, command("/today")))
	assert.Contains(t, env.out.last(t).Text, "Nothing planned")

	plan := env.plan(t)
	session := plan.Schedule[2].Sessions[0]

	require.NoError(t, env.bot.handleMessage(ctx, command("/today")))
	reply := env.out.last(t)
	assert.Contains(t, reply.Text, "⬜ 18:00–20:00 Study Session")
	markup, ok := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	button := markup.InlineKeyboard[0][0]
	require.NotNil(t, button.CallbackData)
	assert.Equal(t, cbDonePrefix+session.ID, *button.CallbackData)
	assert.LessOrEqual(t, len(*button.CallbackData), 64, "telegram limits callback data to 64 bytes")

	sent := len(env.out.sent)
	require.NoError(t, env.bot.handleCallback(ctx, callback(*button.CallbackData)))
	assert.Equal(t, 1, env.out.requests, "callbacks are acknowledged")
	require.Len(t, env.out.sent, sent+2)
	assert.Equal(t, "🎉 Session done! 1/5 sessions completed, adherence 20%.", env.out.sent[sent].Text)
	refreshed := env.out.sent[sent+1]
	assert.Contains(t, refreshed.Text, "✅ 18:00–20:00")
	assert.Nil(t, refreshed.ReplyMarkup, "no buttons once everything is done")

	require.NoError(t, env.bot.handleMessage(ctx, command("/done "+plan.Schedule[0].Sessions[0].ID)))
	assert.Contains(t, env.out.last(t).Text, "2/5 sessions completed, adherence 40%")

	require.NoError(t, env.bot.handleMessage(ctx, command("/done nope")))
	assert.Equal(t, "Session not found in your active plans.", env.out.last(t).Text)

	require.NoError(t, env.bot.handleMessage(ctx, command("/done")))
	assert.Contains(t, env.out.last(t).Text, "Tell me which session")
}

func TestPlansAndRebalanceConfirmation(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	env.link(t)
	plan := env.plan(t)

	require.NoError(t, env.bot.handleMessage(ctx, command("/plans")))
	reply := env.out.last(t)
	assert.Contains(t, reply.Text, "2026-01-05 → 2026-01-09")
	assert.Contains(t, reply.Text, "0/5 sessions · adherence 0%")
	markup, ok := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	data := *markup.InlineKeyboard[0][0].CallbackData
	assert.Equal(t, cbRebalancePrefix+plan.ID, data)

	require.NoError(t, env.bot.handleCallback(ctx, callback(data)))
	assert.Contains(t, env.out.last(t).Text, "Reschedule the missed sessions")
	_, pending := env.bot.getConfirmation(chatID)
	require.True(t, pending)

	require.NoError(t, env.bot.handleMessage(ctx, text("maybe")))
	assert.Equal(t, "Please confirm or cancel.", env.out.last(t).Text)

	require.NoError(t, env.bot.handleMessage(ctx, text(btnConfirm)))
	assert.Contains(t, env.out.last(t).Text, "was rebalanced from today on")
	_, pending = env.bot.getConfirmation(chatID)
	assert.False(t, pending)

	stored, err := env.svc.Plans.Get(ctx, "u1", plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)

	require.NoError(t, env.bot.handleCallback(ctx, callback(data)))
	require.NoError(t, env.bot.handleMessage(ctx, text(btnCancel)))
	assert.Equal(t, "Cancelled.", env.out.last(t).Text)

	require.NoError(t, env.bot.handleMessage(ctx, command("/rebalance missing")))
	assert.Equal(t, "Plan not found.", env.out.last(t).Text)
}

func TestAssignmentsAndReport(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	env.link(t)

	require.NoError(t, env.bot.handleMessage(ctx, text(menuLabelAssignments)))
	assert.Equal(t, "No open assignments. 🎉", env.out.last(t).Text)

	_, err := env.svc.Assignments.Create(ctx, "u1", service.AssignmentInput{
		Title:   "Lab report",
		Subject: "Chemistry",
		DueDate: wednesday.Add(30 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, env.bot.handleMessage(ctx, command("/assignments")))
	assert.Contains(t, env.out.last(t).Text, "⏳ Lab report <i>(Chemistry)</i>")

	require.NoError(t, env.bot.handleMessage(ctx, command("/report")))
	assert.Contains(t, env.out.last(t).Text, "Daily summary")

	require.NoError(t, env.bot.handleMessage(ctx, text("hello?")))
	assert.Contains(t, env.out.last(t).Text, "/help")

	require.NoError(t, env.bot.handleMessage(ctx, command("/help")))
	assert.Equal(t, helpText, env.out.last(t).Text)
}

func TestNotifyAndDailySummaries(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.bot.Notify(ctx, 7, "Lab is due in 5 hour(s)"))
	assert.Equal(t, int64(7), env.out.last(t).ChatID)
	assert.Equal(t, "Lab is due in 5 hour(s)", env.out.last(t).Text)

	env.link(t)
	_, _, err := env.svc.Users.Register(ctx, "u2", service.NewUser{Email: "u2@example.com"})
	require.NoError(t, err)

	sent := len(env.out.sent)
	require.NoError(t, env.bot.SendDailySummaries(ctx))
	require.Len(t, env.out.sent, sent+1, "only linked users get a summary")
	assert.Equal(t, chatID, env.out.last(t).ChatID)

	off := false
	_, err = env.svc.Users.UpdatePreferences(ctx, "u1", service.PreferencesUpdate{NotificationsEnabled: &off})
	require.NoError(t, err)
	require.NoError(t, env.bot.SendDailySummaries(ctx))
	assert.Len(t, env.out.sent, sent+1)
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		title  string
		maxLen int
		want   string
	}{
		{title: "Maths", maxLen: 10, want: "Maths"},
		{title: "  Linear\nalgebra  ", maxLen: 20, want: "Linear algebra"},
		{title: "Thermodynamics", maxLen: 6, want: "Therm…"},
		{title: "Физика", maxLen: 1, want: "Ф"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shortTitle(tt.title, tt.maxLen))
	}
}

func TestConfirmationInputs(t *testing.T) {
	assert.True(t, isConfirmInput(btnConfirm))
	assert.True(t, isConfirmInput(" Yes "))
	assert.False(t, isConfirmInput(btnCancel))
	assert.True(t, isCancelInput(btnCancel))
	assert.True(t, isCancelInput("cancel"))
	assert.False(t, isCancelInput("maybe"))
}

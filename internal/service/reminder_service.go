package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/pkg/errors"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
)

const deadlineWindow = 24 * time.Hour

// Notifier pushes a message to a linked Telegram chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// ReminderService builds daily summaries and deadline notifications.
type ReminderService struct {
	stores   repository.Stores
	plans    *PlanService
	clock    planner.Clock
	log      logger.Logger
	notifier Notifier
}

func NewReminderService(stores repository.Stores, plans *PlanService, clock planner.Clock, log logger.Logger) *ReminderService {
	return &ReminderService{stores: stores, plans: plans, clock: clock, log: log}
}

// SetNotifier attaches the chat front end once it exists.
func (s *ReminderService) SetNotifier(n Notifier) {
	s.notifier = n
}

// DailySummary renders today's sessions and the open assignments as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User) (string, error) {
	now := s.clock.Now()
	sessions, err := s.plans.Today(ctx, user.ID)
	if err != nil {
		return "", err
	}
	open, err := s.stores.Assignments.List(ctx, repository.AssignmentFilter{UserID: user.ID, Statuses: model.OpenStatuses})
	if err != nil {
		return "", errors.Wrap(err, "listing assignments")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Monday, 02 Jan 2006")))

	builder.WriteString("📚 <b>Today's sessions</b>\n")
	if len(sessions) == 0 {
		builder.WriteString("— nothing planned\n")
	} else {
		for _, ps := range sessions {
			builder.WriteString(FormatSession(ps.Session))
		}
	}

	builder.WriteString("\n🔥 <b>Open assignments</b>\n")
	if len(open) == 0 {
		builder.WriteString("— no open assignments\n")
	} else {
		for _, a := range open {
			builder.WriteString(FormatAssignment(a, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatSession renders one session line.
func FormatSession(session model.Session) string {
	icon := "⬜"
	if session.Completed {
		icon = "✅"
	}
	title := html.EscapeString(strings.TrimSpace(session.Subject))
	if topic := strings.TrimSpace(session.Topic); topic != "" {
		title += " · " + html.EscapeString(topic)
	}
	line := fmt.Sprintf("%s %s–%s %s", icon, session.StartTime, session.EndTime, title)
	if session.Kind == model.KindBreak {
		line = fmt.Sprintf("☕ %s–%s break", session.StartTime, session.EndTime)
	}
	return line + "\n"
}

// FormatAssignment renders an assignment with a deadline marker.
func FormatAssignment(a model.Assignment, now time.Time) string {
	var sb strings.Builder

	due := a.DueDate.In(now.Location())
	icon := "🟢"
	switch {
	case now.After(due):
		icon = "⚠️"
	case due.Sub(now) <= 48*time.Hour:
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(a.Title))))
	if subject := strings.TrimSpace(a.Subject); subject != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(subject)))
	}

	if now.After(due) {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>overdue</b>", due.Format(model.DateLayout)))
	} else {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · %d day(s) left · %s", due.Format(model.DateLayout), planner.DaysRemaining(a.DueDate, now), a.Priority))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// CheckDeadlines creates one deadline notification per assignment due within
// the next 24 hours, at most once per calendar day, and pushes it to linked
// chats. It returns the number of notifications created.
func (s *ReminderService) CheckDeadlines(ctx context.Context) (int, error) {
	now := s.clock.Now()
	until := now.Add(deadlineWindow)
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	users, err := s.stores.Users.ListAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing users")
	}
	created := 0
	for _, user := range users {
		due, err := s.stores.Assignments.List(ctx, repository.AssignmentFilter{
			UserID:    user.ID,
			Statuses:  model.OpenStatuses,
			DueAfter:  &now,
			DueBefore: &until,
		})
		if err != nil {
			s.log.Error("listing due assignments failed", err, user)
			continue
		}
		for _, a := range due {
			exists, err := s.stores.Notifications.Exists(ctx, user.ID, model.NotificationDeadline, a.ID, startOfDay)
			if err != nil {
				s.log.Error("checking deadline notification failed", err, user)
				continue
			}
			if exists {
				continue
			}
			n := model.Notification{
				UserID:     user.ID,
				Kind:       model.NotificationDeadline,
				Title:      "Assignment due soon",
				Message:    fmt.Sprintf("%s is due in %d hour(s)", a.Title, planner.HoursRemaining(a.DueDate, now)),
				EntityType: "assignment",
				EntityID:   a.ID,
				CreatedAt:  now,
			}
			if err := s.stores.Notifications.Create(ctx, &n); err != nil {
				s.log.Error("creating deadline notification failed", err, user)
				continue
			}
			created++
			s.push(ctx, user, n)
		}
	}
	return created, nil
}

func (s *ReminderService) push(ctx context.Context, user model.User, n model.Notification) {
	if s.notifier == nil || user.TelegramID == 0 || !user.Preferences.NotificationsEnabled {
		return
	}
	text := fmt.Sprintf("⏳ <b>%s</b>\n%s", html.EscapeString(n.Title), html.EscapeString(n.Message))
	if err := s.notifier.Notify(ctx, user.TelegramID, text); err != nil {
		s.log.Warn("telegram notification failed", err, user)
	}
}

func (s *ReminderService) Notifications(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	out, err := s.stores.Notifications.List(ctx, userID, unreadOnly)
	if err != nil {
		return nil, errors.Wrap(err, "listing notifications")
	}
	return out, nil
}

func (s *ReminderService) MarkRead(ctx context.Context, userID, id string) (model.Notification, error) {
	n, err := s.stores.Notifications.Get(ctx, id)
	if err != nil {
		return model.Notification{}, errors.Wrap(err, "finding notification")
	}
	if n.UserID != userID {
		return model.Notification{}, ErrForbidden
	}
	if n.Read {
		return n, nil
	}
	now := s.clock.Now()
	if err := s.stores.Notifications.MarkRead(ctx, id, now); err != nil {
		return model.Notification{}, errors.Wrap(err, "marking notification read")
	}
	n.Read = true
	n.ReadAt = &now
	return n, nil
}

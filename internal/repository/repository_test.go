package repository

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner/internal/logger"
	"study-planner/internal/model"
)

func newTestStores(t *testing.T) Stores {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Nop)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewGormStores(db)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	user := model.User{Email: "ada@example.com", DisplayName: "Ada", Preferences: model.DefaultPreferences(), Habits: model.DefaultHabits()}
	require.NoError(t, stores.Users.Create(ctx, &user))
	require.NotEmpty(t, user.ID)
	other := model.User{Email: "bob@example.com", Preferences: model.DefaultPreferences(), Habits: model.DefaultHabits()}
	require.NoError(t, stores.Users.Create(ctx, &other), "unlinked users do not clash on telegram id")

	got, err := stores.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, model.DefaultPreferences(), got.Preferences)
	assert.Equal(t, model.TimeEvening, got.Habits.PeakProductivityTime)

	got.TelegramID = 4242
	got.Preferences.StudyHoursPerDay = 6
	require.NoError(t, stores.Users.Update(ctx, &got))

	linked, err := stores.Users.GetByTelegramID(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID)
	assert.Equal(t, 6.0, linked.Preferences.StudyHoursPerDay)

	_, err = stores.Users.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	missing := model.User{ID: "missing"}
	assert.ErrorIs(t, stores.Users.Update(ctx, &missing), ErrNotFound)

	all, err := stores.Users.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAssignmentRepositoryList(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	mk := func(user, title, subject, due string, status model.AssignmentStatus, prio model.Priority) model.Assignment {
		a := model.Assignment{
			UserID: user, Title: title, Subject: subject, DueDate: mustDate(t, due),
			EstimatedHours: 2, Status: status, Priority: prio, Topics: []string{"t1"},
		}
		require.NoError(t, stores.Assignments.Create(ctx, &a))
		return a
	}
	late := mk("u1", "Essay", "English", "2026-02-10", model.StatusPending, model.PriorityLow)
	early := mk("u1", "Lab", "Physics", "2026-02-01", model.StatusInProgress, model.PriorityHigh)
	mk("u1", "Quiz", "Physics", "2026-01-20", model.StatusCompleted, model.PriorityUrgent)
	mk("u2", "Other", "Physics", "2026-01-25", model.StatusPending, model.PriorityHigh)

	tests := []struct {
		name   string
		filter AssignmentFilter
		want   []string
	}{
		{name: "all of user", filter: AssignmentFilter{UserID: "u1"}, want: []string{"Quiz", "Lab", "Essay"}},
		{name: "open", filter: AssignmentFilter{UserID: "u1", Statuses: model.OpenStatuses}, want: []string{"Lab", "Essay"}},
		{name: "subject", filter: AssignmentFilter{UserID: "u1", Subject: "Physics"}, want: []string{"Quiz", "Lab"}},
		{name: "priority", filter: AssignmentFilter{UserID: "u1", Priority: model.PriorityLow}, want: []string{"Essay"}},
		{name: "due window", filter: AssignmentFilter{
			DueAfter:  timePtr(mustDate(t, "2026-01-21")),
			DueBefore: timePtr(mustDate(t, "2026-02-05")),
		}, want: []string{"Other", "Lab"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stores.Assignments.List(ctx, tt.filter)
			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, a := range got {
				titles = append(titles, a.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	got, err := stores.Assignments.Get(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, got.Topics)
	assert.True(t, got.DueDate.Equal(mustDate(t, "2026-02-01")))

	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	late.Status = model.StatusCompleted
	late.CompletedAt = &now
	late.ActualHours = 3.5
	require.NoError(t, stores.Assignments.Update(ctx, &late))
	got, err = stores.Assignments.Get(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(now))
	assert.Equal(t, 3.5, got.ActualHours)

	require.NoError(t, stores.Assignments.Delete(ctx, late.ID))
	assert.ErrorIs(t, stores.Assignments.Delete(ctx, late.ID), ErrNotFound)
	_, err = stores.Assignments.Get(ctx, late.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func timePtr(t time.Time) *time.Time { return &t }

func testPlan(t *testing.T, user string, created time.Time) model.StudyPlan {
	return model.StudyPlan{
		UserID:    user,
		PlanType:  "weekly",
		StartDate: mustDate(t, "2026-01-05"),
		EndDate:   mustDate(t, "2026-01-06"),
		Status:    model.PlanActive,
		Schedule: model.Schedule{
			{Date: "2026-01-05", DayOfWeek: "Monday", Sessions: []model.Session{
				{ID: "s1", StartTime: "09:00", EndTime: "10:00", Subject: "Maths", Kind: model.KindStudy},
			}},
			{Date: "2026-01-06", DayOfWeek: "Tuesday", Sessions: []model.Session{}},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	older := testPlan(t, "u1", base)
	older.ExcludeDays = []time.Weekday{time.Saturday, time.Sunday}
	require.NoError(t, stores.Plans.Create(ctx, &older))
	newer := testPlan(t, "u1", base.Add(time.Hour))
	newer.Status = model.PlanArchived
	require.NoError(t, stores.Plans.Create(ctx, &newer))

	got, err := stores.Plans.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.Schedule, got.Schedule)
	assert.Equal(t, 0, got.Version)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, got.ExcludeDays)

	list, err := stores.Plans.List(ctx, PlanFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest first")

	active, err := stores.Plans.List(ctx, PlanFilter{UserID: "u1", Status: model.PlanActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, older.ID, active[0].ID)

	first, second := got, got
	first.Schedule = got.Schedule.Clone()
	first.Schedule[0].Sessions[0].Completed = true
	first.AdherenceScore = 100
	require.NoError(t, stores.Plans.Update(ctx, &first))
	assert.Equal(t, 1, first.Version)

	second.AdherenceScore = 0
	assert.ErrorIs(t, stores.Plans.Update(ctx, &second), ErrConflict, "stale writer loses")
	assert.Equal(t, 0, second.Version)

	stored, err := stores.Plans.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.AdherenceScore)
	assert.True(t, stored.Schedule[0].Sessions[0].Completed)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, older.ExcludeDays, stored.ExcludeDays, "update keeps excluded days")

	ghost := testPlan(t, "u1", base)
	ghost.ID = "ghost"
	assert.ErrorIs(t, stores.Plans.Update(ctx, &ghost), ErrNotFound)

	require.NoError(t, stores.Plans.Delete(ctx, older.ID))
	_, err = stores.Plans.Get(ctx, older.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	morning := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	n := model.Notification{UserID: "u1", Kind: model.NotificationDeadline, Title: "Due soon", EntityType: "assignment", EntityID: "a1", CreatedAt: morning}
	require.NoError(t, stores.Notifications.Create(ctx, &n))
	old := model.Notification{UserID: "u1", Kind: model.NotificationDeadline, EntityID: "a2", CreatedAt: morning.Add(-48 * time.Hour)}
	require.NoError(t, stores.Notifications.Create(ctx, &old))

	exists, err := stores.Notifications.Exists(ctx, "u1", model.NotificationDeadline, "a1", morning.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = stores.Notifications.Exists(ctx, "u1", model.NotificationDeadline, "a2", morning.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, exists)

	list, err := stores.Notifications.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, n.ID, list[0].ID)

	require.NoError(t, stores.Notifications.MarkRead(ctx, n.ID, morning.Add(time.Minute)))
	unread, err := stores.Notifications.List(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, old.ID, unread[0].ID)

	got, err := stores.Notifications.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	require.NotNil(t, got.ReadAt)
	assert.ErrorIs(t, stores.Notifications.MarkRead(ctx, "missing", morning), ErrNotFound)
}

func TestGormWriter(t *testing.T) {
	var buf bytes.Buffer
	w := gormWriter{log: logger.NewStd(log.New(&buf, "", 0), false)}

	w.Printf("%s [%.3fms] %s", "plan_repository.go:70", 1200.5, "SLOW SQL")
	assert.Equal(t, "[warn] gorm: plan_repository.go:70 [1200.500ms] SLOW SQL\n", buf.String())
}

package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent []sentMessage
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

type testEnv struct {
	clock       *testClock
	stores      repository.Stores
	users       *UserService
	assignments *AssignmentService
	plans       *PlanService
	reminders   *ReminderService
	notifier    *fakeNotifier
}

const testSecret = "test-secret"

// wednesday is 2026-01-07 10:00 UTC.
var wednesday = time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name), logger.Nop)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	clock := &testClock{now: wednesday}
	stores := repository.NewGormStores(db)
	synth := planner.NewSynthesizer(planner.UnavailableOracle)
	env := &testEnv{
		clock:       clock,
		stores:      stores,
		users:       NewUserService(stores, clock, testSecret, logger.Nop),
		assignments: NewAssignmentService(stores.Assignments, clock),
		plans: NewPlanService(PlanServiceOptions{
			Plans:       stores.Plans,
			Users:       stores.Users,
			Assignments: stores.Assignments,
			Synthesizer: synth,
			Clock:       clock,
			AIModel:     "test-model",
			Logger:      logger.Nop,
		}),
		notifier: &fakeNotifier{},
	}
	env.reminders = NewReminderService(stores, env.plans, clock, logger.Nop)
	env.reminders.SetNotifier(env.notifier)
	return env
}

func (e *testEnv) register(t *testing.T, id string) model.User {
	t.Helper()
	user, _, err := e.users.Register(context.Background(), id, NewUser{Email: id + "@example.com", DisplayName: id})
	require.NoError(t, err)
	return user
}

func (e *testEnv) assignment(t *testing.T, userID, title string, due time.Time) model.Assignment {
	t.Helper()
	a, err := e.assignments.Create(context.Background(), userID, AssignmentInput{Title: title, Subject: "Physics", DueDate: due})
	require.NoError(t, err)
	return a
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	for _, f := range vErr.Fields {
		if f.Field == field {
			return
		}
	}
	t.Fatalf("no error for field %q in %+v", field, vErr.Fields)
}

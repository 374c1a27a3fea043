package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
)

const (
	// LinkAudience marks link codes so they cannot be used as bearer tokens.
	LinkAudience = "telegram-link"
	linkTTL      = 15 * time.Minute
)

var errInvalidLinkCode = errors.New("link code is invalid or expired")

// NewUser registers the authenticated caller.
type NewUser struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// PreferencesUpdate changes only the fields that are set.
type PreferencesUpdate struct {
	StudyHoursPerDay     *float64        `json:"studyHoursPerDay" validate:"omitempty,min=1,max=24"`
	StudyTimePreference  *model.TimeBand `json:"studyTimePreference" validate:"omitempty,timeband"`
	SessionMinutes       *int            `json:"sessionDuration" validate:"omitempty,min=15,max=180"`
	BreakMinutes         *int            `json:"breakDuration" validate:"omitempty,min=5,max=60"`
	NotificationsEnabled *bool           `json:"notificationsEnabled"`
}

// UserService manages profiles, preferences, habits and the Telegram link.
type UserService struct {
	users       repository.UserStore
	plans       repository.PlanStore
	assignments repository.AssignmentStore
	clock       planner.Clock
	secret      []byte
	log         logger.Logger
}

func NewUserService(stores repository.Stores, clock planner.Clock, secret string, log logger.Logger) *UserService {
	return &UserService{
		users:       stores.Users,
		plans:       stores.Plans,
		assignments: stores.Assignments,
		clock:       clock,
		secret:      []byte(secret),
		log:         log,
	}
}

// Register creates the user with default preferences and habits. Registering
// an existing id returns the stored user and false.
func (s *UserService) Register(ctx context.Context, id string, in NewUser) (model.User, bool, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validate(in); err != nil {
		return model.User{}, false, err
	}
	existing, err := s.users.Get(ctx, id)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, false, errors.Wrap(err, "finding user")
	}

	now := s.clock.Now()
	user := model.User{
		ID:          id,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Preferences: model.DefaultPreferences(),
		Habits:      model.DefaultHabits(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return model.User{}, false, errors.Wrap(err, "creating user")
	}
	s.log.Info("user registered", user.ID)
	return user, true, nil
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return model.User{}, errors.Wrap(err, "finding user")
	}
	return user, nil
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return model.User{}, errors.Wrap(err, "finding user by telegram id")
	}
	return user, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, id string, in PreferencesUpdate) (model.User, error) {
	if err := validate(in); err != nil {
		return model.User{}, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	p := &user.Preferences
	if in.StudyHoursPerDay != nil {
		p.StudyHoursPerDay = *in.StudyHoursPerDay
	}
	if in.StudyTimePreference != nil {
		p.StudyTimePreference = *in.StudyTimePreference
	}
	if in.SessionMinutes != nil {
		p.SessionMinutes = *in.SessionMinutes
	}
	if in.BreakMinutes != nil {
		p.BreakMinutes = *in.BreakMinutes
	}
	if in.NotificationsEnabled != nil {
		p.NotificationsEnabled = *in.NotificationsEnabled
	}
	user.UpdatedAt = s.clock.Now()
	if err := s.users.Update(ctx, &user); err != nil {
		return model.User{}, errors.Wrap(err, "updating preferences")
	}
	return user, nil
}

// LinkCode issues a short-lived code the user sends to the bot with /start.
func (s *UserService) LinkCode(ctx context.Context, id string) (string, time.Time, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return "", time.Time{}, err
	}
	now := s.clock.Now()
	expires := now.Add(linkTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		Audience:  jwt.ClaimStrings{LinkAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	code, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing link code")
	}
	return code, expires, nil
}

// LinkTelegram attaches a Telegram chat to the user named by code. A chat can
// belong to one user only; a previous owner is unlinked.
func (s *UserService) LinkTelegram(ctx context.Context, code string, telegramID int64) (model.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(code), claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(LinkAudience),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || claims.Subject == "" {
		return model.User{}, NewValidationError(errInvalidLinkCode)
	}

	user, err := s.Get(ctx, claims.Subject)
	if err != nil {
		return model.User{}, err
	}
	if user.TelegramID == telegramID {
		return user, nil
	}

	previous, err := s.users.GetByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		previous.TelegramID = 0
		previous.UpdatedAt = s.clock.Now()
		if err := s.users.Update(ctx, &previous); err != nil {
			return model.User{}, errors.Wrap(err, "unlinking previous user")
		}
	case !errors.Is(err, repository.ErrNotFound):
		return model.User{}, errors.Wrap(err, "finding linked user")
	}

	user.TelegramID = telegramID
	user.UpdatedAt = s.clock.Now()
	if err := s.users.Update(ctx, &user); err != nil {
		return model.User{}, errors.Wrap(err, "linking telegram")
	}
	s.log.Info("telegram linked", user.ID)
	return user, nil
}

// RefreshHabits re-derives the habit profile from the user's plans.
func (s *UserService) RefreshHabits(ctx context.Context, id string) (model.HabitProfile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return model.HabitProfile{}, err
	}
	return s.refresh(ctx, user)
}

func (s *UserService) refresh(ctx context.Context, user model.User) (model.HabitProfile, error) {
	plans, err := s.plans.List(ctx, repository.PlanFilter{UserID: user.ID})
	if err != nil {
		return model.HabitProfile{}, errors.Wrap(err, "listing plans")
	}
	now := s.clock.Now()
	user.Habits = planner.AnalyzeHabits(plans, now)
	user.UpdatedAt = now
	if err := s.users.Update(ctx, &user); err != nil {
		return model.HabitProfile{}, errors.Wrap(err, "saving habits")
	}
	return user.Habits, nil
}

const recentDays = 7

// Stats summarizes what the user has completed so far, with the live habit
// profile and the feedback derived from it.
type Stats struct {
	AssignmentsCompleted int
	AssignmentsOpen      int
	SessionsCompleted    int
	TotalStudyMinutes    int
	RecentStudyHours     float64
	Habits               model.HabitProfile
	Insights             []planner.Insight
}

// Stats computes the user's totals from stored plans and assignments. The
// stored habit profile is left untouched.
func (s *UserService) Stats(ctx context.Context, id string) (Stats, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	plans, err := s.plans.List(ctx, repository.PlanFilter{UserID: user.ID})
	if err != nil {
		return Stats{}, errors.Wrap(err, "listing plans")
	}
	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{UserID: user.ID})
	if err != nil {
		return Stats{}, errors.Wrap(err, "listing assignments")
	}

	now := s.clock.Now()
	var st Stats
	for _, a := range assignments {
		if a.Status == model.StatusCompleted {
			st.AssignmentsCompleted++
		} else {
			st.AssignmentsOpen++
		}
	}
	total, sessions := planner.StudyTime(plans, time.Time{})
	st.SessionsCompleted = sessions
	st.TotalStudyMinutes = int(total.Minutes())
	recent, _ := planner.StudyTime(plans, now.AddDate(0, 0, -(recentDays-1)))
	st.RecentStudyHours = math.Round(recent.Hours()*10) / 10
	st.Habits = planner.AnalyzeHabits(plans, now)
	st.Insights = planner.Insights(st.Habits, st.RecentStudyHours)
	return st, nil
}

// RefreshAllHabits runs the habit analysis for every user. Failures are logged
// and do not stop the run; the number of refreshed users is returned.
func (s *UserService) RefreshAllHabits(ctx context.Context) (int, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing users")
	}
	refreshed := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if _, err := s.refresh(ctx, user); err != nil {
			s.log.Error("habit analysis failed", err, user)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// Linked returns the users that have a Telegram chat attached.
func (s *UserService) Linked(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	linked := users[:0]
	for _, user := range users {
		if user.TelegramID != 0 {
			linked = append(linked, user)
		}
	}
	return linked, nil
}

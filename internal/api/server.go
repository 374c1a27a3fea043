// Package api exposes the planner services over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"study-planner/internal/logger"
	"study-planner/internal/planner"
	"study-planner/internal/service"
)

type (
	Options struct {
		Address        string
		Debug          bool
		DisableReqLogs bool
		// Secret verifies bearer tokens.
		Secret string

		Users       *service.UserService
		Assignments *service.AssignmentService
		Plans       *service.PlanService
		Reminders   *service.ReminderService
		Clock       planner.Clock
		Logger      logger.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Logger == nil {
		opts.Logger = logger.Nop
	}
	if opts.Clock == nil {
		opts.Clock = planner.SystemClock(nil)
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in debug mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", authMiddleware([]byte(s.opts.Secret)))

	registerUserAPI(v1, s.opts.Users)
	registerAssignmentAPI(v1, s.opts.Assignments, s.opts.Clock)
	registerPlanAPI(v1, s.opts.Plans)
	registerNotificationAPI(v1, s.opts.Reminders)
}

// Start blocks until the server stops. A graceful Stop is not an error.
func (s *server) Start() error {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "study-planner"})
}

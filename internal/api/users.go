package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"study-planner/internal/service"
)

type userApi struct {
	svc *service.UserService
}

func registerUserAPI(g *echo.Group, svc *service.UserService) {
	api := userApi{svc: svc}

	ug := g.Group("/users")
	ug.POST("", api.register)
	ug.GET("/me", api.me)
	ug.PUT("/me/preferences", api.updatePreferences)
	ug.GET("/me/stats", api.stats)
	ug.POST("/me/habits/refresh", api.refreshHabits)
	ug.POST("/me/telegram-link", api.telegramLink)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, created, err := api.svc.Register(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, newUserResponse(usr))
}

func (api *userApi) me(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	usr, err := api.svc.Get(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "getting user")
	}
	return ctx.JSON(http.StatusOK, newUserResponse(usr))
}

func (api *userApi) updatePreferences(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.PreferencesUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PreferencesUpdate")
	}

	usr, err := api.svc.UpdatePreferences(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "updating preferences")
	}
	return ctx.JSON(http.StatusOK, newUserResponse(usr))
}

func (api *userApi) stats(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.Stats(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, newStatsResponse(st))
}

func (api *userApi) refreshHabits(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	habits, err := api.svc.RefreshHabits(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "refreshing habits")
	}
	if habits.PreferredSubjects == nil {
		habits.PreferredSubjects = []string{}
	}
	return ctx.JSON(http.StatusOK, habits)
}

func (api *userApi) telegramLink(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	code, expires, err := api.svc.LinkCode(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "issuing link code")
	}
	return ctx.JSON(http.StatusOK, linkCodeResponse{
		Code:      code,
		Command:   "/start " + code,
		ExpiresAt: expires,
	})
}

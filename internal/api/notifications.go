package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"study-planner/internal/service"
)

type notificationApi struct {
	svc *service.ReminderService
}

func registerNotificationAPI(g *echo.Group, svc *service.ReminderService) {
	api := notificationApi{svc: svc}

	ng := g.Group("/notifications")
	ng.GET("", api.query)
	ng.PATCH("/:id/read", api.markRead)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var unreadOnly bool
	if v := ctx.QueryParam("unread"); v != "" {
		if unreadOnly, err = strconv.ParseBool(v); err != nil {
			return service.NewValidationError(nil, service.FieldError{Field: "unread", Error: "unread must be a boolean"})
		}
	}

	items, err := api.svc.Notifications(ctx.Request().Context(), userID, unreadOnly)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, newNotificationList(items))
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.MarkRead(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, newNotificationResponse(n))
}

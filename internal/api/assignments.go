package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"study-planner/internal/planner"
	"study-planner/internal/service"
)

type assignmentApi struct {
	svc   *service.AssignmentService
	clock planner.Clock
}

func registerAssignmentAPI(g *echo.Group, svc *service.AssignmentService, clock planner.Clock) {
	api := assignmentApi{svc: svc, clock: clock}

	ag := g.Group("/assignments")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.PATCH("/:id/status", api.updateStatus)
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var filter service.AssignmentQuery
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to AssignmentQuery")
	}

	items, err := api.svc.List(ctx.Request().Context(), userID, filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, newAssignmentList(items, api.clock.Now()))
}

func (api *assignmentApi) create(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.AssignmentInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignmentInput")
	}

	a, err := api.svc.Create(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, newAssignmentResponse(a, api.clock.Now()))
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Get(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(a, api.clock.Now()))
}

func (api *assignmentApi) update(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.AssignmentInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignmentInput")
	}

	a, err := api.svc.Update(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(a, api.clock.Now()))
}

func (api *assignmentApi) updateStatus(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}

	a, err := api.svc.UpdateStatus(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment status")
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(a, api.clock.Now()))
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), userID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

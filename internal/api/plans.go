package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"study-planner/internal/model"
	"study-planner/internal/service"
)

type planApi struct {
	svc *service.PlanService
}

func registerPlanAPI(g *echo.Group, svc *service.PlanService) {
	api := planApi{svc: svc}

	pg := g.Group("/plans")
	pg.POST("/generate", api.generate)
	pg.GET("", api.query)
	pg.GET("/today", api.today)
	pg.GET("/:id", api.retrieve)
	pg.DELETE("/:id", api.destroy)
	pg.PATCH("/:id/sessions/:sessionId", api.updateSession)
	pg.POST("/:id/rebalance", api.rebalance)
	pg.PATCH("/:id/status", api.updateStatus)
}

// Handlers

func (api *planApi) generate(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.GenerateInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateInput")
	}

	plan, err := api.svc.Generate(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "generating plan")
	}
	return ctx.JSON(http.StatusCreated, newPlanResponse(plan))
}

func (api *planApi) query(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	status := model.PlanStatus(ctx.QueryParam("status"))

	plans, err := api.svc.List(ctx.Request().Context(), userID, status)
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	return ctx.JSON(http.StatusOK, newPlanList(plans))
}

func (api *planApi) today(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	sessions, err := api.svc.Today(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "listing today's sessions")
	}
	return ctx.JSON(http.StatusOK, newTodayList(sessions))
}

func (api *planApi) retrieve(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	plan, err := api.svc.Get(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting plan")
	}
	return ctx.JSON(http.StatusOK, newPlanResponse(plan))
}

func (api *planApi) updateSession(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.SessionInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionInput")
	}

	plan, err := api.svc.UpdateSession(ctx.Request().Context(), userID, ctx.Param("id"), ctx.Param("sessionId"), data)
	if err != nil {
		return errors.Wrap(err, "updating session")
	}
	return ctx.JSON(http.StatusOK, newPlanResponse(plan))
}

func (api *planApi) rebalance(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	plan, changed, err := api.svc.Rebalance(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rebalancing plan")
	}
	return ctx.JSON(http.StatusOK, rebalanceResponse{Rebalanced: changed, Plan: newPlanResponse(plan)})
}

func (api *planApi) updateStatus(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data service.StatusInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusInput")
	}

	plan, err := api.svc.SetStatus(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating plan status")
	}
	return ctx.JSON(http.StatusOK, newPlanResponse(plan))
}

func (api *planApi) destroy(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), userID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting plan")
	}
	return ctx.NoContent(http.StatusNoContent)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance", jwt)
	ag.GET("/courses", api.courseOptions)
	ag.GET("/mine", api.listMine)
	ag.GET("", api.list)
	ag.POST("", api.mark)
}

func (api *attendanceApi) courseOptions(ctx echo.Context) error {
	courses, err := api.svc.CourseOptions(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "getting attendance course options")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	att, err := api.svc.Mark(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *attendanceApi) list(ctx echo.Context) error {
	records, err := api.svc.List(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) listMine(ctx echo.Context) error {
	records, err := api.svc.ListMine(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "listing own attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

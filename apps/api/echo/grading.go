package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/grading"
	reportsvc "github.com/shulehub/shule/services/report"
)

const mimeApplicationPDF = "application/pdf"

type gradingApi struct {
	svc         *grading.Service
	reportCards *reportsvc.ReportCardWriter
}

func registerGradingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *grading.Service, reportCards *reportsvc.ReportCardWriter) {
	api := gradingApi{svc: svc, reportCards: reportCards}

	eg := g.Group("/exams", jwt)
	eg.GET("", api.listExams)
	eg.POST("", api.createExam)

	gg := g.Group("/grades", jwt)
	gg.GET("/courses", api.courseOptions)
	gg.GET("/mine", api.studentReport)
	gg.GET("/mine.pdf", api.studentReportCard)
	gg.GET("", api.teacherReport)
	gg.POST("", api.record)
}

func (api *gradingApi) listExams(ctx echo.Context) error {
	courseID, err := intQueryParam(ctx, "course")
	if err != nil {
		return err
	}
	exams, err := api.svc.ListExams(ctx.Request().Context(), getContextActor(ctx), courseID)
	if err != nil {
		return errors.Wrap(err, "listing exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

func (api *gradingApi) createExam(ctx echo.Context) error {
	var data grading.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	exam, err := api.svc.CreateExam(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, exam)
}

func (api *gradingApi) courseOptions(ctx echo.Context) error {
	courses, err := api.svc.CourseOptions(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "getting grading course options")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *gradingApi) record(ctx echo.Context) error {
	var data grading.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	grade, err := api.svc.Record(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *gradingApi) teacherReport(ctx echo.Context) error {
	summaries, err := api.svc.TeacherReport(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "getting teacher grade report")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *gradingApi) studentReport(ctx echo.Context) error {
	_, summaries, err := api.svc.StudentReport(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "getting student grade report")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *gradingApi) studentReportCard(ctx echo.Context) error {
	std, summaries, err := api.svc.StudentReport(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "getting student grade report")
	}

	var buf bytes.Buffer
	if err = api.reportCards.Write(&buf, std, summaries); err != nil {
		return errors.Wrap(err, "writing report card")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", "report-card.pdf"))
	return ctx.Blob(http.StatusOK, mimeApplicationPDF, buf.Bytes())
}

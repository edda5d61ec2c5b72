package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, jwt, optionalJWT echo.MiddlewareFunc, svc *school.Service) {
	api := schoolApi{svc: svc}

	g.GET("/landing", api.landing, optionalJWT)

	dg := g.Group("/dashboard", jwt)
	dg.GET("/teacher", api.teacherDashboard)
	dg.GET("/student", api.studentDashboard)

	deptg := g.Group("/departments", jwt)
	deptg.GET("", api.listDepartments)
	deptg.POST("", api.createDepartment)
	deptg.GET("/:id", api.retrieveDepartment)
	deptg.PUT("/:id", api.updateDepartment)
	deptg.DELETE("/:id", api.destroyDepartment)

	tg := g.Group("/teachers", jwt)
	tg.GET("", api.listTeachers)
	tg.POST("", api.createTeacher)
	tg.GET("/:id", api.retrieveTeacher)
	tg.PUT("/:id", api.updateTeacher)
	tg.DELETE("/:id", api.destroyTeacher)

	cg := g.Group("/courses", jwt)
	cg.GET("", api.listCourses)
	cg.POST("", api.createCourse)
	cg.GET("/:id", api.retrieveCourse)
	cg.PUT("/:id", api.updateCourse)
	cg.DELETE("/:id", api.destroyCourse)

	sg := g.Group("/students", jwt)
	sg.GET("", api.listStudents)
	sg.POST("", api.createStudent)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)
	sg.PUT("/:id/courses", api.enrollStudent)
}

// Landing & dashboards

func (api *schoolApi) landing(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.LandingFor(getContextActor(ctx)))
}

func (api *schoolApi) teacherDashboard(ctx echo.Context) error {
	dash, err := api.svc.TeacherDashboard(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "getting teacher dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *schoolApi) studentDashboard(ctx echo.Context) error {
	dash, err := api.svc.StudentDashboard(ctx.Request().Context(), getContextActor(ctx))
	if err != nil {
		return errors.Wrap(err, "getting student dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// Departments

func (api *schoolApi) listDepartments(ctx echo.Context) error {
	depts, err := api.svc.ListDepartments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	if depts == nil {
		depts = []school.Department{}
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *schoolApi) createDepartment(ctx echo.Context) error {
	var data school.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	dept, err := api.svc.CreateDepartment(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *schoolApi) retrieveDepartment(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrDepartmentNotFound)
	if err != nil {
		return err
	}
	dept, err := api.svc.GetDepartment(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting department")
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *schoolApi) updateDepartment(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrDepartmentNotFound)
	if err != nil {
		return err
	}
	var data school.NewDepartment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	dept, err := api.svc.UpdateDepartment(ctx.Request().Context(), getContextActor(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating department")
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *schoolApi) destroyDepartment(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrDepartmentNotFound)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteDepartment(ctx.Request().Context(), getContextActor(ctx), id); err != nil {
		return errors.Wrap(err, "deleting department")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Teachers

func (api *schoolApi) listTeachers(ctx echo.Context) error {
	teachers, err := api.svc.ListTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []school.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *schoolApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	tchr, err := api.svc.CreateTeacher(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tchr)
}

func (api *schoolApi) retrieveTeacher(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrTeacherNotFound)
	if err != nil {
		return err
	}
	tchr, err := api.svc.GetTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *schoolApi) updateTeacher(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrTeacherNotFound)
	if err != nil {
		return err
	}
	var data school.NewTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	tchr, err := api.svc.UpdateTeacher(ctx.Request().Context(), getContextActor(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *schoolApi) destroyTeacher(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrTeacherNotFound)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTeacher(ctx.Request().Context(), getContextActor(ctx), id); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Courses

func (api *schoolApi) listCourses(ctx echo.Context) error {
	courses, err := api.svc.ListCourses(ctx.Request().Context(), school.CourseFilter{})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []school.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *schoolApi) createCourse(ctx echo.Context) error {
	var data school.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	crs, err := api.svc.CreateCourse(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *schoolApi) retrieveCourse(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrCourseNotFound)
	if err != nil {
		return err
	}
	crs, err := api.svc.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *schoolApi) updateCourse(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrCourseNotFound)
	if err != nil {
		return err
	}
	var data school.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	crs, err := api.svc.UpdateCourse(ctx.Request().Context(), getContextActor(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *schoolApi) destroyCourse(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrCourseNotFound)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCourse(ctx.Request().Context(), getContextActor(ctx), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students

func (api *schoolApi) listStudents(ctx echo.Context) error {
	filter := school.StudentFilter{Search: ctx.QueryParam("q")}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	page, err := api.svc.ListStudents(ctx.Request().Context(), getContextActor(ctx), filter, ordering.Orderings, bindPage(ctx))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	std, err := api.svc.CreateStudent(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrStudentNotFound)
	if err != nil {
		return err
	}
	detail, err := api.svc.GetStudent(ctx.Request().Context(), getContextActor(ctx), id)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *schoolApi) updateStudent(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrStudentNotFound)
	if err != nil {
		return err
	}
	var data school.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	std, err := api.svc.UpdateStudent(ctx.Request().Context(), getContextActor(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) destroyStudent(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrStudentNotFound)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), getContextActor(ctx), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) enrollStudent(ctx echo.Context) error {
	id, err := intParam(ctx, "id", school.ErrStudentNotFound)
	if err != nil {
		return err
	}
	var data school.Enrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Enrollment")
	}
	detail, err := api.svc.EnrollStudent(ctx.Request().Context(), getContextActor(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusOK, detail)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core/school"
	"github.com/kavinkishorej-ui/academia/core/user"
)

type teacherApi struct {
	svc school.Service
}

func registerTeacherAPI(g *echo.Group, authed echo.MiddlewareFunc, svc school.Service) {
	api := teacherApi{svc: svc}

	tg := g.Group("/teacher", authed, roleMiddleware(user.RoleTeacher))

	tg.GET("/dashboard", api.dashboard)

	tg.GET("/students", api.queryStudents)
	tg.POST("/students", api.createStudent)
	tg.POST("/students/generate", api.generateStudents)
	tg.POST("/students/bulk-upload", api.bulkUploadStudents)
	tg.PUT("/students/:id", api.updateStudent)
	tg.DELETE("/students/:id", api.destroyStudent)

	tg.GET("/subjects", api.querySubjects)
	tg.POST("/subjects", api.createSubject)

	tg.POST("/marks", api.addMark)
	tg.POST("/marks/upload", api.uploadMarks)
}

// contextTeacher resolves the session user's teacher row.
func (api *teacherApi) contextTeacher(ctx echo.Context) (school.Teacher, error) {
	s, err := getContextSession(ctx)
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "getting context session")
	}
	t, err := api.svc.TeacherByUserID(ctx.Request().Context(), s.UserID)
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "resolving teacher")
	}
	return t, nil
}

// Handlers

func (api *teacherApi) dashboard(ctx echo.Context) error {
	t, err := api.contextTeacher(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.TeacherStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying stats")
	}
	return ctx.JSON(http.StatusOK, TeacherDashboardResponse{Teacher: t, Stats: stats})
}

func (api *teacherApi) queryStudents(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *teacherApi) createStudent(ctx echo.Context) error {
	t, err := api.contextTeacher(ctx)
	if err != nil {
		return err
	}
	var data school.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	s, creds, err := api.svc.CreateStudent(ctx.Request().Context(), t, data)
	if err != nil {
		return err
	}
	// the generated password is surfaced here exactly once
	return ctx.JSON(http.StatusCreated, StudentCreatedResponse{Student: s, Credentials: creds})
}

func (api *teacherApi) generateStudents(ctx echo.Context) error {
	t, err := api.contextTeacher(ctx)
	if err != nil {
		return err
	}
	var data school.GenerateStudents
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateStudents")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	creds, bulkErrs, err := api.svc.GenerateStudents(ctx.Request().Context(), t, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, BulkStudentsResponse{Created: creds, Errors: bulkErrs})
}

func (api *teacherApi) bulkUploadStudents(ctx echo.Context) error {
	t, err := api.contextTeacher(ctx)
	if err != nil {
		return err
	}
	var data BulkStudentsRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkStudentsRequest")
	}
	if len(data.Students) == 0 {
		return ctx.JSON(http.StatusOK, BulkStudentsResponse{Created: []school.StudentCredentials{}})
	}

	creds, bulkErrs, err := api.svc.BulkCreateStudents(ctx.Request().Context(), t, data.Students)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, BulkStudentsResponse{Created: creds, Errors: bulkErrs})
}

func (api *teacherApi) updateStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data school.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	s, err := api.svc.UpdateStudent(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *teacherApi) destroyStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *teacherApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *teacherApi) addMark(ctx echo.Context) error {
	var data school.NewMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	m, err := api.svc.AddMark(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *teacherApi) uploadMarks(ctx echo.Context) error {
	var data BulkMarksRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkMarksRequest")
	}
	if len(data.Marks) == 0 {
		return ctx.JSON(http.StatusOK, BulkMarksResponse{})
	}

	created, bulkErrs, err := api.svc.AddMarks(ctx.Request().Context(), data.Marks)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, BulkMarksResponse{Created: created, Errors: bulkErrs})
}

type (
	TeacherDashboardResponse struct {
		Teacher school.Teacher      `json:"teacher"`
		Stats   school.TeacherStats `json:"stats"`
	}

	StudentCreatedResponse struct {
		Student     school.Student            `json:"student"`
		Credentials school.StudentCredentials `json:"credentials"`
	}

	BulkStudentsRequest struct {
		Students []school.NewStudent `json:"students"`
	}

	BulkStudentsResponse struct {
		Created []school.StudentCredentials `json:"created"`
		Errors  []school.BulkError          `json:"errors,omitempty"`
	}

	BulkMarksRequest struct {
		Marks []school.NewMark `json:"marks"`
	}

	BulkMarksResponse struct {
		Created int                `json:"created"`
		Errors  []school.BulkError `json:"errors,omitempty"`
	}
)

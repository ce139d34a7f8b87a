package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core/school"
	"github.com/kavinkishorej-ui/academia/core/user"
)

type studentApi struct {
	svc school.Service
}

func registerStudentAPI(g *echo.Group, authed echo.MiddlewareFunc, svc school.Service) {
	api := studentApi{svc: svc}

	sg := g.Group("/student", authed, roleMiddleware(user.RoleStudent))

	sg.GET("/profile", api.profile)
	sg.PUT("/profile", api.updateProfile)
	sg.GET("/marks", api.marks)
	sg.GET("/subjects", api.subjects)
	sg.GET("/summary", api.summary)
}

// contextStudent resolves the session user's student row.
func (api *studentApi) contextStudent(ctx echo.Context) (school.Student, error) {
	s, err := getContextSession(ctx)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "getting context session")
	}
	stu, err := api.svc.StudentByUserID(ctx.Request().Context(), s.UserID)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "resolving student")
	}
	return stu, nil
}

// Handlers

func (api *studentApi) profile(ctx echo.Context) error {
	stu, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) updateProfile(ctx echo.Context) error {
	stu, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	var data school.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	stu, err = api.svc.UpdateProfile(ctx.Request().Context(), stu.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) marks(ctx echo.Context) error {
	stu, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	marks, err := api.svc.StudentMarks(ctx.Request().Context(), stu.ID, ctx.QueryParam("exam"))
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *studentApi) subjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *studentApi) summary(ctx echo.Context) error {
	stu, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.StudentSummary(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "building summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core/school"
	"github.com/kavinkishorej-ui/academia/core/user"
)

type adminApi struct {
	svc school.Service
}

func registerAdminAPI(g *echo.Group, authed echo.MiddlewareFunc, svc school.Service) {
	api := adminApi{svc: svc}

	ag := g.Group("/admin", authed, roleMiddleware(user.RoleAdmin))

	ag.GET("/departments", api.queryDepartments)
	ag.POST("/departments", api.createDepartment)
	ag.DELETE("/departments/:id", api.destroyDepartment)

	ag.GET("/teachers", api.queryTeachers)
	ag.POST("/teachers", api.createTeacher)
	ag.PUT("/teachers/:id", api.updateTeacher)
	ag.DELETE("/teachers/:id", api.destroyTeacher)

	ag.GET("/stats", api.stats)
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Handlers

func (api *adminApi) queryDepartments(ctx echo.Context) error {
	deps, err := api.svc.Departments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	return ctx.JSON(http.StatusOK, deps)
}

func (api *adminApi) createDepartment(ctx echo.Context) error {
	var data school.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	dep, err := api.svc.CreateDepartment(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, dep)
}

func (api *adminApi) destroyDepartment(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteDepartment(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.svc.Teachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *adminApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	t, creds, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	// the generated password is surfaced here exactly once
	return ctx.JSON(http.StatusCreated, TeacherCreatedResponse{Teacher: t, Credentials: creds})
}

func (api *adminApi) updateTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data school.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	t, err := api.svc.UpdateTeacher(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *adminApi) destroyTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTeacher(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) stats(ctx echo.Context) error {
	stats, err := api.svc.AdminStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

type TeacherCreatedResponse struct {
	Teacher     school.Teacher            `json:"teacher"`
	Credentials school.TeacherCredentials `json:"credentials"`
}

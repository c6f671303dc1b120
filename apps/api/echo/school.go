package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

type schoolApi struct {
	svc        *school.Service
	userSvc    *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := schoolApi{
		svc:        opts.SchoolSvc,
		userSvc:    opts.UserSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	sg := g.Group("/sessions", jwt)
	sg.POST("", api.createSession, adminMiddleware())
	sg.GET("/:id", api.retrieveSession, teacherMiddleware())
	sg.GET("/:id/students", api.sessionStudents, teacherMiddleware())
}

func (api *schoolApi) createSession(ctx echo.Context) error {
	var data school.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	s, err := api.svc.CreateSession(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *schoolApi) retrieveSession(ctx echo.Context) error {
	s, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

// sessionStudents lists the students of the session's cohort; owner only.
func (api *schoolApi) sessionStudents(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	students, err := api.svc.SessionStudents(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/justification"
	"github.com/trezcool/mahudhurio/core/user"
)

type justificationApi struct {
	svc        *justification.Service
	userSvc    *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerJustificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := justificationApi{
		svc:        opts.JustificationSvc,
		userSvc:    opts.UserSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	jg := g.Group("/justifications", jwt)
	jg.POST("", api.submit, studentMiddleware())
	jg.GET("", api.list, teacherMiddleware())
	jg.POST("/:id/review", api.review, teacherMiddleware())
	jg.GET("/:id/download", api.download)
}

// submit files evidence against an absence; multipart attendance_id + file.
func (api *justificationApi) submit(ctx echo.Context) error {
	attendanceID := ctx.FormValue("attendance_id")
	if attendanceID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "attendance_id", Error: "this field is required"})
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	j, err := api.svc.Submit(ctx.Request().Context(), usr, attendanceID, justification.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  f,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, j)
}

func (api *justificationApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	js, err := api.svc.ListForTeacher(ctx.Request().Context(), usr, ctx.QueryParam("status"))
	if err != nil {
		return err
	}
	if js == nil {
		js = []justification.Justification{}
	}
	return ctx.JSON(http.StatusOK, js)
}

func (api *justificationApi) review(ctx echo.Context) error {
	var data justification.ReviewInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewInput")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	j, err := api.svc.Review(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *justificationApi) download(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	f, name, err := api.svc.Download(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	defer f.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, f)
}

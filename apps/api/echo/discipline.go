package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/discipline"
)

type disciplineApi struct {
	svc        *discipline.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerDisciplineAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := disciplineApi{
		svc:        opts.DisciplineSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	dg := g.Group("/discipline", jwt, adminMiddleware())
	dg.GET("", api.candidates)
	dg.POST("/summon", api.summon)
}

func (api *disciplineApi) candidates(ctx echo.Context) error {
	threshold, _ := strconv.Atoi(ctx.QueryParam("threshold")) // 0 means default
	candidates, err := api.svc.ListCandidates(ctx.Request().Context(), threshold)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, candidates)
}

func (api *disciplineApi) summon(ctx echo.Context) error {
	var data discipline.SummonInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SummonInput")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	if err := api.svc.Summon(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusAccepted)
}

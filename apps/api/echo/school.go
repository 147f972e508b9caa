package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core/applicant"
)

type priorSchoolApi struct {
	svc      *applicant.Service
	validate *validator.Validate
}

func registerPriorSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *applicant.Service, validate *validator.Validate) {
	api := priorSchoolApi{svc: svc, validate: validate}

	pg := g.Group("/form/prior-school", jwt, authorize(RoleUser))
	pg.GET("", api.retrieve)
	pg.POST("", api.upsert)
}

func (api *priorSchoolApi) retrieve(ctx echo.Context) error {
	uid, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	ps, err := api.svc.GetPriorSchool(ctx.Request().Context(), uid)
	if err != nil {
		return errors.Wrap(err, "getting prior school")
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (api *priorSchoolApi) upsert(ctx echo.Context) error {
	uid, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	var data applicant.PriorSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PriorSchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SavePriorSchool(ctx.Request().Context(), uid, data); err != nil {
		return errors.Wrap(err, "saving prior school")
	}
	return ctx.JSON(http.StatusOK, data)
}

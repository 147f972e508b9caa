package echoapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
	"github.com/trezcool/ppdb/services/metrics"
)

type addressApi struct {
	svc            *applicant.Service
	src            region.Source
	steps          *stepStore
	validate       *validator.Validate
	logger         core.Logger
	resolveTimeout time.Duration
}

func registerAddressAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *addressApi) {
	fg := g.Group("/form/address", jwt, authorize(RoleUser))
	fg.GET("", api.retrieve)
	fg.POST("", api.upsert)

	sg := fg.Group("/steps")
	sg.POST("", api.startStep)
	sg.GET("/:id", api.viewStep)
	sg.PUT("/:id/selection", api.selectRegion)
	sg.PUT("/:id/fields", api.setFields)
	sg.POST("/:id/submit", api.submitStep)
	sg.DELETE("/:id", api.closeStep)
}

// Handlers

func (api *addressApi) retrieve(ctx echo.Context) error {
	uid, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.GetAddress(ctx.Request().Context(), uid)
	if err != nil {
		return errors.Wrap(err, "getting address")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *addressApi) upsert(ctx echo.Context) error {
	uid, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	var data applicant.UpdateAddress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAddress")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec := data.Record()
	if err := api.svc.SaveAddress(ctx.Request().Context(), uid, rec); err != nil {
		return errors.Wrap(err, "saving address")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *addressApi) startStep(ctx echo.Context) error {
	uid, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	prev, err := api.svc.FindAddress(ctx.Request().Context(), uid)
	if err != nil {
		return errors.Wrap(err, "finding address")
	}

	step := region.NewStep(api.src, region.StepOptions{
		OnChange: func(rec region.AddressRecord) {
			metrics.AddressStepEditsTotal.Inc()
			api.logger.Debug("address step changed", map[string]interface{}{"user": uid, "filled": rec.Filled()})
		},
		OnSave: func(ctx context.Context, rec region.AddressRecord) error {
			return api.svc.SaveAddress(ctx, uid, rec)
		},
		Logger:         api.logger,
		ResolveTimeout: api.resolveTimeout,
	})
	if err := step.Load(prev); err != nil {
		return errors.Wrap(err, "loading address step")
	}
	id := api.steps.add(uid, step)

	if err := api.wait(ctx, step); err != nil {
		return err
	}
	view, err := step.View()
	if err != nil {
		return errors.Wrap(err, "viewing address step")
	}
	return ctx.JSON(http.StatusCreated, StepResponse{ID: id, StepView: view})
}

// wait blocks until the step is resolved when the request asks for it with `?wait=true`.
func (api *addressApi) wait(ctx echo.Context, step *region.Step) error {
	wait, _ := strconv.ParseBool(ctx.QueryParam("wait"))
	if !wait {
		return nil
	}
	if err := step.Wait(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "waiting for address resolution")
	}
	return nil
}

func (api *addressApi) ctxStep(ctx echo.Context) (*region.Step, error) {
	uid, err := getContextUserID(ctx)
	if err != nil {
		return nil, err
	}
	return api.steps.get(ctx.Param("id"), uid)
}

func (api *addressApi) respondStep(ctx echo.Context, step *region.Step) error {
	view, err := step.View()
	if err != nil {
		return errors.Wrap(err, "viewing address step")
	}
	return ctx.JSON(http.StatusOK, StepResponse{ID: ctx.Param("id"), StepView: view})
}

func (api *addressApi) viewStep(ctx echo.Context) error {
	step, err := api.ctxStep(ctx)
	if err != nil {
		return err
	}
	if err := api.wait(ctx, step); err != nil {
		return err
	}
	if err := step.Refresh(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "refreshing address step")
	}
	return api.respondStep(ctx, step)
}

func (api *addressApi) selectRegion(ctx echo.Context) error {
	step, err := api.ctxStep(ctx)
	if err != nil {
		return err
	}
	var data SelectRegionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectRegionRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	if err := step.Select(ctx.Request().Context(), *data.Level, data.NodeID); err != nil {
		return errors.Wrap(err, "selecting region")
	}
	return api.respondStep(ctx, step)
}

func (api *addressApi) setFields(ctx echo.Context) error {
	step, err := api.ctxStep(ctx)
	if err != nil {
		return err
	}
	var data applicant.AddressFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddressFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := step.SetFields(data.Freeform()); err != nil {
		return errors.Wrap(err, "setting address fields")
	}
	return api.respondStep(ctx, step)
}

func (api *addressApi) submitStep(ctx echo.Context) error {
	step, err := api.ctxStep(ctx)
	if err != nil {
		return err
	}
	rec, err := step.Submit(ctx.Request().Context())
	if err != nil {
		metrics.AddressSubmitsTotal.WithLabelValues("error").Inc()
		return errors.Wrap(err, "submitting address step")
	}
	metrics.AddressSubmitsTotal.WithLabelValues("ok").Inc()
	return ctx.JSON(http.StatusOK, rec)
}

func (api *addressApi) closeStep(ctx echo.Context) error {
	uid, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	if err := api.steps.remove(ctx.Param("id"), uid); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	StepResponse struct {
		ID string `json:"id"`
		region.StepView
	}

	SelectRegionRequest struct {
		Level  *region.Level `json:"level" validate:"required"`
		NodeID region.NodeID `json:"id"` // empty unsets the level
	}
)

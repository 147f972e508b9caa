package echoapi

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/applicant"
)

type registrantApi struct {
	svc      *applicant.Service
	validate *validator.Validate
}

func registerRegistrantAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *applicant.Service, validate *validator.Validate) {
	api := registrantApi{svc: svc, validate: validate}

	rg := g.Group("/registrants", jwt)
	rg.GET("", api.query, authorize(RoleAdmin))
	rg.GET("/export", api.export, authorize(RoleAdmin))
	rg.GET("/:userid", api.retrieve, selfOrAdminMiddleware())
	rg.PUT("/:userid/status", api.setStatus, authorize(RoleAdmin))
}

// Handlers

func (api *registrantApi) query(ctx echo.Context) error {
	var params RegistrantQuery
	if err := ctx.Bind(&params); err != nil {
		return errors.Wrap(err, "binding to RegistrantQuery")
	}
	ordering := &Ordering{Allowed: applicant.OrderingFields}
	if err := ordering.Bind(ctx); err != nil {
		return err
	}

	regs, pages, err := api.svc.QueryRegistrants(ctx.Request().Context(), params.QueryFilter, params.Page, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying registrants")
	}
	if regs == nil {
		regs = []applicant.Registrant{}
	}
	return ctx.JSON(http.StatusOK, RegistrantList{Registrants: regs, TotalPages: pages})
}

func (api *registrantApi) retrieve(ctx echo.Context) error {
	uid, err := paramUserID(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.GetRegistrant(ctx.Request().Context(), uid)
	if err != nil {
		return errors.Wrap(err, "getting registrant")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *registrantApi) setStatus(ctx echo.Context) error {
	uid, err := paramUserID(ctx)
	if err != nil {
		return err
	}
	var data applicant.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.SetStatus(ctx.Request().Context(), uid, data.Status)
	if err != nil {
		return errors.Wrap(err, "setting registrant status")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrantApi) export(ctx echo.Context) error {
	year := ctx.QueryParam("academic_year")
	details, err := api.svc.Export(ctx.Request().Context(), year)
	if err != nil {
		return errors.Wrap(err, "exporting registrants")
	}

	var buf bytes.Buffer
	if err := applicant.WriteCSV(&buf, details); err != nil {
		return errors.Wrap(err, "writing registrants csv")
	}
	filename := "registrants-" + strings.ReplaceAll(core.CleanString(year), "/", "-") + ".csv"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func paramUserID(ctx echo.Context) (int, error) {
	uid, err := strconv.Atoi(ctx.Param("userid"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return uid, nil
}

// selfOrAdminMiddleware lets admins and the applicant `:userid` through.
func selfOrAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin() || ctx.Param("userid") == claims.Subject {
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}

type (
	RegistrantQuery struct {
		applicant.QueryFilter
		core.Page
	}

	RegistrantList struct {
		Registrants []applicant.Registrant `json:"registrants"`
		TotalPages  int                    `json:"total_pages"`
	}
)

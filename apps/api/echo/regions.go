package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core/region"
)

type regionApi struct {
	src region.Source
}

func registerRegionAPI(g *echo.Group, jwt echo.MiddlewareFunc, src region.Source) {
	api := regionApi{src: src}

	rg := g.Group("/regions", jwt, authorize(RoleUser, RoleAdmin))
	rg.GET("/provinces", api.provinces)
	rg.GET("/provinces/:id/cities", api.children(region.City))
	rg.GET("/cities/:id/districts", api.children(region.District))
	rg.GET("/districts/:id/villages", api.children(region.Village))
}

func (api *regionApi) provinces(ctx echo.Context) error {
	nodes, err := region.Children(ctx.Request().Context(), api.src, region.Province, region.Unset)
	if err != nil {
		return errors.Wrap(err, "listing provinces")
	}
	return ctx.JSON(http.StatusOK, nonNilNodes(nodes))
}

func (api *regionApi) children(lvl region.Level) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		parent := region.NodeID(ctx.Param("id"))
		nodes, err := region.Children(ctx.Request().Context(), api.src, lvl, parent)
		if err != nil {
			return errors.Wrapf(err, "listing %s options of %s", lvl, parent)
		}
		return ctx.JSON(http.StatusOK, nonNilNodes(nodes))
	}
}

func nonNilNodes(nodes region.Nodes) region.Nodes {
	if nodes == nil {
		return region.Nodes{}
	}
	return nodes
}

package region

import (
	"context"

	"github.com/pkg/errors"
)

// ErrSourceUnavailable is returned by a Source that could not reach its data.
var ErrSourceUnavailable = errors.New("region source unavailable")

// Source supplies the ordered child regions of a parent region. It is read-only.
type Source interface {
	ListProvinces(ctx context.Context) (Nodes, error)
	ListCities(ctx context.Context, provinceID NodeID) (Nodes, error)
	ListDistricts(ctx context.Context, cityID NodeID) (Nodes, error)
	ListVillages(ctx context.Context, districtID NodeID) (Nodes, error)
}

// Children lists the nodes of level l under parent. parent is ignored for Province.
func Children(ctx context.Context, src Source, l Level, parent NodeID) (Nodes, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(ErrSourceUnavailable, err.Error())
	}
	switch l {
	case Province:
		return src.ListProvinces(ctx)
	case City:
		return src.ListCities(ctx, parent)
	case District:
		return src.ListDistricts(ctx, parent)
	case Village:
		return src.ListVillages(ctx, parent)
	}
	return nil, errors.Wrapf(ErrInvalidLevel, "%d", int(l))
}

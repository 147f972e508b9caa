package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ppdb/core"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=field,-other` to orderings over the Allowed fields.
type Ordering struct {
	Allowed   []string
	Orderings []core.DBOrdering
}

// Bind rejects any field outside Allowed with a core.ValidationError on `ordering`.
func (ord *Ordering) Bind(ctx echo.Context) error {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !ord.allows(field) {
			return core.NewFieldError(orderingParam, "must be a comma-separated list of: "+strings.Join(ord.Allowed, ", "))
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return nil
}

func (ord *Ordering) allows(field string) bool {
	for _, a := range ord.Allowed {
		if field == a {
			return true
		}
	}
	return false
}

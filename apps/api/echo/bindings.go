package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shulehub/shule/core"
)

const (
	orderingParam = "ordering"
	pageParam     = "page"
	pageSizeParam = "page_size"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads a comma separated list of fields from the "ordering" query param. A leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPage reads the "page" and "page_size" query params. Invalid values are ignored.
func bindPage(ctx echo.Context) core.Page {
	var page core.Page
	if n, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(ctx.QueryParam(pageSizeParam)); err == nil {
		page.Size = n
	}
	return page
}

// intParam parses the path param name, returning notFound if it is not an integer.
func intParam(ctx echo.Context, name string, notFound error) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, notFound
	}
	return id, nil
}

// intQueryParam parses the query param name; it returns 0 when absent and a field error when malformed.
func intQueryParam(ctx echo.Context, name string) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, core.NewFieldError(name, "a valid integer is required")
	}
	return i, nil
}

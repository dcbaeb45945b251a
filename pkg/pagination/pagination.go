package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

// MaxLimit caps an explicit limit.
const MaxLimit = 100

// Params holds optional paging. A zero Limit means "no limit": listings
// return every row unless the client asks for a page.
type Params struct {
	Limit  int
	Offset int
}

// Paged reports whether the client asked for a page.
func (p Params) Paged() bool {
	return p.Limit > 0
}

// FromContext reads limit and offset query parameters. Absent parameters
// leave the listing unbounded; malformed ones are an error.
func FromContext(c echo.Context) (Params, error) {
	var p Params

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Params{}, fmt.Errorf("limit must be a positive integer")
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		p.Limit = limit
	}

	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Params{}, fmt.Errorf("offset must be a non-negative integer")
		}
		p.Offset = offset
	}

	return p, nil
}

// SQL returns the LIMIT and OFFSET clause, or only OFFSET when unbounded.
func (p Params) SQL() string {
	switch {
	case p.Limit > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset)
	case p.Offset > 0:
		return fmt.Sprintf("OFFSET %d", p.Offset)
	default:
		return ""
	}
}

// Apply slices items the way SQL() would page a query.
func Apply[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

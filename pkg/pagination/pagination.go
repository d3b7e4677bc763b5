package pagination

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const DefaultPageSize = 15

// Params holds page-based pagination parameters extracted from a request.
// Export disables paging so every row is returned.
type Params struct {
	Page   int
	Size   int
	Export bool
}

// FromContext extracts pagination parameters from the echo context.
// A missing or non-numeric page falls back to the first page.
func FromContext(c echo.Context, size int) Params {
	if size <= 0 {
		size = DefaultPageSize
	}
	page, err := strconv.Atoi(strings.TrimSpace(c.QueryParam("page")))
	if err != nil || page < 1 {
		page = 1
	}
	export := strings.EqualFold(c.QueryParam("export"), "true")
	return Params{Page: page, Size: size, Export: export}
}

// Limit returns the row limit, or 0 when every row is requested.
func (p Params) Limit() int {
	if p.Export {
		return 0
	}
	return p.Size
}

// Offset returns the row offset of the current page.
func (p Params) Offset() int {
	if p.Export || p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

// Meta is the pagination block of a listing response.
type Meta struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	TotalRows  int `json:"totalRows"`
}

// Response wraps a paginated API response.
type Response struct {
	Data       interface{} `json:"data"`
	Pagination Meta        `json:"pagination"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	meta := Meta{Page: p.Page, TotalRows: total, TotalPages: 1}
	if p.Export {
		meta.Page = 1
	} else if p.Size > 0 {
		meta.TotalPages = (total + p.Size - 1) / p.Size
	}
	if meta.TotalPages == 0 {
		meta.TotalPages = 1
	}
	return &Response{Data: data, Pagination: meta}
}

package indicator

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/indicators/internal/domain/territory"
	"github.com/ehr/indicators/internal/platform/auth"
	"github.com/ehr/indicators/pkg/pagination"
)

type Handler struct {
	svc      *Service
	pageSize int
}

func NewHandler(svc *Service, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &Handler{svc: svc, pageSize: pageSize}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/indicators", h.Catalog)
	api.GET("/indicators/ranking-:family", h.Ranking)
	api.GET("/indicators/infant/:id/vaccinations", h.ChildVaccinations)
	api.GET("/indicators/:family", h.List)
	api.DELETE("/indicators/cache", h.InvalidateCache, auth.RequireRole("admin"))
}

func (h *Handler) Catalog(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Catalog())
}

func (h *Handler) List(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return err
	}
	page := pagination.FromContext(c, h.pageSize)
	res, err := h.svc.List(c.Request().Context(), Family(c.Param("family")), f, page)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(res.Results, res.Total, page))
}

func (h *Handler) Ranking(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return err
	}
	scores, err := h.svc.Ranking(c.Request().Context(), Family(c.Param("family")), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, scores)
}

func (h *Handler) ChildVaccinations(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	card, err := h.svc.ChildVaccinations(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, card)
}

func (h *Handler) InvalidateCache(c echo.Context) error {
	n, err := h.svc.InvalidateCache(c.Request().Context(), Family(strings.TrimSpace(c.QueryParam("family"))))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"invalidated": n})
}

// filter reads team, subarea and period. An operator bound to a team only
// sees that team.
func (h *Handler) filter(c echo.Context) (Filter, error) {
	f := Filter{
		Team:    strings.TrimSpace(c.QueryParam("team")),
		Subarea: strings.TrimSpace(c.QueryParam("subarea")),
		Period:  ParsePeriod(c.QueryParam("period"), h.svc.Today()),
	}
	if own := auth.TeamFromContext(c.Request().Context()); own != "" {
		f.Team = own
	}
	if f.Subarea != "" && !territory.IsNumeric(f.Subarea) {
		return f, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%v: subarea must be numeric", ErrInvalidFilter))
	}
	return f, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownFamily):
		return echo.NewHTTPError(http.StatusNotFound, "unknown indicator family")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrInvalidFilter):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute indicator")
	}
}

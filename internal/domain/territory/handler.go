package territory

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/indicators/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/indicators/teams", h.ListTeams)
	api.GET("/indicators/subareas", h.ListSubareas)
}

func (h *Handler) ListTeams(c echo.Context) error {
	teams, err := h.svc.ClinicalTeams(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list teams failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list teams")
	}
	if own := auth.TeamFromContext(c.Request().Context()); own != "" {
		scoped := teams[:0]
		for _, t := range teams {
			if t.Matches(own) {
				scoped = append(scoped, t)
			}
		}
		teams = scoped
	}
	return c.JSON(http.StatusOK, teams)
}

func (h *Handler) ListSubareas(c echo.Context) error {
	team := strings.TrimSpace(c.QueryParam("team"))
	if own := auth.TeamFromContext(c.Request().Context()); own != "" {
		team = own
	}
	subareas, err := h.svc.Subareas(c.Request().Context(), team)
	if err != nil {
		h.logger.Error().Err(err).Str("team", team).Msg("list subareas failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list subareas")
	}
	return c.JSON(http.StatusOK, subareas)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/indicators/internal/config"
	"github.com/ehr/indicators/internal/domain/indicator"
	"github.com/ehr/indicators/internal/domain/territory"
	"github.com/ehr/indicators/internal/platform/auth"
	"github.com/ehr/indicators/internal/platform/cache"
	"github.com/ehr/indicators/internal/platform/db"
	"github.com/ehr/indicators/internal/platform/metrics"
	"github.com/ehr/indicators/internal/platform/middleware"
	"github.com/ehr/indicators/pkg/pagination"
)

const version = "0.1.0"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "indicators-server",
		Short:        "Primary care quality indicator API",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(familiesCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the indicator API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func evaluateCmd() *cobra.Command {
	var family, ref, fixture, team, subarea string
	var list bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute an indicator offline from a JSON fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			f, err := os.Open(fixture)
			if err != nil {
				return fmt.Errorf("open fixture: %w", err)
			}
			defer f.Close()
			ds, err := indicator.LoadDataset(f)
			if err != nil {
				return err
			}
			return evaluate(cmd.Context(), cmd.OutOrStdout(), cfg, ds, evaluateRequest{
				family:  indicator.Family(family),
				period:  ref,
				team:    team,
				subarea: subarea,
				list:    list,
			})
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "indicator family (see the families command)")
	cmd.Flags().StringVar(&ref, "ref", "", "comma-separated YYYY-MM competence months; defaults to year to date")
	cmd.Flags().StringVar(&fixture, "fixture", "", "path to the JSON dataset")
	cmd.Flags().StringVar(&team, "team", "", "team INE code or name")
	cmd.Flags().StringVar(&subarea, "subarea", "", "sub-area number")
	cmd.Flags().BoolVar(&list, "list", false, "print the nominal list instead of the ranking")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

func familiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "Print the indicator catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			registry, err := indicator.NewRegistry(timeline(cfg.Clinical))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), registry.Catalog())
		},
	}
}

type evaluateRequest struct {
	family  indicator.Family
	period  string
	team    string
	subarea string
	list    bool
}

// evaluate runs one computation against an in-memory copy of ds.
func evaluate(ctx context.Context, out io.Writer, cfg *config.Config, ds *indicator.Dataset, req evaluateRequest) error {
	tl := timeline(cfg.Clinical)
	registry, err := indicator.NewRegistry(tl)
	if err != nil {
		return err
	}

	teams := territory.NewMemoryRepo()
	for _, t := range ds.Teams {
		teams.AddTeam(t)
	}
	for team, subs := range ds.Subareas {
		for _, s := range subs {
			teams.AddSubarea(team, s)
		}
	}

	store := indicator.NewMemoryStore(ds)
	svc := indicator.NewService(registry, store, store, territory.NewService(teams),
		indicator.WithTimeline(tl),
		indicator.WithWorkers(cfg.EvalWorkers),
		indicator.WithChunkSize(cfg.EventChunkSize),
	)

	f := indicator.Filter{
		Team:    strings.TrimSpace(req.team),
		Subarea: strings.TrimSpace(req.subarea),
		Period:  indicator.ParsePeriod(req.period, svc.Today()),
	}
	if req.list {
		res, err := svc.List(ctx, req.family, f, pagination.Params{Page: 1, Export: true})
		if err != nil {
			return err
		}
		return writeJSON(out, res.Results)
	}
	scores, err := svc.Ranking(ctx, req.family, f)
	if err != nil {
		return err
	}
	return writeJSON(out, scores)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func timeline(c config.Clinical) indicator.PregnancyTimeline {
	return indicator.PregnancyTimeline{
		ViabilityDays:  c.PregnancyViabilityDays,
		LookbackMonths: c.PregnancyLookbackMonths,
		DueDays:        c.PregnancyDueDays,
		PuerperiumDays: c.PuerperiumDays,
		MarginDays:     c.PuerperiumMarginDays,
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	rec := metrics.New()
	tl := timeline(cfg.Clinical)
	registry, err := indicator.NewRegistry(tl)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid indicator definitions")
	}

	territorySvc := territory.NewService(territory.NewRepoPG(pool))
	store := indicator.NewStorePG(pool)
	indicatorSvc := indicator.NewService(registry, store, store, territorySvc,
		indicator.WithCache(cache.NewMemory(), cfg.RankingCacheTTL),
		indicator.WithMetrics(rec),
		indicator.WithLogger(logger.With().Str("component", "indicator").Logger()),
		indicator.WithWorkers(cfg.EvalWorkers),
		indicator.WithChunkSize(cfg.EventChunkSize),
		indicator.WithTimeline(tl),
	)

	e := newServer(cfg, logger, rec, indicatorSvc, territorySvc)

	// DB health check endpoint
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires middleware and routes. Store-backed health checks are
// registered by the caller.
func newServer(cfg *config.Config, logger zerolog.Logger, rec *metrics.Recorder, indicatorSvc *indicator.Service, territorySvc *territory.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(rec.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthSigningKey == "" && cfg.AuthJWKSURL == "" {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond > 0 {
		apiV1.Use(middleware.RateLimit(rateLimitCfg))
	}
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	territory.NewHandler(territorySvc, logger).RegisterRoutes(apiV1)
	indicator.NewHandler(indicatorSvc, cfg.PageSize).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(rec.Handler()))
	return e
}

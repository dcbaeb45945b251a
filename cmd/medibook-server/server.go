package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/config"
	"github.com/medibook/medibook/internal/domain/appointment"
	"github.com/medibook/medibook/internal/domain/directory"
	"github.com/medibook/medibook/internal/platform/apperr"
	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/middleware"
	"github.com/medibook/medibook/internal/platform/response"
)

type serverDeps struct {
	cfg          *config.Config
	logger       zerolog.Logger
	registry     *prometheus.Registry
	appointments appointment.Repository
	directory    directory.Directory
	dbHealth     echo.HandlerFunc
}

func newServer(d serverDeps) *echo.Echo {
	cfg := d.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(d.logger, cfg.IsDev())
	e.IPExtractor = ipExtractor(cfg)

	// Global middleware
	e.Use(middleware.Recovery(d.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.logger))
	e.Use(middleware.Metrics(middleware.NewHTTPMetrics(d.registry)))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader,
			auth.DevUserIDHeader, auth.DevRoleHeader},
	}))
	e.Use(echomw.BodyLimit("10M"))
	e.Use(middleware.Sanitize(d.logger))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Public endpoints
	e.GET("/api/v1/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, response.Envelope{Success: true, Message: "Server is running", Data: response.Empty{}})
	})
	if d.dbHealth != nil {
		e.GET("/health/db", d.dbHealth)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})))

	// Authenticated API
	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.JWTSecret),
		Skipper:    auth.AuthSkipper,
	}
	authMW := auth.JWTMiddleware(jwtCfg)
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware(jwtCfg)
	}
	api := e.Group("/api",
		middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
			IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
		}),
		authMW,
		middleware.Audit(d.logger, nil),
	)

	svc := appointment.NewService(d.appointments, d.directory, d.logger, appointment.NewMetrics(d.registry))
	appointment.NewHandler(svc).RegisterRoutes(api)
	directory.NewHandler(d.directory).RegisterRoutes(api.Group("/doctor"))

	return e
}

// ipExtractor keys clients by socket address unless trusted proxies are
// configured, in which case X-Forwarded-For is read through them only.
func ipExtractor(cfg *config.Config) echo.IPExtractor {
	ranges, _ := cfg.TrustedProxyRanges() // checked by Validate
	if len(ranges) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range ranges {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

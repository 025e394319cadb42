package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"usagesummary/internal/app"
	"usagesummary/internal/http/handlers"
	httpapi "usagesummary/internal/http/httpapi"
	"usagesummary/internal/infra"
	"usagesummary/internal/infra/geoip"
	"usagesummary/internal/middleware"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("api: JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to initialise services")
	}
	defer svc.Close()

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip database unavailable, country lookup disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		defer resolver.Close()
		lookup = resolver.Lookup()
	}

	handlerApp := &handlers.App{
		Summaries: svc.Summaries,
		Events:    svc.Events,
		Runner:    svc.Generator,
		Ping:      svc.Ping,
		Logger:    logger,
	}
	router := httpapi.NewRouter(handlerApp, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Locales:         []language.Tag{language.English, language.German, language.French, language.Spanish, language.Indonesian, language.Arabic},
		CountryLookup:   lookup,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().Str("addr", server.Addr()).Msg("api: listening")
	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api: http server failed")
	}
	logger.Info().Msg("api: stopped")
}

package main

import (
	"context"
	"fmt"
	"net/http"

	"clash-war-tracker/internal/config"
	"clash-war-tracker/internal/constants"
	fxmodules "clash-war-tracker/internal/fx"
	"clash-war-tracker/internal/logger"
	"clash-war-tracker/internal/middleware"
	"clash-war-tracker/internal/monitoring"
	"clash-war-tracker/internal/server"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	warServer *server.Server,
	cfg *config.Config,
	log zerolog.Logger,
) {
	log = logger.WithLevel(log, cfg.LogLevel)
	monitoring.Register()

	router := mux.NewRouter()
	warServer.Routes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	handler := middleware.RequestID(log)(
		middleware.RateLimit(limiter)(
			c.Handler(router),
		),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			log.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/eirem/relay/internal/adapters/http"
	ws "github.com/eirem/relay/internal/adapters/signal"
	"github.com/eirem/relay/internal/adapters/store"
	"github.com/eirem/relay/internal/app"
	"github.com/eirem/relay/internal/auth"
	"github.com/eirem/relay/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("jwt_secret must be configured")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open message store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("message store close")
		}
	}()

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	metrics := app.NewMetrics(prometheus.DefaultRegisterer)
	registry := app.NewRegistry()
	relay := app.NewRelay(registry, st, verifier, metrics)
	signaling := app.NewRouter(registry, metrics)

	ctl := ws.NewController(relay, signaling, ws.Options{
		ReadLimit:     cfg.ReadLimit,
		SendBuffer:    cfg.SendBuffer,
		WriteTimeout:  cfg.WriteTimeout,
		MessageRate:   cfg.MessageRate,
		MessageWindow: cfg.MessageWindow,
	})

	r := router.SetupRouter(ctx, cfg, ctl, st, verifier)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("relay server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

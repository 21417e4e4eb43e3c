// Package http wires the HTTP surface: the websocket endpoint, the chat
// history API, metrics and health.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/eirem/relay/internal/adapters/signal"
	"github.com/eirem/relay/internal/config"
	"github.com/eirem/relay/internal/core"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller, store core.MessageStore, verifier core.TokenVerifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})
	api.GET("/messages/:userID", historyHandler(store, verifier))

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

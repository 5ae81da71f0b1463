package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
	"github.com/thirdweb-dev/treasury-snapshot/internal/handlers"
	"github.com/thirdweb-dev/treasury-snapshot/internal/middleware"
	"github.com/thirdweb-dev/treasury-snapshot/internal/storage"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest published artifacts over HTTP",
		Long:  "Serves index.json and the per-chain snapshots from the output directory, plus Prometheus metrics.",
		Run: func(cmd *cobra.Command, args []string) {
			RunServe(cmd, args)
		},
	}
)

func RunServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	snapshots := handlers.NewSnapshotHandler(storage.NewFileSink(config.Cfg.Output.Dir))
	root := r.Group("/")
	{
		root.Use(middleware.Authorization(config.Cfg.API.BasicAuth))
		root.GET("/index", snapshots.GetIndex)
		root.GET("/chains/:chain", snapshots.GetChain)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	host := config.Cfg.API.Host
	if host == "" {
		host = ":3000"
	}
	srv := &http.Server{
		Addr:    host,
		Handler: r,
	}

	go func() {
		log.Info().Str("host", host).Msg("Starting artifact API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Artifact API failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down artifact API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down artifact API")
	}
}

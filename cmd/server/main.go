package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FrankOrac/car-track/config"
	"github.com/FrankOrac/car-track/module/core"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := config.NewLogger(&config.Config{LogLevel: "info"})
		fallback.Fatal().Err(err).Msg("load config")
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.NewPostgres(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer func() { _ = db.Close() }()

	if err := core.Migrate(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("rabbitmq")
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("mqtt")
	}
	defer mqttClient.Disconnect(250)

	coreModule, err := core.Build(db, amqpConn, mqttClient, cfg.SpeedLimitKmh, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("core module")
	}

	if err := coreModule.StartSubscribers(); err != nil {
		logger.Fatal().Err(err).Msg("start subscribers")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), core.RequestLogger(logger))

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Float64("speed_limit_kmh", cfg.SpeedLimitKmh).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
}

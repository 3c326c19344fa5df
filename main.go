package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"confidence-engine/config"
	"confidence-engine/internal/api"
	"confidence-engine/internal/events"
	"confidence-engine/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.Config{Level: "INFO"})
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.Setup(cfg.LoggingConfig)
	logger.Info().Msg("structured logging initialized")

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analysis configuration")
	}

	eventBus := events.NewEventBus()
	logger.Info().Msg("event bus initialized")

	server := api.NewServer(api.ServerConfig{
		Port:           cfg.ServerConfig.Port,
		Host:           cfg.ServerConfig.Host,
		AllowedOrigins: []string{cfg.ServerConfig.AllowedOrigins},
		ReadTimeout:    time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
		ProductionMode: os.Getenv("GIN_MODE") == "release",
	}, engineCfg, eventBus)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("shutdown complete")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/server"
	"github.com/jmalhado/crisiscast/internal/storage/sqlite"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.LoadServerConfig()

	store, err := sqlite.NewStore(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("init storage")
	}
	defer store.Close()

	app := server.NewApp(cfg, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown")
	}
}

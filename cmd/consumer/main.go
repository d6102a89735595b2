package main // Entry point of the catalog event consumer

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/movie-scheduler/internal/config"
	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/queue"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("ignoring .env")
	}
	logging.Init(logging.ConfigFromEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := queue.NewLogWriter(os.Getenv("CATALOG_LOG_DIR"))
	logging.Info().Str("file", w.Path()).Str("queue", queue.CatalogQueueName).Msg("consuming catalog events")

	if err := queue.StartCatalogConsumer(ctx, config.AMQPURL(), w); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("consumer")
	}
	logging.Info().Msg("stopped")
}

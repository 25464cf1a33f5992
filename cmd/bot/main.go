package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_tracker/internal/modules/config"
	"signal_tracker/internal/modules/postgres"
	"signal_tracker/internal/modules/tracker"

	telegram "signal_tracker/internal/modules/telegram_bot"

	"signal_tracker/pkg/logger"
)

func main() {
	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	logger.InfoLogger = zl
	logger.FatalLogger = zl
	logger.SetServiceName("signal_tracker")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		tracker.Module(),
		telegram.Module(),
	)
	app.Run()
}

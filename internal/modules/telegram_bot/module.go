package telegram

import (
	"context"

	"go.uber.org/fx"

	"signal_tracker/internal/modules/telegram_bot/service"
	trackersvc "signal_tracker/internal/modules/tracker/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Сам бот
		fx.Provide(
			service.NewTelegram, // func(*config.Config) (*service.Telegram, error)
		),

		// 2. Адаптеры для движка: доставка и история
		fx.Provide(
			func(t *service.Telegram) trackersvc.Deliverer { return t },
			func(t *service.Telegram) trackersvc.HistoryFetcher { return t },
		),

		// Связываем с движком и запускаем long-polling через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, ctx context.Context, t *service.Telegram,
				tracker *trackersvc.Tracker, backfiller *trackersvc.Backfiller, evaluator *trackersvc.Evaluator,
			) {
				t.Attach(tracker, backfiller, evaluator)
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						go func() {
							_ = t.Start(ctx)
						}()
						return nil
					},
					OnStop: func(_ context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}

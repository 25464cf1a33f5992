package tracker

import (
	"context"

	"go.uber.org/fx"

	"signal_tracker/internal/exchange"
	"signal_tracker/internal/modules/config"
	"signal_tracker/internal/modules/tracker/service"
	"signal_tracker/internal/modules/tracker/service/pg"
	"signal_tracker/pkg/tracing"
)

func Module() fx.Option {
	return fx.Module("tracker",
		// 1. Стор сигналов поверх postgres
		fx.Provide(
			pg.NewSignals,
			func(s *pg.Signals) service.Store { return s },
		),

		// 2. Оракул цен: публичный REST OKX
		fx.Provide(
			exchange.NewOkxClient,
			func(c *exchange.OkxClient) service.PriceOracle { return c },
		),

		// 3. Сам движок
		fx.Provide(
			service.NewParser,
			service.NewNotifier,
			service.NewReporter,
			func(cfg *config.Config, store service.Store, oracle service.PriceOracle, n *service.Notifier) *service.Evaluator {
				return service.NewEvaluator(store, oracle, n, cfg.PriceCallDelay)
			},
			service.NewTracker,
			service.NewBackfiller,
			service.NewScheduler,
		),

		// Трейсер и фоновые воркеры через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, ctx context.Context, cfg *config.Config, s *service.Scheduler) {
				var closeTracer func()
				var cancel context.CancelFunc
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						if cfg.Jaeger.Host != "" {
							tracing.SetServiceName("signal_tracker")
							_, closer, err := tracing.InitTracer(tracing.Config{
								Host: cfg.Jaeger.Host,
								Port: cfg.Jaeger.Port,
							})
							if err != nil {
								return err
							}
							closeTracer = closer
						}
						var runCtx context.Context
						runCtx, cancel = context.WithCancel(ctx)
						s.Start(runCtx)
						return nil
					},
					OnStop: func(_ context.Context) error {
						// срубаем воркеры и дожидаемся их выхода
						cancel()
						s.Wait()
						if closeTracer != nil {
							closeTracer()
						}
						return nil
					},
				})
			},
		),
	)
}

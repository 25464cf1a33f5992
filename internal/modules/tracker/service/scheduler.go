package service

import (
	"context"
	"sync"
	"time"

	"signal_tracker/internal/models"
	"signal_tracker/internal/modules/config"
	"signal_tracker/pkg/logger"
)

// Scheduler — набор независимых таймеров: тик эвалюатора, плановые
// отчёты, догоняющий бэкафилл. Таймеры не блокируют друг друга,
// останавливаются отменой контекста, Wait дожидается выхода всех.
type Scheduler struct {
	cfg        *config.Config
	evaluator  *Evaluator
	tracker    *Tracker
	backfiller *Backfiller
	notifier   *Notifier

	wg sync.WaitGroup
}

func NewScheduler(cfg *config.Config, evaluator *Evaluator, tracker *Tracker, backfiller *Backfiller, notifier *Notifier) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		evaluator:  evaluator,
		tracker:    tracker,
		backfiller: backfiller,
		notifier:   notifier,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.spawn(func() { s.evaluatorWorker(ctx) })
	s.spawn(func() { s.backfillWorker(ctx) })

	if s.cfg.Reports.Daily {
		s.spawn(func() { s.reportWorker(ctx, models.PeriodDaily) })
	}
	if s.cfg.Reports.Weekly {
		s.spawn(func() { s.reportWorker(ctx, models.PeriodWeekly) })
	}
	if s.cfg.Reports.Monthly {
		s.spawn(func() { s.reportWorker(ctx, models.PeriodMonthly) })
	}
}

func (s *Scheduler) spawn(worker func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		worker()
	}()
}

// Wait блокируется до выхода всех воркеров после отмены контекста Start.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) evaluatorWorker(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Tick сам пропустит проход, если предыдущий ещё идёт
			s.evaluator.Tick(ctx)
		}
	}
}

func (s *Scheduler) reportWorker(ctx context.Context, period models.Period) {
	ticker := time.NewTicker(period.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rep, err := s.tracker.Summary(ctx, period)
			if err != nil {
				logger.Error("scheduler: %s report: %v", period, err)
				continue
			}
			s.notifier.Summary(ctx, s.reportChatID(), rep)
		}
	}
}

func (s *Scheduler) reportChatID() int64 {
	if s.cfg.Telegram.ReportChatID != 0 {
		return s.cfg.Telegram.ReportChatID
	}
	return s.cfg.Telegram.AdminChatID
}

func (s *Scheduler) backfillWorker(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.BackfillInterval)
	defer ticker.Stop()

	s.backfillAll(ctx) // сразу при старте, догоняем пропущенное

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.backfillAll(ctx)
		}
	}
}

func (s *Scheduler) backfillAll(ctx context.Context) {
	for _, route := range s.cfg.Channels {
		n, err := s.backfiller.Backfill(ctx, route.Source, s.cfg.BackfillLimit)
		if err != nil {
			logger.Error("scheduler: backfill %d: %v", route.Source, err)
			continue
		}
		if n > 0 {
			logger.Info("scheduler: backfill %d stored %d signals", route.Source, n)
		}
	}
}

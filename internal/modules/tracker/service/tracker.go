package service

import (
	"context"
	"fmt"
	"time"

	"signal_tracker/internal/models"
	"signal_tracker/internal/modules/config"
	"signal_tracker/pkg/logger"
)

// Tracker — фасад движка: приём сообщений из источников плюс
// административные операции. Собирается один раз со всеми
// зависимостями, никаких глобальных клиентов.
type Tracker struct {
	cfg      *config.Config
	store    Store
	parser   *Parser
	notifier *Notifier
	reporter *Reporter
}

func NewTracker(cfg *config.Config, store Store, parser *Parser, notifier *Notifier, reporter *Reporter) *Tracker {
	return &Tracker{
		cfg:      cfg,
		store:    store,
		parser:   parser,
		notifier: notifier,
		reporter: reporter,
	}
}

// HandleMessage прогоняет сообщение через парсер и стор.
// Возвращает true, если сообщение распознано и сохранено как новый сигнал.
func (t *Tracker) HandleMessage(ctx context.Context, in models.Incoming) (bool, error) {
	dest, ok := t.cfg.DestinationFor(in.ChatID)
	if !ok {
		return false, nil
	}

	sig := t.parser.Parse(in.Text)
	if sig == nil {
		// не сигнал — ожидаемый частый случай
		return false, nil
	}

	sig.CreatedAt = time.Now()
	sig.SourceChatID = in.ChatID
	sig.SourceMessageID = in.MessageID
	sig.DestChatID = dest

	created, err := t.store.Create(ctx, sig)
	if err != nil {
		return false, fmt.Errorf("tracker: create signal: %w", err)
	}
	if !created {
		// дубликат в окне дедупликации — no-op
		return false, nil
	}

	logger.Info("tracker: new signal %s %s %s", sig.ID, sig.Pair, sig.Direction)
	t.notifier.Tracked(ctx, sig)
	return true, nil
}

func (t *Tracker) ListActive(ctx context.Context) ([]*models.Signal, error) {
	return t.store.ListActive(ctx)
}

func (t *Tracker) ListCompleted(ctx context.Context) ([]*models.Signal, error) {
	return t.store.ListCompleted(ctx)
}

func (t *Tracker) Summary(ctx context.Context, period models.Period) (*models.Report, error) {
	return t.reporter.Summarize(ctx, period, time.Now())
}

// CompleteSignal — ручное закрытие: все цели помечаются взятыми.
func (t *Tracker) CompleteSignal(ctx context.Context, id string) (*models.Signal, error) {
	sig, err := t.store.Mutate(ctx, id, func(sig *models.Signal) error {
		if sig.IsTerminal() {
			return fmt.Errorf("signal %s already %s", id, sig.Status)
		}
		now := time.Now()
		for i := range sig.Targets {
			if !sig.Targets[i].Hit {
				sig.Targets[i].Hit = true
				hitAt := now
				sig.Targets[i].HitAt = &hitAt
			}
		}
		sig.Status = models.StatusCompleted
		sig.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.notifier.ManualOverride(ctx, sig)
	return sig, nil
}

// StopSignal — ручная остановка.
func (t *Tracker) StopSignal(ctx context.Context, id string) (*models.Signal, error) {
	sig, err := t.store.Mutate(ctx, id, func(sig *models.Signal) error {
		if sig.IsTerminal() {
			return fmt.Errorf("signal %s already %s", id, sig.Status)
		}
		now := time.Now()
		sig.Status = models.StatusStopped
		sig.StoppedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.notifier.ManualOverride(ctx, sig)
	return sig, nil
}

// DeleteSignal — единственный путь физического удаления записи.
func (t *Tracker) DeleteSignal(ctx context.Context, id string) error {
	return t.store.Delete(ctx, id)
}

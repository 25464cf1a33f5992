package service

import (
	"context"
	"fmt"

	"signal_tracker/internal/models"
	"signal_tracker/pkg/logger"
)

// Backfiller догоняет пропущенное: прогоняет историю чата-источника
// через тот же путь Parse -> Create, что и живой приём. Повторный
// запуск безопасен — Create дедуплицирует.
type Backfiller struct {
	history HistoryFetcher
	tracker *Tracker
}

func NewBackfiller(history HistoryFetcher, tracker *Tracker) *Backfiller {
	return &Backfiller{history: history, tracker: tracker}
}

// Backfill возвращает число сообщений, распознанных и сохранённых как сигналы.
func (b *Backfiller) Backfill(ctx context.Context, chatID int64, limit int) (int, error) {
	msgs, err := b.history.RecentMessages(ctx, chatID, limit)
	if err != nil {
		return 0, fmt.Errorf("backfill: fetch history for %d: %w", chatID, err)
	}

	stored := 0
	for _, m := range msgs {
		created, err := b.tracker.HandleMessage(ctx, models.Incoming{
			ChatID:    chatID,
			MessageID: m.MessageID,
			Text:      m.Text,
		})
		if err != nil {
			// одно плохое сообщение не должно останавливать проход
			logger.Error("backfill: message %d in %d: %v", m.MessageID, chatID, err)
			continue
		}
		if created {
			stored++
		}
	}
	return stored, nil
}

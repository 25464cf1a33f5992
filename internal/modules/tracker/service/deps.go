package service

import (
	"context"
	"errors"
	"time"

	"signal_tracker/internal/models"
)

// ErrNotFound возвращает стор, когда сигнала с таким id нет.
var ErrNotFound = errors.New("signal not found")

// Store — персистентность сигналов. Create идемпотентен по ключу дедупликации,
// Mutate атомарен per-id; мутации разных id не мешают друг другу.
type Store interface {
	Create(ctx context.Context, sig *models.Signal) (created bool, err error)
	Get(ctx context.Context, id string) (*models.Signal, error)
	Mutate(ctx context.Context, id string, fn func(sig *models.Signal) error) (*models.Signal, error)
	ListActive(ctx context.Context) ([]*models.Signal, error)
	ListCompleted(ctx context.Context) ([]*models.Signal, error)
	ListByPair(ctx context.Context, pair string) ([]*models.Signal, error)
	ListFinishedSince(ctx context.Context, since time.Time) ([]*models.Signal, error)
	Delete(ctx context.Context, id string) error
}

// PriceOracle — внешний источник текущей цены.
type PriceOracle interface {
	FetchPrice(ctx context.Context, pair string) (float64, error)
}

// Deliverer — внешняя доставка текста в канал. Fire-and-forget:
// ошибка логируется, но переход состояния не откатывается.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// HistoryFetcher отдаёт последние сообщения чата-источника для бэкафилла.
type HistoryFetcher interface {
	RecentMessages(ctx context.Context, chatID int64, limit int) ([]models.HistoryMessage, error)
}

package pg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"signal_tracker/internal/models"
	"signal_tracker/internal/modules/tracker/service"
	"signal_tracker/internal/modules/tracker/service/pg/signals"
	"signal_tracker/pkg/db"
)

const dedupeWindow = 24 * time.Hour

// Signals implement service.Store поверх postgres.
// Атомарность Mutate обеспечивает SELECT ... FOR UPDATE: мутации одного id
// сериализуются на уровне БД, разные id друг другу не мешают.
type Signals struct {
	db  *db.PgTxManager
	sql *signals.Queries
}

// NewSignals instance
func NewSignals(manager *db.PgTxManager) *Signals {
	return &Signals{
		db:  manager,
		sql: signals.New(),
	}
}

// makeID — детерминированный id из пары и времени создания.
func makeID(pair string, createdAt time.Time) string {
	base := strings.ReplaceAll(pair, "/", "")
	return base + "-" + strconv.FormatInt(createdAt.UnixNano(), 10)
}

// Create идемпотентен: повторный сигнал с тем же ключом дедупликации
// в пределах 24 часов — no-op, created=false.
func (s *Signals) Create(ctx context.Context, sig *models.Signal) (created bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Create: %w", err)
		}
	}()

	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now()
	}
	if sig.ID == "" {
		sig.ID = makeID(sig.Pair, sig.CreatedAt)
	}

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		exists, err := s.sql.ExistsDuplicate(ctxTx, tx, sig, sig.CreatedAt.Add(-dedupeWindow))
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		// гонку двух одновременных Create с одним ключом закрывает
		// уникальный индекс: проигравший получит created=false, не ошибку
		created, err = s.sql.Insert(ctxTx, tx, sig)
		return err
	})
	if err != nil {
		created = false
	}
	return created, err
}

func (s *Signals) Get(ctx context.Context, id string) (sig *models.Signal, err error) {
	defer func() {
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			err = fmt.Errorf("pg.Get: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var inner error
		sig, inner = s.sql.Get(ctxTx, tx, id, false)
		return inner
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return sig, nil
}

// Mutate — атомарный read-modify-write одного сигнала.
func (s *Signals) Mutate(ctx context.Context, id string, fn func(sig *models.Signal) error) (out *models.Signal, err error) {
	defer func() {
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			err = fmt.Errorf("pg.Mutate: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		sig, err := s.sql.Get(ctxTx, tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(sig); err != nil {
			return err
		}
		if err := s.sql.Update(ctxTx, tx, sig); err != nil {
			return err
		}
		out = sig
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (s *Signals) ListActive(ctx context.Context) ([]*models.Signal, error) {
	return s.listByStatus(ctx, models.StatusActive)
}

func (s *Signals) ListCompleted(ctx context.Context) ([]*models.Signal, error) {
	return s.listByStatus(ctx, models.StatusCompleted, models.StatusStopped)
}

func (s *Signals) listByStatus(ctx context.Context, statuses ...models.Status) (out []*models.Signal, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.listByStatus: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var inner error
		out, inner = s.sql.ListByStatus(ctxTx, tx, statuses...)
		return inner
	})
	return out, err
}

func (s *Signals) ListByPair(ctx context.Context, pair string) (out []*models.Signal, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListByPair: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var inner error
		out, inner = s.sql.ListByPair(ctxTx, tx, pair)
		return inner
	})
	return out, err
}

func (s *Signals) ListFinishedSince(ctx context.Context, since time.Time) (out []*models.Signal, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListFinishedSince: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var inner error
		out, inner = s.sql.ListFinishedSince(ctxTx, tx, since)
		return inner
	})
	return out, err
}

// Delete удаляет запись; вместе с ней уходят и все производные индексы
// (это обычные SQL-индексы по status/pair).
func (s *Signals) Delete(ctx context.Context, id string) (err error) {
	defer func() {
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			err = fmt.Errorf("pg.Delete: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return s.sql.Delete(ctxTx, tx, id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrNotFound
	}
	return err
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"signal_tracker/internal/models"
	"signal_tracker/pkg/logger"
)

type eventKind int

const (
	eventTargetHit eventKind = iota
	eventStopHit
	eventCompleted
)

type event struct {
	kind        eventKind
	targetIndex int // только для eventTargetHit
}

// Evaluator раз в тик сверяет активные сигналы с текущей ценой.
type Evaluator struct {
	store    Store
	oracle   PriceOracle
	notifier *Notifier

	// пауза между запросами к оракулу по разным парам внутри тика
	callDelay time.Duration

	inFlight sync.Mutex // защита от параллельных тиков

	mu       sync.Mutex
	lastTick time.Time
}

func NewEvaluator(store Store, oracle PriceOracle, notifier *Notifier, callDelay time.Duration) *Evaluator {
	return &Evaluator{
		store:     store,
		oracle:    oracle,
		notifier:  notifier,
		callDelay: callDelay,
	}
}

// LastTick — время последнего завершённого тика (для /status).
func (e *Evaluator) LastTick() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTick
}

// Tick выполняет один проход. Если предыдущий тик ещё идёт — проход
// пропускается (не ставится в очередь), возвращается false.
func (e *Evaluator) Tick(ctx context.Context) bool {
	if !e.inFlight.TryLock() {
		logger.Info("evaluator: previous tick still running, skipping")
		return false
	}
	defer e.inFlight.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "evaluator.tick")
	defer span.Finish()

	if err := e.runTick(ctx); err != nil {
		// уже применённые мутации остаются, остальное доедем на следующем тике
		logger.Error("evaluator: tick aborted: %v", err)
	}
	e.mu.Lock()
	e.lastTick = time.Now()
	e.mu.Unlock()
	return true
}

func (e *Evaluator) runTick(ctx context.Context) error {
	active, err := e.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active: %w", err)
	}
	if len(active) == 0 {
		return nil
	}

	// Один запрос цены на пару, сколько бы сигналов по ней ни было.
	byPair := make(map[string][]*models.Signal)
	for _, sig := range active {
		byPair[sig.Pair] = append(byPair[sig.Pair], sig)
	}

	first := true
	for pair, sigs := range byPair {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !first && e.callDelay > 0 {
			time.Sleep(e.callDelay)
		}
		first = false

		price, err := e.oracle.FetchPrice(ctx, pair)
		if err != nil {
			// цена недоступна — пара целиком ждёт следующего тика
			logger.Error("evaluator: price for %s unavailable: %v", pair, err)
			continue
		}

		for _, sig := range sigs {
			if err := e.evaluateOne(ctx, sig.ID, price); err != nil {
				return fmt.Errorf("evaluate %s: %w", sig.ID, err)
			}
		}
	}
	return nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, id string, price float64) error {
	var events []event
	updated, err := e.store.Mutate(ctx, id, func(sig *models.Signal) error {
		events = applyPrice(sig, price, time.Now())
		return nil
	})
	if err != nil {
		return err
	}

	for _, ev := range events {
		switch ev.kind {
		case eventTargetHit:
			e.notifier.TargetHit(ctx, updated, ev.targetIndex)
		case eventStopHit:
			e.notifier.StopHit(ctx, updated)
		case eventCompleted:
			e.notifier.Completed(ctx, updated)
		}
	}
	return nil
}

// applyPrice — чистая функция перехода состояния для одного сигнала.
// Порядок фиксированный: сначала цели, потом стоп, потом завершение.
// Если цели этим же тиком добиты все — сигнал COMPLETED и стоп уже не
// проверяется; иначе сработавший стоп переводит в STOPPED даже если
// часть целей взята этим же тиком.
func applyPrice(sig *models.Signal, price float64, now time.Time) []event {
	if sig.IsTerminal() {
		return nil
	}

	var events []event

	// 1. Цели: за один тик цена могла проскочить несколько уровней.
	for i := range sig.Targets {
		t := &sig.Targets[i]
		if t.Hit {
			continue
		}
		if targetReached(sig.Direction, price, t.Price) {
			t.Hit = true
			hitAt := now
			t.HitAt = &hitAt
			events = append(events, event{kind: eventTargetHit, targetIndex: t.Index})
		}
	}

	// 2. Все цели взяты — завершаем, стоп в этом тике не смотрим.
	if sig.AllTargetsHit() {
		sig.Status = models.StatusCompleted
		completedAt := now
		sig.CompletedAt = &completedAt
		events = append(events, event{kind: eventCompleted})
		return events
	}

	// 3. Стоп.
	if sig.StopLoss != nil && stopReached(sig.Direction, price, *sig.StopLoss) {
		sig.Status = models.StatusStopped
		stoppedAt := now
		sig.StoppedAt = &stoppedAt
		events = append(events, event{kind: eventStopHit})
	}

	return events
}

func targetReached(dir models.Direction, price, target float64) bool {
	if dir == models.DirectionLong {
		return price >= target
	}
	return price <= target
}

func stopReached(dir models.Direction, price, stop float64) bool {
	if dir == models.DirectionLong {
		return price <= stop
	}
	return price >= stop
}

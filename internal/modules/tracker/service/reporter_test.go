package service

import (
	"context"
	"math"
	"testing"
	"time"

	"signal_tracker/internal/models"
)

func finishedSignal(pair string, dir models.Direction, status models.Status, at time.Time, profits []float64, hits int, maxLoss float64) *models.Signal {
	sig := &models.Signal{
		Pair:           pair,
		Direction:      dir,
		Entry:          100,
		Status:         status,
		MaxLossPercent: maxLoss,
		CreatedAt:      at.Add(-time.Hour),
	}
	for i, p := range profits {
		sig.Targets = append(sig.Targets, models.Target{
			Index:         i + 1,
			Price:         100 + p,
			ProfitPercent: p,
			Hit:           i < hits,
		})
	}
	switch status {
	case models.StatusCompleted:
		sig.CompletedAt = &at
	case models.StatusStopped:
		sig.StoppedAt = &at
	}
	return sig
}

func TestSummarizeOutcomesAndProfit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := time.Now()
	recent := now.Add(-2 * time.Hour)

	// полностью успешный: обе цели, вклад = среднее (2+4)/2 = 3
	full := finishedSignal("BTC/USDT", models.DirectionLong, models.StatusCompleted, recent, []float64{2, 4}, 2, 0)
	// частичный: 1 из 2 целей, стоп, maxLoss 5: 2/2 - 5*1/2 = -1.5
	partial := finishedSignal("ETH/USDT", models.DirectionShort, models.StatusStopped, recent, []float64{2, 4}, 1, 5)
	// провал: стоп без целей, вклад = -5
	failed := finishedSignal("BTC/USDT", models.DirectionLong, models.StatusStopped, recent, []float64{2, 4}, 0, 5)
	// вне окна — не должен попасть
	old := finishedSignal("XRP/USDT", models.DirectionLong, models.StatusCompleted, now.Add(-48*time.Hour), []float64{2}, 1, 0)

	store.data["a"] = full
	store.data["b"] = partial
	store.data["c"] = failed
	store.data["d"] = old

	rep, err := NewReporter(store).Summarize(ctx, models.PeriodDaily, now)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if rep.Total != 3 {
		t.Fatalf("total = %d, want 3", rep.Total)
	}
	if rep.Successful != 1 || rep.Partial != 1 || rep.Failed != 1 {
		t.Fatalf("outcomes = %d/%d/%d", rep.Successful, rep.Partial, rep.Failed)
	}
	// 3 + (-1.5) + (-5) = -3.5
	if math.Abs(rep.NetProfitPercent-(-3.5)) > 1e-9 {
		t.Fatalf("net profit = %v, want -3.5", rep.NetProfitPercent)
	}
	// (1 успешный + 1 частичный) / 3
	if math.Abs(rep.WinRatePercent-66.666666) > 0.001 {
		t.Fatalf("win rate = %v", rep.WinRatePercent)
	}
	if rep.Longs != 2 || rep.Shorts != 1 {
		t.Fatalf("long/short = %d/%d", rep.Longs, rep.Shorts)
	}
	if len(rep.TopPairs) == 0 || rep.TopPairs[0].Pair != "BTC/USDT" || rep.TopPairs[0].Count != 2 {
		t.Fatalf("top pairs = %+v", rep.TopPairs)
	}
}

func TestSummarizeEmptyWindow(t *testing.T) {
	rep, err := NewReporter(newMemStore()).Summarize(context.Background(), models.PeriodWeekly, time.Now())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if rep.Total != 0 || rep.WinRatePercent != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"signal_tracker/internal/models"
)

// Reporter считает агрегаты по закрытым сигналам за окно.
type Reporter struct {
	store Store
}

func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// Summarize собирает отчёт за окно [now-period, now].
// В выборку попадают сигналы, чей терминальный таймстамп лежит в окне.
func (r *Reporter) Summarize(ctx context.Context, period models.Period, now time.Time) (*models.Report, error) {
	since := now.Add(-period.Duration())
	finished, err := r.store.ListFinishedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("reporter: list finished: %w", err)
	}

	rep := &models.Report{
		Period: period,
		From:   since,
		To:     now,
	}

	pairCounts := make(map[string]int)
	for _, sig := range finished {
		at := sig.TerminalAt()
		if at == nil || at.Before(since) || at.After(now) {
			continue
		}

		rep.Total++
		pairCounts[sig.Pair]++
		if sig.Direction == models.DirectionLong {
			rep.Longs++
		} else {
			rep.Shorts++
		}

		rep.NetProfitPercent += contribution(sig)

		switch {
		case sig.Status == models.StatusCompleted && sig.AllTargetsHit():
			rep.Successful++
		case sig.HitCount() == 0:
			rep.Failed++
		default:
			rep.Partial++
		}
	}

	if rep.Total > 0 {
		rep.WinRatePercent = float64(rep.Successful+rep.Partial) / float64(rep.Total) * 100
	}
	rep.TopPairs = topPairs(pairCounts, 3)
	return rep, nil
}

// contribution — вклад сигнала в чистый профит.
// Полностью успешный: среднее profitPercent по целям.
// Частичный: каждая взятая цель с весом 1/targetCount; если стоп —
// невзятая доля даёт -maxLoss с тем же весом.
func contribution(sig *models.Signal) float64 {
	n := len(sig.Targets)
	if n == 0 {
		return 0
	}

	if sig.AllTargetsHit() {
		sum := 0.0
		for _, t := range sig.Targets {
			sum += t.ProfitPercent
		}
		return sum / float64(n)
	}

	total := 0.0
	missed := 0
	for _, t := range sig.Targets {
		if t.Hit {
			total += t.ProfitPercent / float64(n)
		} else {
			missed++
		}
	}
	if sig.Status == models.StatusStopped {
		total -= sig.MaxLossPercent * float64(missed) / float64(n)
	}
	return total
}

func topPairs(counts map[string]int, limit int) []models.PairCount {
	out := make([]models.PairCount, 0, len(counts))
	for pair, n := range counts {
		out = append(out, models.PairCount{Pair: pair, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Pair < out[j].Pair
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

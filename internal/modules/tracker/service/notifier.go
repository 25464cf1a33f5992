package service

import (
	"context"
	"fmt"
	"strings"

	"signal_tracker/internal/helper"
	"signal_tracker/internal/models"
	"signal_tracker/pkg/logger"
)

// Notifier строит тексты событий и отдаёт их во внешнюю доставку.
// Доставка fire-and-forget: переход состояния к этому моменту уже
// зафиксирован и из-за ошибки отправки не откатывается.
type Notifier struct {
	deliverer Deliverer
}

func NewNotifier(deliverer Deliverer) *Notifier {
	return &Notifier{deliverer: deliverer}
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) {
	if n.deliverer == nil || chatID == 0 {
		return
	}
	if err := n.deliverer.Deliver(ctx, chatID, text); err != nil {
		logger.Error("notify: deliver to %d failed: %v", chatID, err)
	}
}

func (n *Notifier) Tracked(ctx context.Context, sig *models.Signal) {
	n.send(ctx, sig.DestChatID, BuildTracked(sig))
}

func (n *Notifier) TargetHit(ctx context.Context, sig *models.Signal, targetIndex int) {
	n.send(ctx, sig.DestChatID, BuildTargetHit(sig, targetIndex))
}

func (n *Notifier) StopHit(ctx context.Context, sig *models.Signal) {
	n.send(ctx, sig.DestChatID, BuildStopHit(sig))
}

func (n *Notifier) Completed(ctx context.Context, sig *models.Signal) {
	n.send(ctx, sig.DestChatID, BuildCompleted(sig))
}

func (n *Notifier) ManualOverride(ctx context.Context, sig *models.Signal) {
	n.send(ctx, sig.DestChatID, BuildManualOverride(sig))
}

func (n *Notifier) Summary(ctx context.Context, chatID int64, rep *models.Report) {
	n.send(ctx, chatID, BuildSummary(rep))
}

// ===== билдеры: чистые функции от снапшота сигнала =====

func dirEmoji(dir models.Direction) string {
	if dir == models.DirectionLong {
		return "📈"
	}
	return "📉"
}

func BuildTracked(sig *models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Отслеживаю сигнал: %s %s\n", dirEmoji(sig.Direction), sig.Pair, sig.Direction)
	fmt.Fprintf(&b, "Вход: %s\n", helper.FormatPrice(sig.Entry))
	for _, t := range sig.Targets {
		fmt.Fprintf(&b, "🎯 Цель %d: %s (%s)\n", t.Index, helper.FormatPrice(t.Price), helper.FormatPercent(t.ProfitPercent))
	}
	if sig.StopLoss != nil {
		fmt.Fprintf(&b, "⛔️ Стоп: %s (%s)", helper.FormatPrice(*sig.StopLoss), helper.FormatPercent(-sig.MaxLossPercent))
	} else {
		b.WriteString("⚠️ Без стопа")
	}
	return b.String()
}

func BuildTargetHit(sig *models.Signal, targetIndex int) string {
	for _, t := range sig.Targets {
		if t.Index == targetIndex {
			return fmt.Sprintf("✅ %s %s: цель %d/%d достигнута — %s (%s)",
				sig.Pair, sig.Direction, t.Index, len(sig.Targets),
				helper.FormatPrice(t.Price), helper.FormatPercent(t.ProfitPercent))
		}
	}
	return fmt.Sprintf("✅ %s %s: цель %d достигнута", sig.Pair, sig.Direction, targetIndex)
}

func BuildStopHit(sig *models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛑 %s %s: сработал стоп-лосс", sig.Pair, sig.Direction)
	if sig.StopLoss != nil {
		fmt.Fprintf(&b, " %s (%s)", helper.FormatPrice(*sig.StopLoss), helper.FormatPercent(-sig.MaxLossPercent))
	}
	if hits := sig.HitCount(); hits > 0 {
		fmt.Fprintf(&b, "\nДо стопа взято целей: %d/%d", hits, len(sig.Targets))
	}
	return b.String()
}

func BuildCompleted(sig *models.Signal) string {
	avg := 0.0
	for _, t := range sig.Targets {
		avg += t.ProfitPercent
	}
	avg /= float64(len(sig.Targets))
	return fmt.Sprintf("🏆 %s %s: все цели достигнуты (%d/%d), средний профит %s",
		sig.Pair, sig.Direction, len(sig.Targets), len(sig.Targets), helper.FormatPercent(avg))
}

func BuildManualOverride(sig *models.Signal) string {
	switch sig.Status {
	case models.StatusCompleted:
		return fmt.Sprintf("✍️ %s %s: сигнал закрыт вручную как выполненный", sig.Pair, sig.Direction)
	case models.StatusStopped:
		return fmt.Sprintf("✍️ %s %s: сигнал остановлен вручную", sig.Pair, sig.Direction)
	default:
		return fmt.Sprintf("✍️ %s %s: статус изменён вручную (%s)", sig.Pair, sig.Direction, sig.Status)
	}
}

func BuildSummary(rep *models.Report) string {
	title := map[models.Period]string{
		models.PeriodDaily:   "Отчёт за день",
		models.PeriodWeekly:  "Отчёт за неделю",
		models.PeriodMonthly: "Отчёт за месяц",
	}[rep.Period]

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n", title)
	if rep.Total == 0 {
		b.WriteString("Закрытых сигналов нет")
		return b.String()
	}
	fmt.Fprintf(&b, "Всего закрыто: %d\n", rep.Total)
	fmt.Fprintf(&b, "✅ Успешных: %d\n", rep.Successful)
	fmt.Fprintf(&b, "➗ Частичных: %d\n", rep.Partial)
	fmt.Fprintf(&b, "🛑 Убыточных: %d\n", rep.Failed)
	fmt.Fprintf(&b, "Винрейт: %.1f%%\n", rep.WinRatePercent)
	fmt.Fprintf(&b, "Чистый профит: %s\n", helper.FormatPercent(rep.NetProfitPercent))
	fmt.Fprintf(&b, "Лонгов/шортов: %d/%d", rep.Longs, rep.Shorts)
	if len(rep.TopPairs) > 0 {
		b.WriteString("\nТоп пар:")
		for _, pc := range rep.TopPairs {
			fmt.Fprintf(&b, " %s (%d)", pc.Pair, pc.Count)
		}
	}
	return b.String()
}

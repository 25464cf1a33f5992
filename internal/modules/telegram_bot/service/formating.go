package service

import (
	"fmt"
	"strings"
	"time"

	"signal_tracker/internal/helper"
	"signal_tracker/internal/models"
	trackersvc "signal_tracker/internal/modules/tracker/service"
)

func formatSignalList(title string, sigs []*models.Signal) string {
	if len(sigs) == 0 {
		return title + ": пусто"
	}

	var b strings.Builder
	b.WriteString(title + ":\n")
	for _, s := range sigs {
		fmt.Fprintf(&b, "- `%s` %s %s вход %s, цели %d/%d",
			s.ID, s.Pair, s.Direction, helper.FormatPrice(s.Entry), s.HitCount(), len(s.Targets))
		if s.Status != models.StatusActive {
			fmt.Fprintf(&b, " [%s]", s.Status)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatStatus(active, completed int, lastTick time.Time) string {
	tick := "ещё не было"
	if !lastTick.IsZero() {
		tick = lastTick.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf(
		"📡 Статус трекера\nАктивных: %d\nЗакрытых: %d\nПоследний тик: %s",
		active, completed, tick,
	)
}

func trackerSummary(rep *models.Report) string {
	return trackersvc.BuildSummary(rep)
}

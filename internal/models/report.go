package models

import "time"

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Duration — длина окна отчёта, отсчитывается назад от now.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodWeekly:
		return 7 * 24 * time.Hour
	case PeriodMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

type PairCount struct {
	Pair  string
	Count int
}

// Report — агрегат по закрытым сигналам за окно [From, To].
type Report struct {
	Period Period
	From   time.Time
	To     time.Time

	Total      int
	Successful int // все цели взяты, стоп не сработал
	Partial    int // часть целей взята
	Failed     int // стоп без единой цели

	NetProfitPercent float64
	WinRatePercent   float64

	TopPairs []PairCount // максимум 3
	Longs    int
	Shorts   int
}

package service

import (
	"regexp"
	"sort"

	"signal_tracker/internal/helper"
	"signal_tracker/internal/models"
	"signal_tracker/pkg/logger"
)

// Parser прогоняет текст через диалекты по очереди, первый успешный побеждает.
// nil — это не ошибка: большинство сообщений в канале сигналами не являются.
type Parser struct {
	dialects []dialect
}

type dialect interface {
	name() string
	tryParse(text string) *models.Signal
}

func NewParser() *Parser {
	return &Parser{
		dialects: []dialect{
			strictDialect{}, // размеченный формат с Entry:/Target:/Stop Loss:
			looseDialect{},  // свободный формат "long btc 60000 tp 61000"
		},
	}
}

func (p *Parser) Parse(text string) *models.Signal {
	if text == "" {
		return nil
	}
	// Минимальный признак намерения: направление + хоть какой-то намёк на цели.
	if detectDirection(text) == "" || !reTargetCue.MatchString(text) {
		return nil
	}
	for _, d := range p.dialects {
		if sig := d.tryParse(text); sig != nil {
			logger.Info("парсер: диалект %s распознал %s %s", d.name(), sig.Direction, sig.Pair)
			return sig
		}
	}
	return nil
}

// ===== общие куски =====

var (
	reLongCue  = regexp.MustCompile(`(?i)\b(long|buy)\b|📈|🟢`)
	reShortCue = regexp.MustCompile(`(?i)\b(short|sell)\b|📉|🔴`)

	// target/tp/take profit/🎯 или цифра-в-кружке (1️⃣ и т.п.)
	reTargetCue = regexp.MustCompile(`(?i)\b(targets?|tp\d*|take[\s-]?profit)\b|🎯|[1-9]\x{FE0F}?\x{20E3}`)

	// BTC/USDT, btc-usdt; база обязана начинаться с буквы, чтобы не матчить "60000-61000"
	rePair = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9]{1,9})\s*[/-]\s*([A-Za-z][A-Za-z0-9]{1,5})\b`)
	// запасной вариант: тикер сразу после ключевого слова направления
	rePairAfterDir = regexp.MustCompile(`(?i)\b(?:long|short|buy|sell)\s+#?([A-Za-z]{2,10})\b`)

	number = `(\d+(?:[ .,]\d+)*)`

	reEntryStrict = regexp.MustCompile(`(?i)\bentry(?:\s*(?:price|zone))?\s*[:=]\s*\$?` + number)
	reEntryLoose  = regexp.MustCompile(`(?i)\b(?:long|short|buy|sell)\b[^\d\n]{0,16}` + number)

	reTargetStrict = regexp.MustCompile(`(?i)(?:[1-9]\x{FE0F}?\x{20E3}\s*)?(?:🎯\s*)?(?:target|tp|take[\s-]?profit)\s*\d*\s*[:=]\s*\$?` + number)
	// индекс цели ("tp1") только вплотную к метке; между меткой и ценой
	// обязателен разделитель, иначе индекс откусывает цифры цены
	reTargetLoose = regexp.MustCompile(`(?i)\b(?:target|tp)\d*(?:\s*[:=]|\s)\s*\$?` + number)

	reStop = regexp.MustCompile(`(?i)\b(?:stop[\s-]?loss|sl|stop)(?:\s*[:=]|\s)\s*\$?` + number)
)

func detectDirection(text string) models.Direction {
	long := reLongCue.MatchString(text)
	short := reShortCue.MatchString(text)
	switch {
	case long && !short:
		return models.DirectionLong
	case short && !long:
		return models.DirectionShort
	case long && short:
		// обе реплики в одном тексте — верим первой
		li := reLongCue.FindStringIndex(text)
		si := reShortCue.FindStringIndex(text)
		if li[0] <= si[0] {
			return models.DirectionLong
		}
		return models.DirectionShort
	default:
		return ""
	}
}

func extractPair(text string) string {
	if m := rePair.FindStringSubmatch(text); m != nil {
		return helper.NormalizePair(m[1] + "/" + m[2])
	}
	if m := rePairAfterDir.FindStringSubmatch(text); m != nil {
		// без котируемой валюты — подставляем дефолтную
		return helper.NormalizePair(m[1])
	}
	return ""
}

func extractNumbers(re *regexp.Regexp, text string) []float64 {
	var out []float64
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v, ok := helper.ParseNumber(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// buildSignal собирает Signal из сырых кусков; nil если чего-то не хватает.
func buildSignal(text string, dir models.Direction, pair string, entry float64, targets []float64, stop *float64) *models.Signal {
	if dir == "" || pair == "" || entry <= 0 || len(targets) == 0 {
		return nil
	}

	// Сортировка в "выгодную" сторону: LONG по возрастанию, SHORT по убыванию.
	sort.Float64s(targets)
	if dir == models.DirectionShort {
		for i, j := 0, len(targets)-1; i < j; i, j = i+1, j-1 {
			targets[i], targets[j] = targets[j], targets[i]
		}
	}

	sig := &models.Signal{
		Pair:      pair,
		Direction: dir,
		Entry:     entry,
		Status:    models.StatusActive,
		RawText:   text,
	}

	seen := make(map[float64]bool, len(targets))
	for _, px := range targets {
		if seen[px] || px == entry {
			continue
		}
		seen[px] = true
		sig.Targets = append(sig.Targets, models.Target{
			Index:         len(sig.Targets) + 1,
			Price:         px,
			ProfitPercent: profitPercent(dir, entry, px),
		})
	}
	if len(sig.Targets) == 0 {
		return nil
	}

	if stop != nil && *stop > 0 {
		sl := *stop
		sig.StopLoss = &sl
		// maxLoss положительный: сколько теряем, если стоп сработает
		sig.MaxLossPercent = -profitPercent(dir, entry, sl)
	}
	return sig
}

func profitPercent(dir models.Direction, entry, price float64) float64 {
	if dir == models.DirectionLong {
		return (price - entry) / entry * 100
	}
	return (entry - price) / entry * 100
}

// ===== строгий диалект =====

type strictDialect struct{}

func (strictDialect) name() string { return "strict" }

func (strictDialect) tryParse(text string) *models.Signal {
	m := reEntryStrict.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	entry, ok := helper.ParseNumber(m[1])
	if !ok {
		return nil
	}

	targets := extractNumbers(reTargetStrict, text)
	if len(targets) == 0 {
		return nil
	}

	var stop *float64
	if sm := reStop.FindStringSubmatch(text); sm != nil {
		if v, ok := helper.ParseNumber(sm[1]); ok {
			stop = &v
		}
	}

	return buildSignal(text, detectDirection(text), extractPair(text), entry, targets, stop)
}

// ===== свободный диалект =====

type looseDialect struct{}

func (looseDialect) name() string { return "loose" }

func (looseDialect) tryParse(text string) *models.Signal {
	var entry float64
	if m := reEntryStrict.FindStringSubmatch(text); m != nil {
		entry, _ = helper.ParseNumber(m[1])
	}
	if entry == 0 {
		if m := reEntryLoose.FindStringSubmatch(text); m != nil {
			entry, _ = helper.ParseNumber(m[1])
		}
	}
	if entry == 0 {
		return nil
	}

	targets := extractNumbers(reTargetLoose, text)
	if len(targets) == 0 {
		return nil
	}

	var stop *float64
	if sm := reStop.FindStringSubmatch(text); sm != nil {
		if v, ok := helper.ParseNumber(sm[1]); ok {
			stop = &v
		}
	}

	return buildSignal(text, detectDirection(text), extractPair(text), entry, targets, stop)
}

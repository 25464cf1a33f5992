package helper

import (
	"strconv"
	"strings"
)

const DefaultQuote = "USDT"

// NormalizePair приводит пару к виду BASE/QUOTE.
// "btc-usdt" -> "BTC/USDT", "BTC" -> "BTC/USDT".
func NormalizePair(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "#")
	s = strings.ReplaceAll(s, "-", "/")
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "/") {
		return s + "/" + DefaultQuote
	}
	parts := strings.SplitN(s, "/", 2)
	if parts[1] == "" {
		return parts[0] + "/" + DefaultQuote
	}
	return s
}

// PairToInstID — "BTC/USDT" -> "BTC-USDT" (формат instId у OKX).
func PairToInstID(pair string) string {
	return strings.ReplaceAll(pair, "/", "-")
}

// FormatPrice — без экспоненты и без хвостовых нулей.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func FormatPercent(v float64) string {
	sign := ""
	if v > 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// ParseNumber понимает "60 000", "60,000.5" и "60000,5".
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ".") {
		// запятые здесь — разделители тысяч
		s = strings.ReplaceAll(s, ",", "")
	} else if strings.Count(s, ",") == 1 {
		// одиночная запятая без точки — десятичная
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

package helper

import "testing"

func TestNormalizePair(t *testing.T) {
	cases := map[string]string{
		"btc-usdt": "BTC/USDT",
		"BTC/USDT": "BTC/USDT",
		"#eth":     "ETH/USDT",
		"sol":      "SOL/USDT",
		"BTC/":     "BTC/USDT",
	}
	for in, want := range cases {
		if got := NormalizePair(in); got != want {
			t.Fatalf("NormalizePair(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"60000", 60000, true},
		{"60 000", 60000, true},
		{"60,000.5", 60000.5, true},
		{"60000,5", 60000.5, true},
		{"$1.23", 1.23, true},
		{"", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(1.6667); got != "+1.67%" {
		t.Fatalf("FormatPercent positive: %q", got)
	}
	if got := FormatPercent(-3.5); got != "-3.50%" {
		t.Fatalf("FormatPercent negative: %q", got)
	}
}

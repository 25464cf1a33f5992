package service

import (
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"signal_tracker/internal/models"
	"signal_tracker/pkg/logger"
)

const strictSignal = "📈 SIGNAL: BTC/USDT LONG\nEntry: 60000\n1️⃣ Target 1: 61000\n2️⃣ Target 2: 62000\nStop Loss: 59000"

func approx(got, want float64) bool {
	return math.Abs(got-want) < 0.01
}

func TestParseStrictDialect(t *testing.T) {
	sig := NewParser().Parse(strictSignal)
	if sig == nil {
		t.Fatal("expected signal, got nil")
	}
	if sig.Pair != "BTC/USDT" {
		t.Fatalf("pair = %q", sig.Pair)
	}
	if sig.Direction != models.DirectionLong {
		t.Fatalf("direction = %q", sig.Direction)
	}
	if sig.Entry != 60000 {
		t.Fatalf("entry = %v", sig.Entry)
	}
	if len(sig.Targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(sig.Targets))
	}
	if sig.Targets[0].Price != 61000 || sig.Targets[1].Price != 62000 {
		t.Fatalf("target prices = %v, %v", sig.Targets[0].Price, sig.Targets[1].Price)
	}
	if !approx(sig.Targets[0].ProfitPercent, 1.6667) {
		t.Fatalf("target 1 profit = %v", sig.Targets[0].ProfitPercent)
	}
	if !approx(sig.Targets[1].ProfitPercent, 3.3333) {
		t.Fatalf("target 2 profit = %v", sig.Targets[1].ProfitPercent)
	}
	if sig.StopLoss == nil || *sig.StopLoss != 59000 {
		t.Fatalf("stop loss = %v", sig.StopLoss)
	}
	if !approx(sig.MaxLossPercent, 1.6667) {
		t.Fatalf("max loss = %v", sig.MaxLossPercent)
	}
}

func TestParseLooseDialect(t *testing.T) {
	sig := NewParser().Parse("short eth 3200 tp1 3100 tp2 3000 sl 3300")
	if sig == nil {
		t.Fatal("expected signal, got nil")
	}
	if sig.Pair != "ETH/USDT" {
		t.Fatalf("pair = %q (default quote expected)", sig.Pair)
	}
	if sig.Direction != models.DirectionShort {
		t.Fatalf("direction = %q", sig.Direction)
	}
	if sig.Entry != 3200 {
		t.Fatalf("entry = %v", sig.Entry)
	}
	// SHORT: цели по убыванию
	if len(sig.Targets) != 2 || sig.Targets[0].Price != 3100 || sig.Targets[1].Price != 3000 {
		t.Fatalf("targets = %+v", sig.Targets)
	}
	if sig.Targets[0].ProfitPercent <= 0 || sig.Targets[1].ProfitPercent <= sig.Targets[0].ProfitPercent {
		t.Fatalf("short profit order broken: %+v", sig.Targets)
	}
	if sig.StopLoss == nil || *sig.StopLoss != 3300 {
		t.Fatalf("stop loss = %v", sig.StopLoss)
	}
}

func TestParseRejectsNonSignals(t *testing.T) {
	cases := []string{
		"",
		"gm everyone, market looks crazy today",
		"BTC/USDT broke 60000, be careful",     // нет направления+целей
		"I am long term bullish on this sector", // long без целей
		"Target audience: traders",              // цель без направления
	}
	p := NewParser()
	for _, text := range cases {
		if sig := p.Parse(text); sig != nil {
			t.Fatalf("expected nil for %q, got %+v", text, sig)
		}
	}
}

func TestParseTargetOrderAndSigns(t *testing.T) {
	// цели перечислены вразнобой — парсер обязан отсортировать
	sig := NewParser().Parse("BUY SOL/USDT\nEntry: 100\nTarget: 120\nTarget: 110\nTarget: 130")
	if sig == nil {
		t.Fatal("expected signal, got nil")
	}
	prev := 0.0
	for _, target := range sig.Targets {
		if target.Price <= prev {
			t.Fatalf("long targets not ascending: %+v", sig.Targets)
		}
		if (target.Price > sig.Entry) != (target.ProfitPercent > 0) {
			t.Fatalf("profit sign inconsistent for %+v", target)
		}
		prev = target.Price
	}
}

func TestParseNoEntryReturnsNil(t *testing.T) {
	if sig := NewParser().Parse("LONG BTC/USDT\nTarget: 61000"); sig != nil {
		t.Fatalf("expected nil without entry, got %+v", sig)
	}
}

func TestParseLooseLabelsWithoutColon(t *testing.T) {
	// метки без двоеточия: цифра индекса не должна откусывать цену
	sig := NewParser().Parse("buy btc/usdt entry: 100 target 110 stop 90")
	if sig == nil {
		t.Fatal("expected signal, got nil")
	}
	if sig.Entry != 100 {
		t.Fatalf("entry = %v", sig.Entry)
	}
	if len(sig.Targets) != 1 || sig.Targets[0].Price != 110 {
		t.Fatalf("targets = %+v", sig.Targets)
	}
	if sig.StopLoss == nil || *sig.StopLoss != 90 {
		t.Fatalf("stop loss = %v", sig.StopLoss)
	}
	if !approx(sig.MaxLossPercent, 10) {
		t.Fatalf("max loss = %v", sig.MaxLossPercent)
	}
}

func TestParseLogsDialectName(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := logger.InfoLogger
	logger.InfoLogger = zap.New(core)
	defer func() { logger.InfoLogger = prev }()

	if sig := NewParser().Parse(strictSignal); sig == nil {
		t.Fatal("expected signal, got nil")
	}
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, "strict") {
			return
		}
	}
	t.Fatalf("no log entry names the dialect: %+v", logs.All())
}

package models

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusStopped   Status = "STOPPED"
)

// Target — целевой уровень цены. Index начинается с 1.
type Target struct {
	Index         int        `json:"index"`
	Price         float64    `json:"price"`
	ProfitPercent float64    `json:"profit_percent"`
	Hit           bool       `json:"hit"`
	HitAt         *time.Time `json:"hit_at,omitempty"`
}

// Signal — распарсенный сигнал из канала-источника.
// StopLoss опционален; CompletedAt/StoppedAt взаимоисключающие и
// выставляются только вместе с соответствующим терминальным статусом.
type Signal struct {
	ID        string
	Pair      string
	Direction Direction
	Entry     float64
	Targets   []Target
	StopLoss  *float64
	// MaxLossPercent считается от стопа; 0 если стопа нет.
	MaxLossPercent float64
	Status         Status
	CreatedAt      time.Time
	CompletedAt    *time.Time
	StoppedAt      *time.Time

	SourceChatID    int64
	SourceMessageID int
	DestChatID      int64
	RawText         string
}

// DedupeKey — идентичность алерта в окне дедупликации.
func (s *Signal) DedupeKey() string {
	return fmt.Sprintf("%s:%s:%g:%d", s.Pair, s.Direction, s.Entry, s.SourceMessageID)
}

func (s *Signal) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusStopped
}

func (s *Signal) HitCount() int {
	n := 0
	for i := range s.Targets {
		if s.Targets[i].Hit {
			n++
		}
	}
	return n
}

func (s *Signal) AllTargetsHit() bool {
	return len(s.Targets) > 0 && s.HitCount() == len(s.Targets)
}

// TerminalAt — время закрытия сигнала (nil для активных).
func (s *Signal) TerminalAt() *time.Time {
	switch s.Status {
	case StatusCompleted:
		return s.CompletedAt
	case StatusStopped:
		return s.StoppedAt
	default:
		return nil
	}
}

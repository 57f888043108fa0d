// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package indicator drives the status LED. Patterns are played in the
// background; SetPattern never blocks and a new pattern replaces the one
// currently playing.
package indicator

import (
	"log/slog"
	"time"
)

// Pattern blinks Repeat times, On then Off.
type Pattern struct {
	On     time.Duration
	Off    time.Duration
	Repeat int
}

var (
	// Identify is played for the BLINK command.
	Identify = Pattern{On: 1000 * time.Millisecond, Off: 2000 * time.Millisecond, Repeat: 3}
	// StepFlash marks a counted step.
	StepFlash = Pattern{On: 250 * time.Millisecond, Off: 250 * time.Millisecond, Repeat: 1}
)

// Indicator is the LED collaborator.
type Indicator interface {
	SetPattern(p Pattern)
}

// Log is an Indicator for hosts without an LED.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log.With("component", "indicator")}
}

func (l *Log) SetPattern(p Pattern) {
	l.log.Info("blink", "on", p.On, "off", p.Off, "repeat", p.Repeat)
}

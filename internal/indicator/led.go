// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type outPin interface {
	Out(l gpio.Level) error
}

// LED plays patterns on a GPIO pin.
type LED struct {
	pin outPin
	log *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLED opens the named GPIO (e.g. "GPIO17") and turns it off.
func NewLED(pinName string, log *slog.Logger) (*LED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("LED: periph host init: %w", err)
	}
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, fmt.Errorf("LED: pin %q not found", pinName)
	}
	return newLED(p, log)
}

func newLED(p outPin, log *slog.Logger) (*LED, error) {
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("LED: set low: %w", err)
	}
	return &LED{pin: p, log: log.With("component", "led")}, nil
}

func (l *LED) SetPattern(p Pattern) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go l.play(ctx, p, done)
}

// Close stops any running pattern and leaves the LED off.
func (l *LED) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	return l.pin.Out(gpio.Low)
}

func (l *LED) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel, l.done = nil, nil
}

func (l *LED) play(ctx context.Context, p Pattern, done chan struct{}) {
	defer close(done)
	defer l.set(gpio.Low)

	for i := 0; i < p.Repeat; i++ {
		l.set(gpio.High)
		if !sleep(ctx, p.On) {
			return
		}
		l.set(gpio.Low)
		if !sleep(ctx, p.Off) {
			return
		}
	}
}

func (l *LED) set(level gpio.Level) {
	if err := l.pin.Out(level); err != nil {
		l.log.Warn("pin write failed", "level", level, "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

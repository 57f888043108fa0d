// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gait turns a reduced inertial signal into discrete step events.
//
// The detector is a two-phase hysteresis comparator: while awaiting the
// upswing only a value above the up threshold counts, while awaiting the
// downswing only a value below the down threshold counts. A sustained
// excursion past one threshold is therefore counted once.
package gait

import "fmt"

// Phase is the half-cycle the detector is waiting to observe.
type Phase uint8

const (
	AwaitingUp Phase = iota
	AwaitingDown
)

func (p Phase) String() string {
	switch p {
	case AwaitingUp:
		return "awaiting_up"
	case AwaitingDown:
		return "awaiting_down"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// State is the running detection state of one session.
type State struct {
	Steps uint64 `json:"steps"`
	Phase Phase  `json:"phase"`
}

// Step is emitted every time the detector counts a step.
type Step struct {
	Count uint64
	// Trigger is the phase the detector was in when the step was counted.
	Trigger Phase
	Label   string
	Value   float64
}

// Payload renders the step report sent to the host.
func (s Step) Payload() ([]byte, error) {
	return EncodeReport(s.Label, s.Count)
}

// Detector owns the state of one detection session. It is not safe for
// concurrent use; callers serialise access.
type Detector struct {
	variant Variant
	state   State
}

// NewDetector builds a detector for v in the initial state.
func NewDetector(v Variant) (*Detector, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	return &Detector{variant: v}, nil
}

func (d *Detector) Variant() Variant { return d.variant }

func (d *Detector) State() State { return d.state }

// Reset starts a new session: zero steps, awaiting the upswing.
func (d *Detector) Reset() {
	d.state = State{Steps: 0, Phase: AwaitingUp}
}

// Restore puts back a state captured with State, e.g. when a session
// failed to start after the reset.
func (d *Detector) Restore(st State) {
	d.state = st
}

// Observe feeds one reduced value. It reports a step and flips the phase
// when the value crosses the threshold of the current phase; otherwise the
// state is left untouched.
func (d *Detector) Observe(v float64) (Step, bool) {
	var label string
	switch d.state.Phase {
	case AwaitingUp:
		if !(v > d.variant.Thresholds.Up) {
			return Step{}, false
		}
		label = d.variant.UpLabel
	case AwaitingDown:
		if !(v < d.variant.Thresholds.Down) {
			return Step{}, false
		}
		label = d.variant.DownLabel
	default:
		return Step{}, false
	}

	trigger := d.state.Phase
	d.state.Steps++
	d.state.Phase = 1 - d.state.Phase
	return Step{
		Count:   d.state.Steps,
		Trigger: trigger,
		Label:   label,
		Value:   v,
	}, true
}

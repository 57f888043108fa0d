// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/relabs-tech/stepcounter/internal/gait"
	"github.com/relabs-tech/stepcounter/internal/imu"
	"github.com/relabs-tech/stepcounter/internal/indicator"
	"github.com/relabs-tech/stepcounter/internal/protocol"
	"github.com/relabs-tech/stepcounter/internal/subscription"
)

// DefaultReference is the reference tag stale subscriptions are cleared
// from before a session starts.
const DefaultReference uint8 = 99

type sender interface {
	Send(frame []byte) error
}

// Service is the command dispatcher and batch handler of the step
// counter. Commands and batches arrive on different goroutines; one mutex
// serialises them so the detector and the subscription table only ever
// see one caller.
type Service struct {
	mu       sync.Mutex
	detector *gait.Detector
	variant  gait.Variant
	subs     *subscription.Manager
	ind      indicator.Indicator
	out      sender
	log      *slog.Logger
	session  string
}

func NewService(det *gait.Detector, subs *subscription.Manager, ind indicator.Indicator, out sender, log *slog.Logger) *Service {
	return &Service{
		detector: det,
		variant:  det.Variant(),
		subs:     subs,
		ind:      ind,
		out:      out,
		log:      log.With("component", "dispatcher", "variant", det.Variant().Name),
	}
}

// HandleCommand routes one inbound frame. Malformed and unknown commands
// are dropped without a response.
func (s *Service) HandleCommand(frame []byte) {
	cmd, err := protocol.DecodeCommand(frame)
	if err != nil {
		s.log.Debug("dropping frame", "err", err)
		return
	}
	if !cmd.Kind.Known() {
		s.log.Debug("ignoring unknown command", "command", cmd.Kind.String(), "args", len(cmd.Args))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Kind {
	case protocol.Hello:
		s.send(protocol.HelloPacket())

	case protocol.BeginSub:
		if err := s.beginSession(); err != nil {
			s.log.Warn("BEGIN_SUB failed", "err", err)
			s.send(protocol.ErrorPacket(cmd.Kind, err))
		}

	case protocol.EndSub:
		if err := s.subs.Unsubscribe(s.variant.SessionTag); err != nil {
			s.log.Warn("END_SUB failed", "err", err)
			s.send(protocol.ErrorPacket(cmd.Kind, err))
			return
		}
		if s.session != "" {
			s.log.Info("session ended", "session", s.session, "steps", s.detector.State().Steps)
			s.session = ""
		}

	case protocol.Blink:
		s.ind.SetPattern(indicator.Identify)
	}
}

// beginSession resets the detector and subscribes; the manager clears the
// default and session tags first. The caller holds mu, so no batch can
// observe the previous session's state after the reset.
func (s *Service) beginSession() error {
	previous := s.detector.State()
	s.detector.Reset()

	if err := s.subs.Subscribe(s.variant.Path, s.variant.SessionTag); err != nil {
		s.detector.Restore(previous)
		return err
	}
	s.session = uuid.NewString()
	s.log.Info("session started", "session", s.session, "path", s.variant.Path, "tag", s.variant.SessionTag)
	return nil
}

// HandleBatch reduces one delivered batch and feeds the detector. Batches
// from a stopped subscription or a foreign tag are dropped.
func (s *Service) HandleBatch(ctx context.Context, tag uint8, batch imu.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || tag != s.variant.SessionTag || !s.subs.Active(tag) {
		s.log.Debug("dropping stale batch", "tag", tag)
		return
	}
	if len(batch) == 0 {
		s.log.Debug("skipping empty batch", "tag", tag)
		return
	}

	value, err := imu.Mean(batch, s.variant.Axis)
	if err != nil {
		s.log.Warn("reduce failed", "err", err)
		return
	}

	step, ok := s.detector.Observe(value)
	if !ok {
		return
	}

	payload, err := step.Payload()
	if err != nil {
		s.log.Warn("step report not encoded", "count", step.Count, "err", err)
		return
	}
	s.send(protocol.Packet{Kind: protocol.CommandResult, Tag: protocol.TagStepReport, Payload: payload})
	if s.variant.BlinkOnStep {
		s.ind.SetPattern(indicator.StepFlash)
	}
	s.log.Info("step", "count", step.Count, "phase", step.Trigger.String(), "value", value)
}

// Status is the JSON view served on the status endpoint.
type Status struct {
	Variant    string `json:"variant"`
	Session    string `json:"session,omitempty"`
	Steps      uint64 `json:"steps"`
	Phase      string `json:"phase"`
	ActiveTags []int  `json:"active_tags"`
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.detector.State()
	tags := make([]int, 0, len(s.subs.Tags()))
	for _, t := range s.subs.Tags() {
		tags = append(tags, int(t))
	}
	return Status{
		Variant:    s.variant.Name,
		Session:    s.session,
		Steps:      st.Steps,
		Phase:      st.Phase.String(),
		ActiveTags: tags,
	}
}

// State returns a snapshot of the detector state.
func (s *Service) State() gait.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.State()
}

// Stop ends any running session; used on shutdown.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs.Unsubscribe(s.variant.SessionTag)
}

func (s *Service) send(p protocol.Packet) {
	if err := s.out.Send(p.Encode()); err != nil {
		s.log.Warn("send failed", "kind", p.Kind.String(), "tag", p.Tag, "err", err)
	}
}

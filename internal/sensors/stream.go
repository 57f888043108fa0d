// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/relabs-tech/stepcounter/internal/imu"
	"github.com/relabs-tech/stepcounter/internal/subscription"
)

// BatchHandler receives delivered batches. ctx is the context of the
// subscription that produced the batch and is cancelled as soon as that
// subscription is stopped.
type BatchHandler func(ctx context.Context, tag uint8, batch imu.Batch)

type stream struct {
	res    Resource
	ctx    context.Context
	cancel context.CancelFunc
}

// Streamer samples a Reader at the rate named by each subscription and
// delivers fixed-size batches to the registered handler.
type Streamer struct {
	reader    Reader
	batchSize int
	log       *slog.Logger

	mu      sync.Mutex
	handler BatchHandler
	streams map[uint8]*stream
	wg      sync.WaitGroup
}

var _ subscription.Provider = (*Streamer)(nil)

func NewStreamer(r Reader, batchSize int, log *slog.Logger) *Streamer {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Streamer{
		reader:    r,
		batchSize: batchSize,
		log:       log.With("component", "sensors"),
		streams:   make(map[uint8]*stream),
	}
}

// OnBatch registers the handler for all subscriptions.
func (s *Streamer) OnBatch(h BatchHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Subscribe starts delivering path under tag.
func (s *Streamer) Subscribe(path string, tag uint8) error {
	res, err := ParseResource(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.streams[tag]; ok {
		return fmt.Errorf("tag %d: %w", tag, subscription.ErrBusy)
	}
	if s.handler == nil {
		return fmt.Errorf("tag %d: no batch handler registered", tag)
	}

	ctx, cancel := context.WithCancel(context.Background())
	st := &stream{res: res, ctx: ctx, cancel: cancel}
	s.streams[tag] = st

	s.wg.Add(1)
	go s.run(st, tag, s.handler)
	s.log.Debug("stream started", "path", res.String(), "tag", tag)
	return nil
}

// Unsubscribe stops delivery for tag. When it returns the subscription's
// context is cancelled, so no later batch from it is accepted by a
// handler that checks ctx.
func (s *Streamer) Unsubscribe(tag uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[tag]
	if !ok {
		return subscription.ErrNotSubscribed
	}
	st.cancel()
	delete(s.streams, tag)
	s.log.Debug("stream stopped", "path", st.res.String(), "tag", tag)
	return nil
}

// Close stops every stream and waits for the sampling goroutines to exit.
// It must not be called from inside a BatchHandler.
func (s *Streamer) Close() error {
	s.mu.Lock()
	for tag, st := range s.streams {
		st.cancel()
		delete(s.streams, tag)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *Streamer) run(st *stream, tag uint8, handler BatchHandler) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(st.res.RateHz))
	defer ticker.Stop()

	batch := make(imu.Batch, 0, s.batchSize)
	for {
		select {
		case <-st.ctx.Done():
			return
		case <-ticker.C:
		}

		sample, err := read(s.reader, st.res.Kind)
		if err != nil {
			s.log.Warn("read failed", "path", st.res.String(), "err", err)
			continue
		}
		batch = append(batch, sample)
		if len(batch) < s.batchSize {
			continue
		}

		if st.ctx.Err() != nil {
			return
		}
		handler(st.ctx, tag, batch)
		batch = make(imu.Batch, 0, s.batchSize)
	}
}

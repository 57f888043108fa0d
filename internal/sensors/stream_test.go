// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relabs-tech/stepcounter/internal/imu"
	"github.com/relabs-tech/stepcounter/internal/subscription"
	"github.com/stretchr/testify/require"
)

type constReader struct {
	accel, gyro imu.Sample
	failing     atomic.Bool
}

func (c *constReader) ReadAccel() (imu.Sample, error) {
	if c.failing.Load() {
		return imu.Sample{}, errors.New("spi timeout")
	}
	return c.accel, nil
}

func (c *constReader) ReadGyro() (imu.Sample, error) {
	if c.failing.Load() {
		return imu.Sample{}, errors.New("spi timeout")
	}
	return c.gyro, nil
}

type recorder struct {
	mu      sync.Mutex
	batches map[uint8][]imu.Batch
}

func (r *recorder) handle(_ context.Context, tag uint8, b imu.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batches == nil {
		r.batches = make(map[uint8][]imu.Batch)
	}
	r.batches[tag] = append(r.batches[tag], b)
}

func (r *recorder) count(tag uint8) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches[tag])
}

func (r *recorder) first(tag uint8) imu.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[tag][0]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStreamerDeliversBatches(t *testing.T) {
	reader := &constReader{
		accel: imu.Sample{X: -5, Y: 1, Z: 9.8},
		gyro:  imu.Sample{Z: 120},
	}
	rec := &recorder{}
	s := NewStreamer(reader, 3, discardLogger())
	s.OnBatch(rec.handle)
	defer s.Close()

	require.NoError(t, s.Subscribe("/Meas/Gyro/500", 20))
	require.Eventually(t, func() bool { return rec.count(20) >= 2 }, 2*time.Second, 5*time.Millisecond)

	b := rec.first(20)
	require.Len(t, b, 3)
	require.Equal(t, imu.Sample{Z: 120}, b[0])
}

func TestStreamerRejectsDuplicateAndUnknown(t *testing.T) {
	s := NewStreamer(&constReader{}, 2, discardLogger())
	s.OnBatch((&recorder{}).handle)
	defer s.Close()

	require.NoError(t, s.Subscribe("/Meas/Acc/52", 10))
	require.ErrorIs(t, s.Subscribe("/Meas/Acc/52", 10), subscription.ErrBusy)
	require.ErrorIs(t, s.Subscribe("/Meas/Temp/1", 11), ErrUnknownResource)
}

func TestStreamerUnsubscribe(t *testing.T) {
	rec := &recorder{}
	s := NewStreamer(&constReader{}, 1, discardLogger())
	s.OnBatch(rec.handle)
	defer s.Close()

	require.ErrorIs(t, s.Unsubscribe(10), subscription.ErrNotSubscribed)

	require.NoError(t, s.Subscribe("/Meas/Acc/500", 10))
	require.Eventually(t, func() bool { return rec.count(10) > 0 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Unsubscribe(10))

	// Allow one in-flight delivery, then nothing more.
	time.Sleep(20 * time.Millisecond)
	n := rec.count(10)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, n, rec.count(10))

	require.ErrorIs(t, s.Unsubscribe(10), subscription.ErrNotSubscribed)
}

func TestStreamerCancelsContextOnUnsubscribe(t *testing.T) {
	ctxs := make(chan context.Context, 16)
	s := NewStreamer(&constReader{}, 1, discardLogger())
	s.OnBatch(func(ctx context.Context, _ uint8, _ imu.Batch) {
		select {
		case ctxs <- ctx:
		default:
		}
	})
	defer s.Close()

	require.NoError(t, s.Subscribe("/Meas/Gyro/500", 20))
	var ctx context.Context
	select {
	case ctx = <-ctxs:
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}
	require.NoError(t, ctx.Err())

	require.NoError(t, s.Unsubscribe(20))
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestStreamerSkipsFailedReads(t *testing.T) {
	reader := &constReader{}
	reader.failing.Store(true)
	rec := &recorder{}
	s := NewStreamer(reader, 1, discardLogger())
	s.OnBatch(rec.handle)
	defer s.Close()

	require.NoError(t, s.Subscribe("/Meas/Acc/500", 10))
	time.Sleep(30 * time.Millisecond)
	require.Zero(t, rec.count(10))

	reader.failing.Store(false)
	require.Eventually(t, func() bool { return rec.count(10) > 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestStreamerRequiresHandler(t *testing.T) {
	s := NewStreamer(&constReader{}, 1, discardLogger())
	defer s.Close()
	require.Error(t, s.Subscribe("/Meas/Acc/52", 10))
}

func TestMockReaderCrossesThresholds(t *testing.T) {
	now := time.Unix(0, 0)
	m := newMockReader(1, func() time.Time { return now })

	minAcc, maxAcc := math.Inf(1), math.Inf(-1)
	minGyro, maxGyro := math.Inf(1), math.Inf(-1)
	for i := 0; i < 100; i++ {
		now = now.Add(10 * time.Millisecond)
		a, err := m.ReadAccel()
		require.NoError(t, err)
		g, err := m.ReadGyro()
		require.NoError(t, err)
		minAcc, maxAcc = min(minAcc, a.X), max(maxAcc, a.X)
		minGyro, maxGyro = min(minGyro, g.Z), max(maxGyro, g.Z)
	}
	require.Greater(t, maxAcc, -3.0)
	require.Less(t, minAcc, -17.0)
	require.Greater(t, maxGyro, 100.0)
	require.Less(t, minGyro, -50.0)
}

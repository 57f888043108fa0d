// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/stepcounter/internal/config"
	"github.com/relabs-tech/stepcounter/internal/gait"
	"github.com/relabs-tech/stepcounter/internal/imu"
	"github.com/relabs-tech/stepcounter/internal/protocol"
	"github.com/relabs-tech/stepcounter/internal/sensors"
	"github.com/relabs-tech/stepcounter/internal/subscription"
)

// swingReader alternates the gyro z rate between a swing and a stance
// value every five samples.
type swingReader struct {
	mu sync.Mutex
	n  int
}

func (r *swingReader) ReadAccel() (imu.Sample, error) { return imu.Sample{}, nil }

func (r *swingReader) ReadGyro() (imu.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	if r.n%10 < 5 {
		return imu.Sample{Z: 150}, nil
	}
	return imu.Sample{Z: -60}, nil
}

func TestSessionOverStreamer(t *testing.T) {
	det, err := gait.NewDetector(gait.Gyro())
	require.NoError(t, err)

	streamer := sensors.NewStreamer(&swingReader{}, 1, discardLogger())
	defer streamer.Close()
	out := &fakeSender{}
	subs := subscription.NewManager(streamer, DefaultReference, discardLogger())
	svc := NewService(det, subs, &fakeIndicator{}, out, discardLogger())
	streamer.OnBatch(svc.HandleBatch)

	svc.HandleCommand(protocol.EncodeCommand(protocol.BeginSub))
	require.Eventually(t, func() bool { return len(out.packets(t)) >= 4 }, 3*time.Second, 5*time.Millisecond)

	svc.HandleCommand(protocol.EncodeCommand(protocol.EndSub))
	stopped := len(out.packets(t))
	time.Sleep(50 * time.Millisecond)
	packets := out.packets(t)
	require.Len(t, packets, stopped, "no reports after END_SUB")

	for i, p := range packets {
		label := "Swing "
		if i%2 == 1 {
			label = "Stance "
		}
		require.Equal(t, protocol.TagStepReport, p.Tag)
		require.Equal(t, fmt.Sprintf("%s%d", label, i+1), string(p.Payload))
	}

	// A new session starts counting from one again.
	svc.HandleCommand(protocol.EncodeCommand(protocol.BeginSub))
	require.Eventually(t, func() bool { return len(out.packets(t)) > stopped }, 3*time.Second, 5*time.Millisecond)
	require.Equal(t, "Swing 1", string(out.packets(t)[stopped].Payload))
	require.NoError(t, svc.Stop())
}

func TestVariantFromConfig(t *testing.T) {
	up, down := 120.0, -40.0
	cfg := config.Default()
	cfg.UpThreshold = &up
	cfg.DownThreshold = &down

	v, err := VariantFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, gait.Thresholds{Up: 120, Down: -40}, v.Thresholds)
	require.Equal(t, imu.AxisZ, v.Axis)

	cfg.Variant = "acc"
	cfg.UpThreshold, cfg.DownThreshold = nil, nil
	v, err = VariantFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, gait.Accelerometer(), v)

	cfg.Variant = "gyro"
	cfg.Axis = "x"
	v, err = VariantFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, imu.AxisX, v.Axis)

	cfg.Axis = ""
	cfg.Variant = "baro"
	_, err = VariantFromConfig(cfg)
	require.Error(t, err)
}

func TestConsoleHelpers(t *testing.T) {
	frame, ok := ParseConsoleCommand(" Begin ")
	require.True(t, ok)
	require.Equal(t, []byte{1}, frame)
	_, ok = ParseConsoleCommand("jump")
	require.False(t, ok)

	require.Equal(t, "[STEP ] Stance 12", FormatResponse([]byte{1, 5, 'S', 't', 'a', 'n', 'c', 'e', ' ', '1', '2'}))
	require.Equal(t, "[HELLO] Hello", FormatResponse(protocol.HelloPacket().Encode()))
	require.Equal(t, "[ERROR] BEGIN_SUB: busy", FormatResponse([]byte{3, 1, 'b', 'u', 's', 'y'}))
	require.True(t, strings.HasPrefix(FormatResponse([]byte{1}), "[?]"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown", "tag", 20)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

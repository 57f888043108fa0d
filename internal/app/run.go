// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/relabs-tech/stepcounter/internal/config"
	"github.com/relabs-tech/stepcounter/internal/gait"
	"github.com/relabs-tech/stepcounter/internal/imu"
	"github.com/relabs-tech/stepcounter/internal/indicator"
	"github.com/relabs-tech/stepcounter/internal/sensors"
	"github.com/relabs-tech/stepcounter/internal/subscription"
	"github.com/relabs-tech/stepcounter/internal/transport"
)

// NewLogger builds the colourised console logger used by the commands.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// VariantFromConfig returns the configured detector variant with any
// axis and threshold overrides applied.
func VariantFromConfig(cfg *config.Config) (gait.Variant, error) {
	v, err := gait.VariantByName(cfg.Variant)
	if err != nil {
		return gait.Variant{}, err
	}
	if cfg.Axis != "" {
		if v.Axis, err = imu.ParseAxis(cfg.Axis); err != nil {
			return gait.Variant{}, err
		}
	}
	if cfg.UpThreshold != nil {
		v.Thresholds.Up = *cfg.UpThreshold
	}
	if cfg.DownThreshold != nil {
		v.Thresholds.Down = *cfg.DownThreshold
	}
	return v, nil
}

func newReader(cfg *config.Config, log *slog.Logger) (sensors.Reader, error) {
	switch cfg.SensorSource {
	case config.SensorMPU9250:
		return sensors.NewMPU9250Reader(sensors.MPU9250Config{
			SPIDevice:  cfg.IMUSPIDevice,
			CSPin:      cfg.IMUCSPin,
			AccelRange: cfg.IMUAccelRange,
			GyroRange:  cfg.IMUGyroRange,
		}, log)
	default:
		log.Info("using mock sensor source", "cadence_hz", cfg.MockCadenceHz)
		return sensors.NewMockReader(cfg.MockCadenceHz), nil
	}
}

func newTransport(cfg *config.Config, log *slog.Logger) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportSerial:
		return transport.OpenSerial(transport.SerialConfig{
			PortName: cfg.SerialPort,
			BaudRate: cfg.SerialBaudRate,
		}, log)
	case config.TransportWebSocket:
		return transport.NewWebSocket(cfg.WSListenAddr, log), nil
	default:
		return transport.NewMQTT(transport.MQTTConfig{
			Broker:        cfg.MQTTBroker,
			ClientID:      cfg.MQTTClientID,
			CommandTopic:  cfg.TopicCommands,
			ResponseTopic: cfg.TopicResponses,
		}, log), nil
	}
}

type closer interface{ Close() error }

// RunStepCounter wires sensor stream, detector, indicator and transport
// from the global config and serves commands until SIGINT/SIGTERM.
func RunStepCounter(log *slog.Logger) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	variant, err := VariantFromConfig(cfg)
	if err != nil {
		return err
	}
	detector, err := gait.NewDetector(variant)
	if err != nil {
		return err
	}
	log.Info("detector ready",
		"variant", variant.Name,
		"axis", variant.Axis.String(),
		"up", variant.Thresholds.Up,
		"down", variant.Thresholds.Down,
		"path", variant.Path,
	)

	reader, err := newReader(cfg, log)
	if err != nil {
		return err
	}
	streamer := sensors.NewStreamer(reader, cfg.BatchSize, log)
	defer streamer.Close()

	var ind indicator.Indicator = indicator.NewLog(log)
	if cfg.LEDPin != "" {
		led, err := indicator.NewLED(cfg.LEDPin, log)
		if err != nil {
			log.Warn("LED unavailable, blinking to log", "pin", cfg.LEDPin, "err", err)
		} else {
			defer led.Close()
			ind = led
		}
	}

	link, err := newTransport(cfg, log)
	if err != nil {
		return err
	}

	subs := subscription.NewManager(streamer, DefaultReference, log)
	svc := NewService(detector, subs, ind, link, log)
	streamer.OnBatch(svc.HandleBatch)

	if err := link.Start(svc.HandleCommand); err != nil {
		_ = link.Close()
		return err
	}
	if cfg.StatusAddr != "" {
		status := RunStatusServer(cfg.StatusAddr, svc, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = status.Shutdown(ctx)
		}()
	}
	log.Info("step counter running", "transport", cfg.Transport)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	if err := svc.Stop(); err != nil {
		log.Warn("stop session", "err", err)
	}
	return closeAll(link, streamer)
}

func closeAll(cs ...closer) error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

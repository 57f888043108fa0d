// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/relabs-tech/stepcounter/internal/imu"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

const standardGravity = 9.80665

// LSB per g for ACCEL_FS_SEL 0-3 (±2g, ±4g, ±8g, ±16g).
var accelLSBPerG = [4]float64{16384, 8192, 4096, 2048}

// LSB per °/s for GYRO_FS_SEL 0-3 (±250, ±500, ±1000, ±2000 °/s).
var gyroLSBPerDPS = [4]float64{131, 65.5, 32.8, 16.4}

// MPU9250Config selects the SPI wiring and full-scale ranges.
type MPU9250Config struct {
	SPIDevice  string
	CSPin      string
	AccelRange byte // 0-3
	GyroRange  byte // 0-3
}

// MPU9250Reader reads an MPU-9250 over SPI and converts counts to m/s²
// and °/s.
type MPU9250Reader struct {
	mu         sync.Mutex
	dev        *mpu9250.MPU9250
	accelScale float64
	gyroScale  float64
}

// NewMPU9250Reader initializes the IMU and applies the configured ranges.
func NewMPU9250Reader(cfg MPU9250Config, log *slog.Logger) (*MPU9250Reader, error) {
	if cfg.AccelRange > 3 || cfg.GyroRange > 3 {
		return nil, fmt.Errorf("IMU: range out of bounds (accel=%d gyro=%d)", cfg.AccelRange, cfg.GyroRange)
	}
	log = log.With("component", "mpu9250", "spi", cfg.SPIDevice)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", cfg.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := dev.SetAccelRange(cfg.AccelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Info("accelerometer range set", "range", cfg.AccelRange)

	if err := dev.SetGyroRange(cfg.GyroRange); err != nil {
		return nil, fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Info("gyroscope range set", "range", cfg.GyroRange)

	if err := dev.Calibrate(); err != nil {
		log.Warn("calibration failed", "err", err)
	} else {
		log.Info("calibration complete")
	}

	return &MPU9250Reader{
		dev:        dev,
		accelScale: standardGravity / accelLSBPerG[cfg.AccelRange],
		gyroScale:  1 / gyroLSBPerDPS[cfg.GyroRange],
	}, nil
}

func (r *MPU9250Reader) ReadAccel() (imu.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ax, err := r.dev.GetAccelerationX()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := r.dev.GetAccelerationY()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := r.dev.GetAccelerationZ()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU accel Z: %w", err)
	}
	return scale(ax, ay, az, r.accelScale), nil
}

func (r *MPU9250Reader) ReadGyro() (imu.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gx, err := r.dev.GetRotationX()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := r.dev.GetRotationY()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := r.dev.GetRotationZ()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU gyro Z: %w", err)
	}
	return scale(gx, gy, gz, r.gyroScale), nil
}

func scale(x, y, z int16, k float64) imu.Sample {
	return imu.Sample{X: float64(x) * k, Y: float64(y) * k, Z: float64(z) * k}
}

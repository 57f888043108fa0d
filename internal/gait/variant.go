// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"

	"github.com/relabs-tech/stepcounter/internal/imu"
)

// Thresholds are the two comparator levels of the detector. Up must be
// strictly greater than Down.
type Thresholds struct {
	Up   float64 `json:"up"`
	Down float64 `json:"down"`
}

// Variant fixes everything that differs between the gyroscope and
// accelerometer builds of the step counter.
type Variant struct {
	Name       string
	Axis       imu.Axis
	Thresholds Thresholds

	// Prefixes written before the step count in the report payload.
	UpLabel   string
	DownLabel string

	// Sensor resource the variant subscribes to and the reference tag
	// used for that subscription.
	Path       string
	SessionTag uint8

	// BlinkOnStep flashes the indicator once for every counted step.
	BlinkOnStep bool
}

// Gyro detects arm swing from the z-axis angular rate (°/s).
func Gyro() Variant {
	return Variant{
		Name:       "gyro",
		Axis:       imu.AxisZ,
		Thresholds: Thresholds{Up: 100, Down: -50},
		UpLabel:    "Swing ",
		DownLabel:  "Stance ",
		Path:       "/Meas/Gyro/52",
		SessionTag: 20,
	}
}

// Accelerometer detects hand lift and drop from x-axis acceleration (m/s²).
func Accelerometer() Variant {
	return Variant{
		Name:        "acc",
		Axis:        imu.AxisX,
		Thresholds:  Thresholds{Up: -3, Down: -17},
		Path:        "/Meas/Acc/52",
		SessionTag:  10,
		BlinkOnStep: true,
	}
}

// VariantByName returns the built-in variant called name ("gyro" or "acc").
func VariantByName(name string) (Variant, error) {
	switch name {
	case "gyro", "gyroscope":
		return Gyro(), nil
	case "acc", "accelerometer":
		return Accelerometer(), nil
	}
	return Variant{}, fmt.Errorf("unknown variant %q", name)
}

func (v Variant) validate() error {
	if v.Thresholds.Up <= v.Thresholds.Down {
		return fmt.Errorf("variant %s: up threshold %.2f must be above down threshold %.2f",
			v.Name, v.Thresholds.Up, v.Thresholds.Down)
	}
	return nil
}

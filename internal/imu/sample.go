// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "fmt"

// Sample is a single 3-axis reading (accelerometer in m/s², gyroscope in °/s).
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Batch is one delivery of time-ordered samples from the sensor stream.
// It is only valid for the duration of the callback that receives it.
type Batch []Sample

// Axis selects one component of a Sample.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// ParseAxis accepts "x", "y" or "z".
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Component returns the value of s along a.
func (a Axis) Component(s Sample) float64 {
	switch a {
	case AxisY:
		return s.Y
	case AxisZ:
		return s.Z
	default:
		return s.X
	}
}

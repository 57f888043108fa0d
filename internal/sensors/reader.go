// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/stepcounter/internal/imu"
)

// Reader returns one sample at a time from a physical or simulated IMU.
type Reader interface {
	ReadAccel() (imu.Sample, error)
	ReadGyro() (imu.Sample, error)
}

func read(r Reader, k Kind) (imu.Sample, error) {
	if k == Gyroscope {
		return r.ReadGyro()
	}
	return r.ReadAccel()
}

type mockReader struct {
	start   time.Time
	now     func() time.Time
	cadence float64 // Hz
}

// NewMockReader creates a reader that simulates an arm swinging at
// cadenceHz: the gyroscope z rate and the accelerometer x value oscillate
// far enough past both detector thresholds to produce steps.
func NewMockReader(cadenceHz float64) Reader {
	return newMockReader(cadenceHz, time.Now)
}

func newMockReader(cadenceHz float64, now func() time.Time) *mockReader {
	return &mockReader{start: now(), now: now, cadence: cadenceHz}
}

func (m *mockReader) phase() float64 {
	elapsed := m.now().Sub(m.start).Seconds()
	return 2 * math.Pi * m.cadence * elapsed
}

func (m *mockReader) ReadAccel() (imu.Sample, error) {
	p := m.phase()
	return imu.Sample{
		X: -10 + 9*math.Sin(p),
		Y: 2 * math.Cos(p),
		Z: 9.81,
	}, nil
}

func (m *mockReader) ReadGyro() (imu.Sample, error) {
	p := m.phase()
	return imu.Sample{
		X: 15 * math.Cos(p),
		Y: 10 * math.Sin(p*0.7),
		Z: 200 * math.Sin(p),
	}, nil
}

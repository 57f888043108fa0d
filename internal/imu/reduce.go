// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyBatch is returned by Mean for a batch with no samples.
var ErrEmptyBatch = errors.New("imu: empty batch")

// Mean reduces a batch to the arithmetic mean of the selected axis.
// Callers are expected to skip empty batches; Mean refuses them rather than
// dividing by zero.
func Mean(b Batch, axis Axis) (float64, error) {
	if len(b) == 0 {
		return 0, ErrEmptyBatch
	}
	values := make([]float64, len(b))
	for i, s := range b {
		values[i] = axis.Component(s)
	}
	return stat.Mean(values, nil), nil
}

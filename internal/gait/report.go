// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"errors"
	"strconv"
)

// ErrZeroCount is returned when asked to report a count of zero; a report
// is only ever produced after a step has been counted.
var ErrZeroCount = errors.New("gait: step count is zero")

// digits returns the number of decimal digits of n (1 for 0).
func digits(n uint64) int {
	d := 1
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}

// EncodeReport writes label followed by the decimal count. The buffer is
// sized to the count's width so nothing beyond the numeral is emitted.
func EncodeReport(label string, count uint64) ([]byte, error) {
	if count == 0 {
		return nil, ErrZeroCount
	}
	buf := make([]byte, 0, len(label)+digits(count))
	buf = append(buf, label...)
	buf = strconv.AppendUint(buf, count, 10)
	return buf, nil
}

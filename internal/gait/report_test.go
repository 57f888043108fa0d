// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeReportLength(t *testing.T) {
	for _, n := range []uint64{1, 9, 10, 99, 100, 12345, math.MaxUint64} {
		p, err := EncodeReport("", n)
		require.NoError(t, err)
		require.Len(t, p, digits(n))
		require.Equal(t, len(p), cap(p))
		require.Equal(t, strconv.FormatUint(n, 10), string(p))
	}
}

func TestEncodeReportLabel(t *testing.T) {
	p, err := EncodeReport("Stance ", 10)
	require.NoError(t, err)
	require.Equal(t, []byte("Stance 10"), p)
}

func TestEncodeReportZero(t *testing.T) {
	_, err := EncodeReport("Swing ", 0)
	require.ErrorIs(t, err, ErrZeroCount)
}

func TestDigits(t *testing.T) {
	require.Equal(t, 1, digits(0))
	require.Equal(t, 1, digits(9))
	require.Equal(t, 2, digits(10))
	require.Equal(t, 3, digits(100))
	require.Equal(t, 20, digits(math.MaxUint64))
}

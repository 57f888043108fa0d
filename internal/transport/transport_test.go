// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// frameSink collects inbound frames for assertions.
type frameSink struct {
	mu     sync.Mutex
	frames [][]byte
}

func (s *frameSink) handle(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

func (s *frameSink) all() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func (s *frameSink) waitFor(t *testing.T, n int) [][]byte {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.all()) >= n }, 3*time.Second, 5*time.Millisecond)
	return s.all()
}

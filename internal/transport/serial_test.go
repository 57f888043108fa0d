// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bufio"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerialReceivesHexLines(t *testing.T) {
	device, host := net.Pipe()
	defer host.Close()

	sink := &frameSink{}
	s := NewSerial(device, discardLogger())
	require.NoError(t, s.Start(sink.handle))
	require.Error(t, s.Start(sink.handle))

	_, err := host.Write([]byte("00\n\nzz\n03e803\r\n01\n"))
	require.NoError(t, err)

	frames := sink.waitFor(t, 3)
	require.Equal(t, [][]byte{{0x00}, {0x03, 0xe8, 0x03}, {0x01}}, frames)

	require.NoError(t, s.Close())
}

func TestSerialSendsHexLines(t *testing.T) {
	device, host := net.Pipe()
	defer host.Close()

	s := NewSerial(device, discardLogger())
	require.NoError(t, s.Start(func([]byte) {}))
	defer s.Close()

	r := bufio.NewReader(host)
	go func() {
		_ = s.Send([]byte{1, 1, 'H', 'e', 'l', 'l', 'o'})
	}()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "010148656c6c6f\n", line)
}

type failingPort struct{ net.Conn }

func (failingPort) Write([]byte) (int, error) { return 0, errors.New("unplugged") }

func TestSerialSendError(t *testing.T) {
	device, host := net.Pipe()
	defer host.Close()

	s := NewSerial(failingPort{device}, discardLogger())
	require.ErrorContains(t, s.Send([]byte{2, 5}), "unplugged")
	require.NoError(t, device.Close())
}

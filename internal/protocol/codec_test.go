// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	cmd, err := DecodeCommand([]byte{3, 0xAA, 0xBB})
	require.NoError(t, err)
	require.Equal(t, Blink, cmd.Kind)
	require.Equal(t, []byte{0xAA, 0xBB}, cmd.Args)

	cmd, err = DecodeCommand([]byte{0})
	require.NoError(t, err)
	require.Equal(t, Hello, cmd.Kind)
	require.Empty(t, cmd.Args)

	_, err = DecodeCommand(nil)
	require.ErrorIs(t, err, ErrEmptyFrame)
}

func TestDecodeCommandUnknownKindIsNotACodecError(t *testing.T) {
	cmd, err := DecodeCommand([]byte{42, 1})
	require.NoError(t, err)
	require.False(t, cmd.Kind.Known())
	require.Equal(t, "command(42)", cmd.Kind.String())
}

func TestEncodeCommand(t *testing.T) {
	require.Equal(t, []byte{1}, EncodeCommand(BeginSub))
	require.Equal(t, []byte{3, 1, 2}, EncodeCommand(Blink, 1, 2))
}

func TestPacketEncode(t *testing.T) {
	frame := HelloPacket().Encode()
	require.Equal(t, []byte{1, 1, 'H', 'e', 'l', 'l', 'o'}, frame)

	frame = Packet{Kind: Data, Tag: 9}.Encode()
	require.Equal(t, []byte{2, 9}, frame)
}

func TestDecodePacket(t *testing.T) {
	p, err := DecodePacket([]byte{1, 5, '4', '2'})
	require.NoError(t, err)
	require.Equal(t, CommandResult, p.Kind)
	require.Equal(t, TagStepReport, p.Tag)
	require.Equal(t, "42", string(p.Payload))

	_, err = DecodePacket([]byte{1})
	require.ErrorIs(t, err, ErrShortFrame)
	_, err = DecodePacket(nil)
	require.ErrorIs(t, err, ErrEmptyFrame)
}

func TestErrorPacket(t *testing.T) {
	p := ErrorPacket(BeginSub, errors.New("busy"))
	require.Equal(t, []byte{3, 1, 'b', 'u', 's', 'y'}, p.Encode())
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol encodes and decodes the byte frames exchanged with the
// host. Inbound frames are [command, args...]; outbound frames are
// [response, tag, payload...]. Framing is left to the transport.
package protocol

import (
	"errors"
	"fmt"
)

// CommandKind is byte 0 of an inbound frame.
type CommandKind uint8

const (
	Hello    CommandKind = 0
	BeginSub CommandKind = 1
	EndSub   CommandKind = 2
	Blink    CommandKind = 3
)

func (c CommandKind) String() string {
	switch c {
	case Hello:
		return "HELLO"
	case BeginSub:
		return "BEGIN_SUB"
	case EndSub:
		return "END_SUB"
	case Blink:
		return "BLINK"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// Known reports whether c is one of the commands the device understands.
func (c CommandKind) Known() bool {
	return c <= Blink
}

// ResponseKind is byte 0 of an outbound frame.
type ResponseKind uint8

const (
	CommandResult ResponseKind = 1
	Data          ResponseKind = 2
	Error         ResponseKind = 3
)

func (r ResponseKind) String() string {
	switch r {
	case CommandResult:
		return "COMMAND_RESULT"
	case Data:
		return "DATA"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("response(%d)", uint8(r))
}

// Tags group responses on the host side.
const (
	TagHello      uint8 = 1
	TagStepReport uint8 = 5
)

var (
	ErrEmptyFrame = errors.New("protocol: empty frame")
	ErrShortFrame = errors.New("protocol: frame shorter than header")
)

// Command is a decoded inbound frame.
type Command struct {
	Kind CommandKind
	Args []byte
}

// DecodeCommand splits frame into kind and arguments. Args aliases frame.
// Validation of Args is up to the dispatcher.
func DecodeCommand(frame []byte) (Command, error) {
	if len(frame) == 0 {
		return Command{}, ErrEmptyFrame
	}
	return Command{Kind: CommandKind(frame[0]), Args: frame[1:]}, nil
}

// EncodeCommand builds an inbound frame; used by host tools and tests.
func EncodeCommand(kind CommandKind, args ...byte) []byte {
	frame := make([]byte, 0, 1+len(args))
	frame = append(frame, byte(kind))
	return append(frame, args...)
}

// Packet is one outbound response.
type Packet struct {
	Kind    ResponseKind
	Tag     uint8
	Payload []byte
}

// Encode serialises p as [kind, tag, payload...].
func (p Packet) Encode() []byte {
	frame := make([]byte, 0, 2+len(p.Payload))
	frame = append(frame, byte(p.Kind), p.Tag)
	return append(frame, p.Payload...)
}

// DecodePacket parses an outbound frame; used by host tools and tests.
func DecodePacket(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return Packet{}, ErrEmptyFrame
	}
	if len(frame) < 2 {
		return Packet{}, ErrShortFrame
	}
	return Packet{
		Kind:    ResponseKind(frame[0]),
		Tag:     frame[1],
		Payload: frame[2:],
	}, nil
}

// HelloPacket is the fixed reply to HELLO.
func HelloPacket() Packet {
	return Packet{Kind: CommandResult, Tag: TagHello, Payload: []byte("Hello")}
}

// ErrorPacket reports a failed command; the tag is the command kind.
func ErrorPacket(cmd CommandKind, err error) Packet {
	return Packet{Kind: Error, Tag: uint8(cmd), Payload: []byte(err.Error())}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport moves raw command and response frames between the
// device and the host. Each implementation preserves frame boundaries;
// no length prefix is added to the frames themselves.
package transport

// Handler receives one inbound command frame. The slice is owned by the
// handler.
type Handler func(frame []byte)

// Transport is the link to the host.
type Transport interface {
	// Start begins delivering inbound frames to h. It does not block.
	Start(h Handler) error
	// Send transmits one outbound frame.
	Send(frame []byte) error
	Close() error
}

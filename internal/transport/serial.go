// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

const closeWait = time.Second

// SerialConfig selects the UART.
type SerialConfig struct {
	PortName string
	BaudRate uint
}

// Serial carries one frame per line, hex encoded, so binary frames
// survive a line-oriented link.
type Serial struct {
	port io.ReadWriteCloser
	log  *slog.Logger

	writeMu sync.Mutex
	done    chan struct{}
}

var _ Transport = (*Serial)(nil)

// OpenSerial opens the UART described by cfg.
func OpenSerial(cfg SerialConfig, log *slog.Logger) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:              cfg.PortName,
		BaudRate:              cfg.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", cfg.PortName, err)
	}
	s := NewSerial(port, log)
	s.log.Info("serial port opened", "port", cfg.PortName, "baud", cfg.BaudRate)
	return s, nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.ReadWriteCloser, log *slog.Logger) *Serial {
	return &Serial{port: port, log: log.With("component", "serial")}
}

func (s *Serial) Start(h Handler) error {
	if s.done != nil {
		return errors.New("serial: already started")
	}
	s.done = make(chan struct{})
	go s.readLoop(h)
	return nil
}

func (s *Serial) readLoop(h Handler) {
	defer close(s.done)

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		frame, err := hex.DecodeString(line)
		if err != nil {
			s.log.Debug("dropping malformed line", "line", line, "err", err)
			continue
		}
		h(frame)
	}
	if err := scanner.Err(); err != nil {
		s.log.Warn("read loop stopped", "err", err)
	}
}

func (s *Serial) Send(frame []byte) error {
	line := make([]byte, hex.EncodedLen(len(frame))+1)
	hex.Encode(line, frame)
	line[len(line)-1] = '\n'

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	n, err := s.port.Write(line)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(line) {
		return fmt.Errorf("serial write: short write %d/%d", n, len(line))
	}
	return nil
}

// Close closes the port and waits briefly for the read loop to exit. Some
// UART drivers do not interrupt a pending read on close.
func (s *Serial) Close() error {
	err := s.port.Close()
	if s.done != nil {
		select {
		case <-s.done:
		case <-time.After(closeWait):
			s.log.Warn("read loop still blocked after close")
		}
	}
	return err
}

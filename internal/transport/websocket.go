// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketPath is where host consoles connect.
const WebSocketPath = "/ws"

const (
	writeWait = 10 * time.Second
	// Frames queued per console before it is considered stalled.
	sendQueueLen = 16
)

var errConsoleStalled = errors.New("console not reading")

type wsConsole struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *wsConsole) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// WebSocket serves frames as binary websocket messages. Every connected
// console may send commands; responses are broadcast to all of them.
// Send never waits on a console: each one has its own write pump.
type WebSocket struct {
	addr     string
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	consoles map[*wsConsole]struct{}
	handler  Handler
	srv      *http.Server
	ln       net.Listener
}

var _ Transport = (*WebSocket)(nil)

func NewWebSocket(addr string, log *slog.Logger) *WebSocket {
	return &WebSocket{
		addr: addr,
		log:  log.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // consoles run on the local network
			},
		},
		consoles: make(map[*wsConsole]struct{}),
	}
}

func (w *WebSocket) Start(h Handler) error {
	ln, err := net.Listen("tcp", w.addr)
	if err != nil {
		return fmt.Errorf("websocket listen %s: %w", w.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, w.serveConn)

	w.mu.Lock()
	w.handler = h
	w.ln = ln
	w.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	srv := w.srv
	w.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Error("server stopped", "err", err)
		}
	}()
	w.log.Info("listening", "addr", ln.Addr().String(), "path", WebSocketPath)
	return nil
}

// Addr is the bound listen address once started.
func (w *WebSocket) Addr() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ln == nil {
		return w.addr
	}
	return w.ln.Addr().String()
}

func (w *WebSocket) serveConn(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.Warn("upgrade failed", "err", err)
		return
	}
	c := &wsConsole{
		conn: conn,
		send: make(chan []byte, sendQueueLen),
		done: make(chan struct{}),
	}

	w.mu.Lock()
	w.consoles[c] = struct{}{}
	h := w.handler
	w.mu.Unlock()
	w.log.Info("console connected", "remote", conn.RemoteAddr().String())

	go w.writePump(c)
	defer w.drop(c)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			w.log.Debug("console disconnected", "remote", conn.RemoteAddr().String(), "err", err)
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		h(data)
	}
}

func (w *WebSocket) writePump(c *wsConsole) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				w.drop(c)
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				w.log.Warn("write failed, dropping console", "remote", c.conn.RemoteAddr().String(), "err", err)
				w.drop(c)
				return
			}
		}
	}
}

func (w *WebSocket) drop(c *wsConsole) {
	w.mu.Lock()
	delete(w.consoles, c)
	w.mu.Unlock()
	c.close()
}

// Send queues frame for every connected console. A console whose queue is
// full is disconnected and reported in the returned error.
func (w *WebSocket) Send(frame []byte) error {
	frame = append([]byte(nil), frame...)

	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for c := range w.consoles {
		select {
		case c.send <- frame:
		default:
			errs = append(errs, fmt.Errorf("websocket %s: %w", c.conn.RemoteAddr(), errConsoleStalled))
			delete(w.consoles, c)
			c.close()
		}
	}
	return errors.Join(errs...)
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	srv := w.srv
	for c := range w.consoles {
		delete(w.consoles, c)
		c.close()
	}
	w.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

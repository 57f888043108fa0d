// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// StatusHandler serves the current session as JSON.
func StatusHandler(svc *Service, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/steps", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			log.Warn("json encode error", "err", err)
		}
	})
	return mux
}

// RunStatusServer serves StatusHandler on addr in the background.
func RunStatusServer(addr string, svc *Service, log *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           StatusHandler(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("status server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("status server stopped", "err", err)
		}
	}()
	return srv
}

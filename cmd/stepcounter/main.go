// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/stepcounter/internal/app"
	"github.com/relabs-tech/stepcounter/internal/config"
)

func main() {
	configPath := flag.String("config", "stepcounter_config.txt", "path to the KEY=VALUE config file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(os.Stderr, config.Get().LogLevel)
	logger.Info("starting step counter", "config", *configPath)

	if err := app.RunStepCounter(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

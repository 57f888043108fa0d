// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/stepcounter/internal/config"
	"github.com/relabs-tech/stepcounter/internal/protocol"
)

var consoleCommands = map[string]protocol.CommandKind{
	"hello": protocol.Hello,
	"begin": protocol.BeginSub,
	"end":   protocol.EndSub,
	"blink": protocol.Blink,
}

// ParseConsoleCommand maps a console word to a command frame.
func ParseConsoleCommand(line string) ([]byte, bool) {
	kind, ok := consoleCommands[strings.ToLower(strings.TrimSpace(line))]
	if !ok {
		return nil, false
	}
	return protocol.EncodeCommand(kind), true
}

// FormatResponse renders one response frame for the console.
func FormatResponse(frame []byte) string {
	p, err := protocol.DecodePacket(frame)
	if err != nil {
		return fmt.Sprintf("[?] malformed response % x", frame)
	}
	if p.Kind == protocol.Error {
		return fmt.Sprintf("[ERROR] %s: %s", protocol.CommandKind(p.Tag), p.Payload)
	}
	switch p.Tag {
	case protocol.TagStepReport:
		return fmt.Sprintf("[STEP ] %s", p.Payload)
	case protocol.TagHello:
		return fmt.Sprintf("[HELLO] %s", p.Payload)
	}
	return fmt.Sprintf("[%s tag=%d] %s", p.Kind, p.Tag, p.Payload)
}

// RunConsoleMQTT publishes commands typed on stdin and prints every
// response the device publishes.
func RunConsoleMQTT(log *slog.Logger) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("stepcounter-console-" + uuid.NewString()[:8])

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Info("console: connected to MQTT broker", "broker", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicResponses, 1, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Println(FormatResponse(msg.Payload()))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Info("console: subscribed", "topic", cfg.TopicResponses)

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	fmt.Println("commands: hello | begin | end | blink | quit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case <-sigCh:
			log.Info("console: shutting down")
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "quit" {
				return nil
			}
			frame, known := ParseConsoleCommand(line)
			if !known {
				fmt.Printf("unknown command %q\n", strings.TrimSpace(line))
				continue
			}
			if t := client.Publish(cfg.TopicCommands, 1, false, frame); t.Wait() && t.Error() != nil {
				log.Error("console: publish failed", "err", t.Error())
			}
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

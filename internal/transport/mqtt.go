// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"errors"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig names the broker and the two topics of the link.
type MQTTConfig struct {
	Broker        string
	ClientID      string
	CommandTopic  string
	ResponseTopic string
}

// MQTT carries frames as MQTT payloads: commands arrive on CommandTopic,
// responses are published to ResponseTopic.
type MQTT struct {
	cfg    MQTTConfig
	log    *slog.Logger
	client mqtt.Client
}

var _ Transport = (*MQTT)(nil)

func NewMQTT(cfg MQTTConfig, log *slog.Logger) *MQTT {
	return &MQTT{cfg: cfg, log: log.With("component", "mqtt")}
}

func (m *MQTT) Start(h Handler) error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			// Subscriptions are not kept across reconnects of a clean session.
			token := c.Subscribe(m.cfg.CommandTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
				frame := append([]byte(nil), msg.Payload()...)
				h(frame)
			})
			if token.Wait() && token.Error() != nil {
				m.log.Error("subscribe failed", "topic", m.cfg.CommandTopic, "err", token.Error())
				return
			}
			m.log.Info("subscribed", "topic", m.cfg.CommandTopic)
		})

	m.client = mqtt.NewClient(opts)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect %s: %w", m.cfg.Broker, token.Error())
	}
	m.log.Info("connected", "broker", m.cfg.Broker, "client_id", m.cfg.ClientID)
	return nil
}

func (m *MQTT) Send(frame []byte) error {
	if m.client == nil {
		return errors.New("MQTT: not started")
	}
	token := m.client.Publish(m.cfg.ResponseTopic, 0, false, frame)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish %s: %w", m.cfg.ResponseTopic, token.Error())
	}
	return nil
}

func (m *MQTT) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

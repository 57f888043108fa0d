// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/relabs-tech/stepcounter/internal/imu"
)

// Transport kinds.
const (
	TransportMQTT      = "mqtt"
	TransportSerial    = "serial"
	TransportWebSocket = "websocket"
)

// Sensor sources.
const (
	SensorMock    = "mock"
	SensorMPU9250 = "mpu9250"
)

// Config holds all application configuration values.
type Config struct {
	// Detector
	Variant       string // "gyro" or "acc"
	Axis          string // overrides the variant's axis when set
	UpThreshold   *float64
	DownThreshold *float64

	LogLevel slog.Level

	// Transport
	Transport string

	// MQTT
	MQTTBroker     string
	MQTTClientID   string
	TopicCommands  string
	TopicResponses string

	// Serial
	SerialPort     string
	SerialBaudRate uint

	// WebSocket
	WSListenAddr string

	// Sensor
	SensorSource  string
	MockCadenceHz float64
	BatchSize     int

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Indicator; empty means log-only.
	LEDPin string

	// StatusAddr serves /api/steps when set.
	StatusAddr string
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional key at its default.
func Default() *Config {
	return &Config{
		Variant:        "gyro",
		LogLevel:       slog.LevelInfo,
		Transport:      TransportMQTT,
		MQTTClientID:   "stepcounter",
		TopicCommands:  "stepcounter/commands",
		TopicResponses: "stepcounter/responses",
		SerialBaudRate: 115200,
		WSListenAddr:   ":8080",
		SensorSource:   SensorMock,
		MockCadenceHz:  1,
		BatchSize:      4,
		IMUAccelRange:  1,
		IMUGyroRange:   1,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	values, err := godotenv.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return FromMap(values)
}

// FromMap builds a Config from already parsed KEY=VALUE pairs.
func FromMap(values map[string]string) (*Config, error) {
	cfg := Default()

	// Deterministic order so the first bad key is always the one reported.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := cfg.setValue(key, strings.TrimSpace(values[key])); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Detector
	case "VARIANT":
		c.Variant = value
	case "AXIS":
		if _, err := imu.ParseAxis(value); err != nil {
			return fmt.Errorf("invalid AXIS: %w", err)
		}
		c.Axis = value
	case "UP_THRESHOLD":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid UP_THRESHOLD %q: %w", value, err)
		}
		c.UpThreshold = &f
	case "DOWN_THRESHOLD":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DOWN_THRESHOLD %q: %w", value, err)
		}
		c.DownThreshold = &f
	case "LOG_LEVEL":
		if err := c.LogLevel.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
		}

	// Transport
	case "TRANSPORT":
		switch value {
		case TransportMQTT, TransportSerial, TransportWebSocket:
			c.Transport = value
		default:
			return fmt.Errorf("TRANSPORT must be mqtt, serial or websocket, got %q", value)
		}

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_COMMANDS":
		c.TopicCommands = value
	case "TOPIC_RESPONSES":
		c.TopicResponses = value

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = uint(rate)

	// WebSocket
	case "WS_LISTEN_ADDR":
		c.WSListenAddr = value

	// Sensor
	case "SENSOR_SOURCE":
		switch value {
		case SensorMock, SensorMPU9250:
			c.SensorSource = value
		default:
			return fmt.Errorf("SENSOR_SOURCE must be mock or mpu9250, got %q", value)
		}
	case "MOCK_CADENCE_HZ":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_CADENCE_HZ %q: %w", value, err)
		}
		if f <= 0 {
			return fmt.Errorf("MOCK_CADENCE_HZ must be positive, got %v", f)
		}
		c.MockCadenceHz = f
	case "BATCH_SIZE":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BATCH_SIZE %q: %w", value, err)
		}
		if n < 1 || n > 64 {
			return fmt.Errorf("BATCH_SIZE must be 1-64, got %d", n)
		}
		c.BatchSize = n

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)

	// Indicator
	case "LED_PIN":
		c.LEDPin = value
	case "STATUS_ADDR":
		c.StatusAddr = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that the fields required by the selected transport and
// sensor source are set.
func (c *Config) validate() error {
	if c.Variant == "" {
		return fmt.Errorf("VARIANT is required")
	}
	switch c.Transport {
	case TransportMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
	case TransportSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required")
		}
	case TransportWebSocket:
		if c.WSListenAddr == "" {
			return fmt.Errorf("WS_LISTEN_ADDR is required")
		}
	}
	if c.SensorSource == SensorMPU9250 {
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required")
		}
		if c.IMUCSPin == "" {
			return fmt.Errorf("IMU_CS_PIN is required")
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

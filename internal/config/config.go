package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPath is the configuration file the binaries read unless -config
// says otherwise.
const DefaultPath = "tilt_config.txt"

// Config holds all application configuration values.
type Config struct {
	// IMU Hardware
	I2CBus     string // periph bus name, "" for the first bus
	IMUI2CAddr uint16

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	IMUDLPFConfig    byte // Digital Low Pass Filter configuration (0-6)
	IMUSampleRateDiv byte // output rate = internal rate / (1 + div)

	// Motion detection (MOT_THR / MOT_DUR)
	MotionThreshold byte
	MotionDuration  byte

	// Calibration
	CalibrationSamples    int
	CalibrationIntervalMs int
	StabilizeDelayMs      int

	// Filter / loop
	SampleIntervalMs int
	FilterAlpha      float64
	UseSimulatedIMU  bool

	// MQTT
	MQTTBroker           string // "" disables MQTT
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDMonitor  string

	// Topics
	TopicTelemetry string
	TopicPose      string

	// Serial
	SerialPort     string // "" disables the serial sink
	SerialBaudRate int
	SerialFormat   string // "data" or "nmea"

	// Web Server
	WebServerPort int // 0 disables the web server

	// Display
	DisplayEnabled        bool
	DisplayUpdateInterval int // milliseconds

	// Console / recording / logging
	ConsoleLogInterval int // milliseconds
	RecordDir          string
	LogLevel           string
	LogFile            string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: InitGlobal only loads once.
//   - configMu: write lock for initialization, read lock for Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns the configuration used for every key the file omits.
func Defaults() *Config {
	return &Config{
		IMUI2CAddr: 0x68,

		MotionThreshold: 1,
		MotionDuration:  20,

		CalibrationSamples:    100,
		CalibrationIntervalMs: 10,
		StabilizeDelayMs:      1000,

		SampleIntervalMs: 10,
		FilterAlpha:      0.96,

		MQTTClientIDProducer: "tilt-producer",
		MQTTClientIDConsole:  "tilt-console",
		MQTTClientIDMonitor:  "tilt-serial-monitor",
		TopicTelemetry:       "tilt/telemetry",
		TopicPose:            "tilt/pose",

		SerialBaudRate: 115200,
		SerialFormat:   "data",

		DisplayUpdateInterval: 200,
		ConsoleLogInterval:    1000,
		LogLevel:              "info",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Defaults. Blank lines and lines
// starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func parseByte(key, value string, max int) (byte, error) {
	val, err := strconv.ParseUint(value, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if int(val) > max {
		return 0, fmt.Errorf("%s must be 0-%d, got %d", key, max, val)
	}
	return byte(val), nil
}

func parseInt(key, value string) (int, error) {
	val, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return val, nil
}

func parseBool(key, value string) (bool, error) {
	val, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return val, nil
}

// setValue sets a config field based on key name.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// IMU Hardware
	case "I2C_BUS":
		c.I2CBus = value
	case "IMU_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, perr)
		}
		c.IMUI2CAddr = uint16(addr)

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = parseByte(key, value, 3)
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = parseByte(key, value, 3)
	case "IMU_DLPF_CFG":
		c.IMUDLPFConfig, err = parseByte(key, value, 6)
	case "IMU_SAMPLE_RATE_DIV":
		c.IMUSampleRateDiv, err = parseByte(key, value, 255)

	// Motion detection
	case "MOTION_THRESHOLD":
		c.MotionThreshold, err = parseByte(key, value, 255)
	case "MOTION_DURATION":
		c.MotionDuration, err = parseByte(key, value, 255)

	// Calibration
	case "CALIBRATION_SAMPLES":
		c.CalibrationSamples, err = parseInt(key, value)
	case "CALIBRATION_INTERVAL_MS":
		c.CalibrationIntervalMs, err = parseInt(key, value)
	case "STABILIZE_DELAY_MS":
		c.StabilizeDelayMs, err = parseInt(key, value)

	// Filter / loop
	case "SAMPLE_INTERVAL_MS":
		c.SampleIntervalMs, err = parseInt(key, value)
	case "FILTER_ALPHA":
		alpha, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return fmt.Errorf("invalid FILTER_ALPHA %q: %w", value, perr)
		}
		c.FilterAlpha = alpha
	case "USE_SIMULATED_IMU":
		c.UseSimulatedIMU, err = parseBool(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value

	// Topics
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value
	case "TOPIC_POSE":
		c.TopicPose = value

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)
	case "SERIAL_FORMAT":
		c.SerialFormat = strings.ToLower(value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	// Console / recording / logging
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value)
	case "RECORD_DIR":
		c.RecordDir = value
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "LOG_FILE":
		c.LogFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks ranges that the per-key parsers cannot.
func (c *Config) validate() error {
	if c.CalibrationSamples <= 0 {
		return fmt.Errorf("CALIBRATION_SAMPLES must be positive, got %d", c.CalibrationSamples)
	}
	if c.CalibrationIntervalMs < 0 {
		return fmt.Errorf("CALIBRATION_INTERVAL_MS must not be negative, got %d", c.CalibrationIntervalMs)
	}
	if c.StabilizeDelayMs < 1000 {
		return fmt.Errorf("STABILIZE_DELAY_MS must be at least 1000, got %d", c.StabilizeDelayMs)
	}
	if c.SampleIntervalMs <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL_MS must be positive, got %d", c.SampleIntervalMs)
	}
	if c.FilterAlpha <= 0 || c.FilterAlpha >= 1 {
		return fmt.Errorf("FILTER_ALPHA must be in (0,1), got %g", c.FilterAlpha)
	}
	if c.SerialFormat != "data" && c.SerialFormat != "nmea" {
		return fmt.Errorf("SERIAL_FORMAT must be data or nmea, got %q", c.SerialFormat)
	}
	if c.SerialPort != "" && c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE is required with SERIAL_PORT")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL is required with DISPLAY_ENABLED")
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be positive, got %d", c.ConsoleLogInterval)
	}
	return nil
}

// SampleInterval is the inter-cycle delay of the producer loop.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMs) * time.Millisecond
}

// CalibrationInterval is the delay between calibration samples.
func (c *Config) CalibrationInterval() time.Duration {
	return time.Duration(c.CalibrationIntervalMs) * time.Millisecond
}

// StabilizeDelay is the wait between sensor init and calibration.
func (c *Config) StabilizeDelay() time.Duration {
	return time.Duration(c.StabilizeDelayMs) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once so only the first call loads.
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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("# nothing set\n\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, Defaults())
	test.That(t, cfg.IMUI2CAddr, test.ShouldEqual, uint16(0x68))
	test.That(t, cfg.CalibrationSamples, test.ShouldEqual, 100)
	test.That(t, cfg.FilterAlpha, test.ShouldEqual, 0.96)
	test.That(t, cfg.SampleInterval(), test.ShouldEqual, 10*time.Millisecond)
	test.That(t, cfg.CalibrationInterval(), test.ShouldEqual, 10*time.Millisecond)
	test.That(t, cfg.StabilizeDelay(), test.ShouldEqual, time.Second)
}

func TestParseValues(t *testing.T) {
	in := `
# hardware
I2C_BUS = 1
IMU_I2C_ADDR=0x69
IMU_ACCEL_RANGE=2
IMU_GYRO_RANGE=1
IMU_DLPF_CFG=3
IMU_SAMPLE_RATE_DIV=9
MOTION_THRESHOLD=4
MOTION_DURATION=40
STABILIZE_DELAY_MS=1500
FILTER_ALPHA=0.98
USE_SIMULATED_IMU=true
MQTT_BROKER=tcp://localhost:1883
SERIAL_PORT=/dev/ttyUSB0
SERIAL_FORMAT=NMEA
WEB_SERVER_PORT=8080
DISPLAY_ENABLED=1
LOG_LEVEL=DEBUG
`
	cfg, err := Parse(strings.NewReader(in))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.I2CBus, test.ShouldEqual, "1")
	test.That(t, cfg.IMUI2CAddr, test.ShouldEqual, uint16(0x69))
	test.That(t, cfg.IMUAccelRange, test.ShouldEqual, byte(2))
	test.That(t, cfg.IMUGyroRange, test.ShouldEqual, byte(1))
	test.That(t, cfg.IMUDLPFConfig, test.ShouldEqual, byte(3))
	test.That(t, cfg.IMUSampleRateDiv, test.ShouldEqual, byte(9))
	test.That(t, cfg.MotionThreshold, test.ShouldEqual, byte(4))
	test.That(t, cfg.MotionDuration, test.ShouldEqual, byte(40))
	test.That(t, cfg.StabilizeDelay(), test.ShouldEqual, 1500*time.Millisecond)
	test.That(t, cfg.FilterAlpha, test.ShouldEqual, 0.98)
	test.That(t, cfg.UseSimulatedIMU, test.ShouldBeTrue)
	test.That(t, cfg.MQTTBroker, test.ShouldEqual, "tcp://localhost:1883")
	test.That(t, cfg.SerialFormat, test.ShouldEqual, "nmea")
	test.That(t, cfg.SerialBaudRate, test.ShouldEqual, 115200)
	test.That(t, cfg.WebServerPort, test.ShouldEqual, 8080)
	test.That(t, cfg.DisplayEnabled, test.ShouldBeTrue)
	test.That(t, cfg.LogLevel, test.ShouldEqual, "debug")
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"NOT_A_KEY=1", "unknown config key"},
		{"IMU_ACCEL_RANGE", "invalid config line 1"},
		{"IMU_ACCEL_RANGE=4", "IMU_ACCEL_RANGE must be 0-3"},
		{"IMU_DLPF_CFG=7", "IMU_DLPF_CFG must be 0-6"},
		{"MOTION_THRESHOLD=300", "invalid MOTION_THRESHOLD"},
		{"CALIBRATION_SAMPLES=0", "CALIBRATION_SAMPLES must be positive"},
		{"STABILIZE_DELAY_MS=500", "STABILIZE_DELAY_MS must be at least 1000"},
		{"FILTER_ALPHA=1", "FILTER_ALPHA must be in (0,1)"},
		{"FILTER_ALPHA=abc", "invalid FILTER_ALPHA"},
		{"SERIAL_FORMAT=json", "SERIAL_FORMAT must be data or nmea"},
		{"USE_SIMULATED_IMU=maybe", "invalid USE_SIMULATED_IMU"},
		{"# ok\nSAMPLE_INTERVAL_MS=x", "config line 2"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.in))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.want)
		})
	}
}

func TestGlobal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	test.That(t, err, test.ShouldNotBeNil)

	path := filepath.Join(t.TempDir(), DefaultPath)
	test.That(t, os.WriteFile(path, []byte("TOPIC_POSE=bench/pose\n"), 0o644), test.ShouldBeNil)

	test.That(t, InitGlobal(path), test.ShouldBeNil)
	test.That(t, Get().TopicPose, test.ShouldEqual, "bench/pose")

	// later calls do not reload
	test.That(t, InitGlobal("does-not-exist"), test.ShouldBeNil)
	test.That(t, Get().TopicPose, test.ShouldEqual, "bench/pose")
}

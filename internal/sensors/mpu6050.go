// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tilt_estimator/internal/imu"
	"github.com/relabs-tech/tilt_estimator/internal/motion"
)

// DefaultAddr is the MPU-6050 address with AD0 tied low.
const DefaultAddr = 0x68

// RawReader defines the interface for reading raw IMU data. Reads never
// fail; a broken bus shows up as stale or zero samples.
type RawReader interface {
	ReadRaw() imu.RawSample
}

// StatusReader returns the interrupt status register.
type StatusReader interface {
	ReadStatus() byte
}

// IMU is everything the control loop needs from a sensor.
type IMU interface {
	RawReader
	StatusReader
}

// MPU6050Opts configures the chip at init.
type MPU6050Opts struct {
	Addr uint16
	// Converter carries the full-scale ranges programmed into the chip; the
	// same value must be used to scale the samples.
	Converter     imu.Converter
	DLPF          byte // CONFIG.DLPF_CFG, 0-6
	SampleRateDiv byte
	Motion        motion.Config
}

// DefaultMPU6050Opts is ±2g, ±250°/s, DLPF 0, motion threshold 1 / duration 20.
func DefaultMPU6050Opts() MPU6050Opts {
	return MPU6050Opts{
		Addr:      DefaultAddr,
		Converter: imu.DefaultConverter(),
		Motion:    motion.DefaultConfig(),
	}
}

// MPU6050 is a register-level MPU-6050 driver over I²C.
type MPU6050 struct {
	dev    *i2c.Dev
	opts   MPU6050Opts
	logger *zap.SugaredLogger

	buf        [burstLen]byte
	last       imu.RawSample
	lastStatus byte
	warn       rate.Sometimes

	registers map[string]string
}

// OpenMPU6050 initializes the periph host, opens the named I²C bus ("" for
// the first one) and brings up the sensor. The caller closes the bus.
func OpenMPU6050(busName string, opts MPU6050Opts, logger *zap.SugaredLogger) (*MPU6050, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("imu: periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("imu: open I2C bus %q: %w", busName, err)
	}
	dev, err := NewMPU6050(bus, opts, logger)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	return dev, bus, nil
}

// NewMPU6050 wakes and configures the sensor found on bus.
func NewMPU6050(bus i2c.Bus, opts MPU6050Opts, logger *zap.SugaredLogger) (*MPU6050, error) {
	if opts.Addr == 0 {
		opts.Addr = DefaultAddr
	}
	if opts.DLPF > 6 {
		return nil, fmt.Errorf("imu: DLPF config must be 0-6, got %d", opts.DLPF)
	}
	m := &MPU6050{
		dev:    &i2c.Dev{Bus: bus, Addr: opts.Addr},
		opts:   opts,
		logger: logger,
		warn:   rate.Sometimes{Interval: time.Second},
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MPU6050) init() error {
	id, err := m.readReg(regWhoAmI)
	if err != nil {
		return fmt.Errorf("imu: read WHO_AM_I: %w", err)
	}
	if id != whoAmIMPU6050 {
		// clones answer 0x70/0x72/0x98 and behave the same for our purposes
		m.logger.Warnf("imu: unexpected WHO_AM_I 0x%02X (expected 0x%02X), continuing", id, whoAmIMPU6050)
	} else {
		m.logger.Infof("imu: MPU-6050 found at 0x%02X", m.opts.Addr)
	}

	conv := m.opts.Converter
	writes := []struct {
		reg, val byte
		what     string
	}{
		{regPwrMgmt1, pwrClockPLLGyroX, "wake"},
		{regSmplrtDiv, m.opts.SampleRateDiv, "sample rate divider"},
		{regConfig, m.opts.DLPF, "DLPF config"},
		{regGyroConfig, byte(conv.Gyro&0x03) << 3, "gyro range"},
		{regAccelConfig, byte(conv.Accel&0x03)<<3 | accelHPF5Hz, "accel range"},
		{regMotThr, m.opts.Motion.Threshold, "motion threshold"},
		{regMotDur, m.opts.Motion.Duration, "motion duration"},
		{regIntPinCfg, intPinLatch, "interrupt pin config"},
		{regIntEnable, intEnableMotion, "interrupt enable"},
	}
	for _, w := range writes {
		if err := m.writeReg(w.reg, w.val); err != nil {
			return fmt.Errorf("imu: set %s: %w", w.what, err)
		}
	}
	m.logger.Infof("imu: accelerometer range set to %s", conv.Accel)
	m.logger.Infof("imu: gyroscope range set to %s", conv.Gyro)

	// Gyro output rate is 8kHz with DLPF 0, 1kHz otherwise.
	internalRate := 1000
	if m.opts.DLPF == 0 {
		internalRate = 8000
	}
	m.logger.Infof("imu: DLPF %d, sample rate divider %d (output rate: %d Hz)",
		m.opts.DLPF, m.opts.SampleRateDiv, internalRate/(1+int(m.opts.SampleRateDiv)))
	m.logger.Infof("imu: motion detection threshold=%d duration=%dms",
		m.opts.Motion.Threshold, m.opts.Motion.Duration)

	m.registers = make(map[string]string, len(snapshotRegisters))
	for _, reg := range snapshotRegisters {
		v, err := m.readReg(reg)
		if err != nil {
			return fmt.Errorf("imu: read back register %s: %w", regKey(reg), err)
		}
		m.registers[regKey(reg)] = fmt.Sprintf("0x%02X", v)
	}
	return nil
}

// Converter returns the unit converter matching the configured ranges.
func (m *MPU6050) Converter() imu.Converter {
	return m.opts.Converter
}

// Registers returns the configuration registers read back after init,
// keyed by hex address.
func (m *MPU6050) Registers() map[string]string {
	out := make(map[string]string, len(m.registers))
	for k, v := range m.registers {
		out[k] = v
	}
	return out
}

// ReadRaw burst-reads accel, temperature and gyro. On a bus error it logs
// (at most once per second) and returns the previous sample.
func (m *MPU6050) ReadRaw() imu.RawSample {
	if err := m.dev.Tx([]byte{regAccelXoutH}, m.buf[:]); err != nil {
		m.warn.Do(func() {
			m.logger.Warnf("imu: burst read failed, reusing last sample: %v", err)
		})
		return m.last
	}
	b := m.buf[:]
	m.last = imu.RawSample{
		Ax:   int16(binary.BigEndian.Uint16(b[0:2])),
		Ay:   int16(binary.BigEndian.Uint16(b[2:4])),
		Az:   int16(binary.BigEndian.Uint16(b[4:6])),
		Temp: int16(binary.BigEndian.Uint16(b[6:8])),
		Gx:   int16(binary.BigEndian.Uint16(b[8:10])),
		Gy:   int16(binary.BigEndian.Uint16(b[10:12])),
		Gz:   int16(binary.BigEndian.Uint16(b[12:14])),
	}
	return m.last
}

// ReadStatus reads INT_STATUS, which also clears the latched interrupt.
func (m *MPU6050) ReadStatus() byte {
	v, err := m.readReg(regIntStatus)
	if err != nil {
		m.warn.Do(func() {
			m.logger.Warnf("imu: status read failed, reusing last value: %v", err)
		})
		return m.lastStatus
	}
	m.lastStatus = v
	return v
}

func (m *MPU6050) readReg(reg byte) (byte, error) {
	var r [1]byte
	if err := m.dev.Tx([]byte{reg}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (m *MPU6050) writeReg(reg, val byte) error {
	return m.dev.Tx([]byte{reg, val}, nil)
}

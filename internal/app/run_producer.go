// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tilt_estimator/internal/calibration"
	"github.com/relabs-tech/tilt_estimator/internal/config"
	"github.com/relabs-tech/tilt_estimator/internal/imu"
	"github.com/relabs-tech/tilt_estimator/internal/motion"
	"github.com/relabs-tech/tilt_estimator/internal/sensors"
	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// converterFromConfig maps the configured AFS_SEL / FS_SEL codes to the
// converter that both programs the chip and scales its output.
func converterFromConfig(cfg *config.Config) imu.Converter {
	return imu.Converter{
		Accel: imu.AccelRange(cfg.IMUAccelRange),
		Gyro:  imu.GyroRange(cfg.IMUGyroRange),
	}
}

func producerOptsFromConfig(cfg *config.Config) ProducerOpts {
	return ProducerOpts{
		StabilizeDelay: cfg.StabilizeDelay(),
		Calibration: calibration.Options{
			Samples:  cfg.CalibrationSamples,
			Interval: cfg.CalibrationInterval(),
		},
		SampleInterval: cfg.SampleInterval(),
		Alpha:          cfg.FilterAlpha,
	}
}

// sensorHandle is an opened sensor plus what it holds open.
type sensorHandle struct {
	imu       sensors.IMU
	conv      imu.Converter
	registers map[string]string
	bus       i2c.BusCloser // nil for the simulated sensor
}

func openSensor(cfg *config.Config, clk clock.Clock, logger *zap.SugaredLogger) (*sensorHandle, error) {
	conv := converterFromConfig(cfg)
	if cfg.UseSimulatedIMU {
		logger.Info("imu: using simulated MPU-6050")
		return &sensorHandle{
			imu:  sensors.NewSimulatedIMU(clk, conv, sensors.DefaultSimOpts()),
			conv: conv,
		}, nil
	}

	opts := sensors.MPU6050Opts{
		Addr:          cfg.IMUI2CAddr,
		Converter:     conv,
		DLPF:          cfg.IMUDLPFConfig,
		SampleRateDiv: cfg.IMUSampleRateDiv,
		Motion:        motion.Config{Threshold: cfg.MotionThreshold, Duration: cfg.MotionDuration},
	}
	dev, bus, err := sensors.OpenMPU6050(cfg.I2CBus, opts, logger)
	if err != nil {
		return nil, err
	}
	return &sensorHandle{imu: dev, conv: dev.Converter(), registers: dev.Registers(), bus: bus}, nil
}

// buildSinks registers every sink the configuration enables. The returned
// web sink is nil when the web server is disabled.
func buildSinks(cfg *config.Config, clk clock.Clock, sh *sensorHandle, logger *zap.SugaredLogger) (*telemetry.Fanout, *WebSink, error) {
	sinks := telemetry.NewFanout()
	fail := func(err error) (*telemetry.Fanout, *WebSink, error) {
		return nil, nil, multierr.Append(err, sinks.Close())
	}

	sinks.Add("console", NewConsoleSink(clk, time.Duration(cfg.ConsoleLogInterval)*time.Millisecond, logger))

	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
		if err != nil {
			return fail(err)
		}
		s := NewMQTTSink(client, cfg.TopicTelemetry, cfg.TopicPose)
		s.disconnect = func() { client.Disconnect(250) }
		sinks.Add("mqtt", s)
		logger.Infof("producer: publishing to %s (%s, %s)", cfg.MQTTBroker, cfg.TopicTelemetry, cfg.TopicPose)
	}

	if cfg.SerialPort != "" {
		s, err := openSerialSink(cfg.SerialPort, cfg.SerialBaudRate, cfg.SerialFormat)
		if err != nil {
			return fail(err)
		}
		sinks.Add("serial", s)
		logger.Infof("producer: writing %s lines to %s at %d baud", cfg.SerialFormat, cfg.SerialPort, cfg.SerialBaudRate)
	}

	if cfg.RecordDir != "" {
		rec, path, err := telemetry.CreateCSVRecording(cfg.RecordDir, clk)
		if err != nil {
			return fail(err)
		}
		sinks.Add("csv", rec)
		logger.Infof("producer: recording to %s", path)
	}

	if cfg.DisplayEnabled {
		bus := sh.bus
		if bus == nil {
			if _, err := host.Init(); err != nil {
				return fail(fmt.Errorf("display: periph host init: %w", err))
			}
			b, err := i2creg.Open(cfg.I2CBus)
			if err != nil {
				return fail(fmt.Errorf("display: open I2C bus: %w", err))
			}
			sh.bus = b
			bus = b
		}
		d, err := openDisplay(bus, clk, time.Duration(cfg.DisplayUpdateInterval)*time.Millisecond)
		if err != nil {
			return fail(err)
		}
		sinks.Add("display", d)
		logger.Info("display: initialized")
	}

	var web *WebSink
	if cfg.WebServerPort != 0 {
		web = NewWebSink(sh.registers, logger)
		sinks.Add("web", web)
	}
	return sinks, web, nil
}

// RunIMUProducer brings up the sensor and sinks from cfg and runs the
// control loop until ctx is done.
func RunIMUProducer(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (err error) {
	logger.Info("producer: starting tilt estimator")
	clk := clock.New()

	sh, err := openSensor(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer func() {
		if sh.bus != nil {
			err = multierr.Append(err, sh.bus.Close())
		}
	}()

	sinks, web, err := buildSinks(cfg, clk, sh, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, sinks.Close())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if web != nil {
		go func() {
			if err := web.Serve(ctx, cfg.WebServerPort); err != nil {
				logger.Errorf("web: %v", err)
			}
		}()
	}

	p := NewProducer(sh.imu, sh.conv, clk, nil, sinks, producerOptsFromConfig(cfg), logger)
	return p.Run(ctx)
}

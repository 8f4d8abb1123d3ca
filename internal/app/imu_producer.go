// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/tilt_estimator/internal/calibration"
	"github.com/relabs-tech/tilt_estimator/internal/imu"
	"github.com/relabs-tech/tilt_estimator/internal/motion"
	"github.com/relabs-tech/tilt_estimator/internal/orientation"
	"github.com/relabs-tech/tilt_estimator/internal/sensors"
	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
	"github.com/relabs-tech/tilt_estimator/internal/timing"
)

// minCalibrationConfidence is the stillness confidence below which the
// producer warns that the offsets are probably skewed.
const minCalibrationConfidence = 0.5

// ProducerOpts configures the control loop.
type ProducerOpts struct {
	StabilizeDelay time.Duration
	Calibration    calibration.Options
	SampleInterval time.Duration
	Alpha          float64
}

// Producer owns the sensor, the calibration offsets and the estimator, and
// runs acquisition, conversion, fusion, classification and emission in a
// single goroutine.
type Producer struct {
	sensor  sensors.IMU
	conv    imu.Converter
	clk     clock.Clock
	counter timing.Counter
	sink    telemetry.Sink
	logger  *zap.SugaredLogger
	opts    ProducerOpts

	offsets    calibration.Offsets
	calibrated bool
	est        *orientation.Estimator
	timing     timing.State
}

// NewProducer wires a producer. counter may be nil, in which case a
// millisecond counter is derived from clk.
func NewProducer(
	sensor sensors.IMU,
	conv imu.Converter,
	clk clock.Clock,
	counter timing.Counter,
	sink telemetry.Sink,
	opts ProducerOpts,
	logger *zap.SugaredLogger,
) *Producer {
	if counter == nil {
		counter = timing.NewClockCounter(clk)
	}
	if opts.Alpha == 0 {
		opts.Alpha = orientation.DefaultAlpha
	}
	return &Producer{
		sensor:  sensor,
		conv:    conv,
		clk:     clk,
		counter: counter,
		sink:    sink,
		logger:  logger,
		opts:    opts,
		est:     orientation.NewEstimator(opts.Alpha),
	}
}

// Calibrate waits for the sensor to settle and runs the bias averaging pass.
// It must run once before the first Step.
func (p *Producer) Calibrate() calibration.Report {
	delay := p.opts.StabilizeDelay
	p.logger.Infof("producer: waiting %s for the sensor to stabilize", delay)
	p.clk.Sleep(delay)

	p.logger.Infof("producer: calibrating, keep the sensor flat and still (Z axis up)")
	off, rep := calibration.CalibrateWithReport(p.sensor, p.conv, p.clk, p.opts.Calibration)
	p.offsets = off
	p.calibrated = true

	p.logger.Infof("producer: calibration complete: accel offset (%.4f, %.4f, %.4f) g, gyro offset (%.3f, %.3f, %.3f) deg/s, confidence %.2f",
		off.Accel.X, off.Accel.Y, off.Accel.Z, off.Gyro.X, off.Gyro.Y, off.Gyro.Z, rep.Confidence)
	if !rep.IsStill(minCalibrationConfidence) {
		p.logger.Warnf("producer: sensor moved during calibration (confidence %.2f), offsets may be off", rep.Confidence)
	}
	return rep
}

// Offsets returns the calibration offsets in use.
func (p *Producer) Offsets() calibration.Offsets {
	return p.offsets
}

// State returns the estimator state after the last Step.
func (p *Producer) State() orientation.State {
	return p.est.State()
}

// Step runs one cycle and returns the record it produced. The record is not
// emitted; Run does that.
func (p *Producer) Step() telemetry.Record {
	raw := p.sensor.ReadRaw()
	sample := p.offsets.Apply(p.conv.Convert(raw))

	dt := p.timing.Tick(p.counter.Millis())
	st := p.est.Update(sample, dt)

	moving := motion.Classify(p.sensor.ReadStatus())
	return telemetry.NewRecord(sample, st, moving)
}

// Run calibrates if needed, then loops until ctx is done. Sink errors are
// logged and never stop the loop.
func (p *Producer) Run(ctx context.Context) error {
	if !p.calibrated {
		p.Calibrate()
	}
	p.logger.Infof("producer: starting loop, interval %s, alpha %.2f", p.opts.SampleInterval, p.est.Alpha())

	for {
		if err := ctx.Err(); err != nil {
			p.logger.Info("producer: shutting down")
			return nil
		}

		rec := p.Step()
		if err := p.sink.Emit(rec); err != nil {
			p.logger.Warnf("producer: emit error: %v", err)
		}

		select {
		case <-ctx.Done():
		case <-p.clk.After(p.opts.SampleInterval):
		}
	}
}

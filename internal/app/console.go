// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// formatTick is the one-line summary used by the console log and the
// monitors.
func formatTick(r telemetry.Record) string {
	motion := "still"
	if r.MotionDetected {
		motion = "MOTION"
	}
	return fmt.Sprintf("ROLL=%6.2f  PITCH=%6.2f  YAW=%7.2f | accel ax=%5.2f ay=%5.2f az=%5.2f | gyro gx=%7.2f gy=%7.2f gz=%7.2f | T=%5.2fC | %s",
		r.Roll, r.Pitch, r.Yaw,
		r.AccelX, r.AccelY, r.AccelZ,
		r.GyroX, r.GyroY, r.GyroZ,
		r.Temperature, motion,
	)
}

// ConsoleSink logs a record summary at most once per interval.
type ConsoleSink struct {
	clk      clock.Clock
	interval time.Duration
	logger   *zap.SugaredLogger
	last     time.Time
	logged   bool
}

// NewConsoleSink logs through logger every interval.
func NewConsoleSink(clk clock.Clock, interval time.Duration, logger *zap.SugaredLogger) *ConsoleSink {
	return &ConsoleSink{clk: clk, interval: interval, logger: logger}
}

// Emit implements telemetry.Sink.
func (c *ConsoleSink) Emit(r telemetry.Record) error {
	now := c.clk.Now()
	if c.logged && now.Sub(c.last) < c.interval {
		return nil
	}
	c.last = now
	c.logged = true
	c.logger.Infof("tick: %s", formatTick(r))
	return nil
}

// Close implements telemetry.Sink.
func (c *ConsoleSink) Close() error {
	return nil
}

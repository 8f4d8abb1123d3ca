// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/tilt_estimator/internal/calibration"
	"github.com/relabs-tech/tilt_estimator/internal/config"
)

// CalibrationResult is what the calibration tool prints.
type CalibrationResult struct {
	Offsets calibration.Offsets `json:"offsets"`
	Report  calibration.Report  `json:"report"`
	Still   bool                `json:"still"`
}

// RunCalibration opens the sensor, runs only the stabilisation delay and the
// averaging pass, and writes the offsets and report to out as JSON. Nothing
// is persisted.
func RunCalibration(cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) (err error) {
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

	p := NewProducer(sh.imu, sh.conv, clk, nil, nil, producerOptsFromConfig(cfg), logger)
	rep := p.Calibrate()
	return writeCalibration(out, p.Offsets(), rep)
}

func writeCalibration(out io.Writer, off calibration.Offsets, rep calibration.Report) error {
	res := CalibrationResult{Offsets: off, Report: rep, Still: rep.IsStill(minCalibrationConfidence)}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("calibration: write result: %w", err)
	}
	return nil
}

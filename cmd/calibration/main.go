// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Runs only the startup bias calibration of the MPU-6050 and prints the
// offsets and a stillness report as JSON.
//
// Run:
//
//	go run ./cmd/calibration
//
// Notes / assumptions:
//   - The board must lie flat and still with the Z axis up; Z keeps +1g.
//   - Offsets are in physical units (g, deg/s) for the configured ranges.
//   - Nothing is written to disk; the producer recalibrates on every start.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relabs-tech/tilt_estimator/internal/app"
	"github.com/relabs-tech/tilt_estimator/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	flag.Parse()

	cfg, logger, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fmt.Fprintln(os.Stderr, "=== MPU-6050 bias calibration ===")
	fmt.Fprintln(os.Stderr, "Place the sensor on a flat, stable surface and do not touch it.")

	if err := app.RunCalibration(cfg, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

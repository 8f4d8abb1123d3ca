// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// serial_monitor reads DATA lines (or $PIMUA sentences) from a device on a
// serial port, prints them and optionally records and republishes them.
//
// Run:
//
//	go run ./cmd/serial_monitor -config tilt_config.txt -port /dev/ttyUSB0
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/tilt_estimator/internal/app"
	"github.com/relabs-tech/tilt_estimator/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	port := flag.String("port", "", "serial port (overrides SERIAL_PORT)")
	record := flag.String("record", "", "CSV recording directory (overrides RECORD_DIR)")
	flag.Parse()

	cfg, logger, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *port != "" {
		cfg.SerialPort = *port
	}
	if *record != "" {
		cfg.RecordDir = *record
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunSerialMonitor(ctx, cfg, os.Stdout, logger); err != nil {
		logger.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/tilt_estimator/internal/config"
	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// MonitorStats counts what a monitor session saw.
type MonitorStats struct {
	Records int
	Skipped int // non-telemetry chatter
	Errors  int // malformed telemetry lines
}

// parseTelemetryLine accepts DATA lines and $PIMUA sentences. ok is false
// for any other line.
func parseTelemetryLine(line string) (rec telemetry.Record, ok bool, err error) {
	switch {
	case strings.HasPrefix(line, telemetry.DataPrefix):
		rec, err = telemetry.ParseDataLine(line)
		return rec, true, err
	case strings.HasPrefix(line, "$P"+telemetry.TypeIMUA):
		rec, err = telemetry.ParseNMEA(line)
		return rec, true, err
	default:
		return telemetry.Record{}, false, nil
	}
}

// monitorLines reads lines from r, prints each parsed record to out and
// forwards it to sink until r ends or ctx is done.
func monitorLines(ctx context.Context, r io.Reader, sink telemetry.Sink, out io.Writer, logger *zap.SugaredLogger) (MonitorStats, error) {
	var st MonitorStats
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return st, nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, ok, err := parseTelemetryLine(line)
		if !ok {
			st.Skipped++
			logger.Debugf("monitor: device: %s", line)
			continue
		}
		if err != nil {
			st.Errors++
			logger.Warnf("monitor: %v", err)
			continue
		}

		st.Records++
		fmt.Fprintln(out, formatTick(rec))
		if err := sink.Emit(rec); err != nil {
			logger.Warnf("monitor: emit error: %v", err)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return st, fmt.Errorf("monitor: read: %w", err)
	}
	return st, nil
}

// RunSerialMonitor reads telemetry from a device on SERIAL_PORT (such as a
// microcontroller running the same filter), prints it and optionally records
// it to CSV and republishes it over MQTT.
func RunSerialMonitor(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) (err error) {
	if cfg.SerialPort == "" {
		return fmt.Errorf("monitor: SERIAL_PORT is required")
	}

	sinks := telemetry.NewFanout()
	defer func() {
		err = multierr.Append(err, sinks.Close())
	}()

	if cfg.RecordDir != "" {
		rec, path, err := telemetry.CreateCSVRecording(cfg.RecordDir, clock.New())
		if err != nil {
			return err
		}
		sinks.Add("csv", rec)
		logger.Infof("monitor: recording to %s", path)
	}

	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDMonitor)
		if err != nil {
			return err
		}
		s := NewMQTTSink(client, cfg.TopicTelemetry, cfg.TopicPose)
		s.disconnect = func() { client.Disconnect(250) }
		sinks.Add("mqtt", s)
		logger.Infof("monitor: republishing to %s", cfg.MQTTBroker)
	}

	port, err := openSerial(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	defer port.Close()
	logger.Infof("monitor: serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)

	// a blocked read only returns once the port is closed
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	st, err := monitorLines(ctx, port, sinks, out, logger)
	logger.Infof("monitor: %d records, %d other lines, %d malformed", st.Records, st.Skipped, st.Errors)
	return err
}

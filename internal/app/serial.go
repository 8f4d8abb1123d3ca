// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// openSerial opens an 8N1 serial port.
func openSerial(portName string, baud int) (io.ReadWriteCloser, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return port, nil
}

// openSerialSink writes DATA lines or NMEA sentences to a serial port.
func openSerialSink(portName string, baud int, format string) (*telemetry.LineWriter, error) {
	f, err := telemetry.ParseLineFormat(format)
	if err != nil {
		return nil, err
	}
	port, err := openSerial(portName, baud)
	if err != nil {
		return nil, err
	}
	return telemetry.NewLineWriter(port, f), nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// DataPrefix starts every telemetry line on the serial link. Lines without
// it are debug chatter and are skipped by readers.
const DataPrefix = "DATA:"

const dataFields = 10

// FormatDataLine renders
//
//	DATA:ax,ay,az,gx,gy,gz,roll,pitch,temp,motion
//
// with two decimals and motion as 0 or 1. No line terminator is added.
func FormatDataLine(r Record) string {
	var b strings.Builder
	b.Grow(96)
	b.WriteString(DataPrefix)
	for _, v := range []float64{
		r.AccelX, r.AccelY, r.AccelZ,
		r.GyroX, r.GyroY, r.GyroZ,
		r.Roll, r.Pitch, r.Temperature,
	} {
		b.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
		b.WriteByte(',')
	}
	b.WriteString(motionDigit(r.MotionDetected))
	return b.String()
}

// ParseDataLine is the inverse of FormatDataLine. Surrounding whitespace is
// ignored and the motion field is read as a number, non-zero meaning motion.
// Yaw is not on the line and stays zero.
func ParseDataLine(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, DataPrefix) {
		return Record{}, fmt.Errorf("telemetry: not a data line: %q", line)
	}
	parts := strings.Split(line[len(DataPrefix):], ",")
	if len(parts) != dataFields {
		return Record{}, fmt.Errorf("telemetry: data line has %d fields, want %d", len(parts), dataFields)
	}

	var vals [dataFields]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Record{}, fmt.Errorf("telemetry: data field %d: %w", i, err)
		}
		vals[i] = v
	}
	return Record{
		AccelX:         vals[0],
		AccelY:         vals[1],
		AccelZ:         vals[2],
		GyroX:          vals[3],
		GyroY:          vals[4],
		GyroZ:          vals[5],
		Roll:           vals[6],
		Pitch:          vals[7],
		Temperature:    vals[8],
		MotionDetected: vals[9] != 0,
	}, nil
}

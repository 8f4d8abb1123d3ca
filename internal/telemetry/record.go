// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry holds the per-cycle emission record, its wire encodings
// and the sinks that carry it off the device.
package telemetry

import (
	"math"

	"github.com/relabs-tech/tilt_estimator/internal/imu"
	"github.com/relabs-tech/tilt_estimator/internal/orientation"
)

// Record is produced once per cycle. Field order matches the DATA line and
// must not change; downstream parsers index into it.
type Record struct {
	AccelX         float64 `json:"accelX"`
	AccelY         float64 `json:"accelY"`
	AccelZ         float64 `json:"accelZ"`
	GyroX          float64 `json:"gyroX"`
	GyroY          float64 `json:"gyroY"`
	GyroZ          float64 `json:"gyroZ"`
	Roll           float64 `json:"roll"`
	Pitch          float64 `json:"pitch"`
	Temperature    float64 `json:"temperature"`
	MotionDetected bool    `json:"motionDetected"`

	// Yaw travels only in JSON and NMEA.
	Yaw float64 `json:"yaw"`
}

// NewRecord builds the record for one cycle from the calibrated sample, the
// estimator output and the motion flag.
func NewRecord(s imu.Sample, st orientation.State, moving bool) Record {
	return Record{
		AccelX:         s.Accel.X,
		AccelY:         s.Accel.Y,
		AccelZ:         s.Accel.Z,
		GyroX:          s.Gyro.X,
		GyroY:          s.Gyro.Y,
		GyroZ:          s.Gyro.Z,
		Roll:           st.Roll,
		Pitch:          st.Pitch,
		Temperature:    s.TempC,
		MotionDetected: moving,
		Yaw:            st.Yaw,
	}
}

// Pose returns the orientation part of the record.
func (r Record) Pose() orientation.Pose {
	return orientation.Pose{Roll: r.Roll, Pitch: r.Pitch, Yaw: r.Yaw}
}

// Rounded returns a copy with every float cut to two decimals, the precision
// all encodings publish.
func (r Record) Rounded() Record {
	out := r
	for _, f := range []*float64{
		&out.AccelX, &out.AccelY, &out.AccelZ,
		&out.GyroX, &out.GyroY, &out.GyroZ,
		&out.Roll, &out.Pitch, &out.Temperature, &out.Yaw,
	} {
		*f = round2(*f)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func motionDigit(m bool) string {
	if m {
		return "1"
	}
	return "0"
}

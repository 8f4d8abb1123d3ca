// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "github.com/golang/geo/r3"

// RawSample represents a single raw MPU-6050 burst read, in register counts.
type RawSample struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Temp int16 `json:"temp"`
}

// Sample is a RawSample scaled to physical units.
// Accel is in g, Gyro in deg/s.
type Sample struct {
	Accel r3.Vector
	Gyro  r3.Vector
	TempC float64
}

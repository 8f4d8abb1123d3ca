// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Sensitivities from the MPU-6050 register map. Each divisor belongs to the
// full-scale range next to it; the driver programs the chip from the same
// AccelRange/GyroRange values, so both sides change together.
const (
	AccelLSBPerG2G  = 16384.0
	AccelLSBPerG4G  = 8192.0
	AccelLSBPerG8G  = 4096.0
	AccelLSBPerG16G = 2048.0

	GyroLSBPerDPS250  = 131.0
	GyroLSBPerDPS500  = 65.5
	GyroLSBPerDPS1000 = 32.8
	GyroLSBPerDPS2000 = 16.4

	TempLSBPerDegC = 340.0
	TempOffsetC    = 36.53
)

// AccelRange is the accelerometer full-scale selection (AFS_SEL).
type AccelRange byte

const (
	AccelRange2G AccelRange = iota
	AccelRange4G
	AccelRange8G
	AccelRange16G
)

// LSBPerG returns the count-per-g divisor for the range.
func (r AccelRange) LSBPerG() float64 {
	switch r {
	case AccelRange4G:
		return AccelLSBPerG4G
	case AccelRange8G:
		return AccelLSBPerG8G
	case AccelRange16G:
		return AccelLSBPerG16G
	default:
		return AccelLSBPerG2G
	}
}

// FullScaleG returns the range limit in g (2, 4, 8 or 16).
func (r AccelRange) FullScaleG() int {
	return 2 << (r & 0x03)
}

func (r AccelRange) String() string {
	return fmt.Sprintf("±%dg", r.FullScaleG())
}

// GyroRange is the gyroscope full-scale selection (FS_SEL).
type GyroRange byte

const (
	GyroRange250 GyroRange = iota
	GyroRange500
	GyroRange1000
	GyroRange2000
)

// LSBPerDPS returns the count-per-deg/s divisor for the range.
func (r GyroRange) LSBPerDPS() float64 {
	switch r {
	case GyroRange500:
		return GyroLSBPerDPS500
	case GyroRange1000:
		return GyroLSBPerDPS1000
	case GyroRange2000:
		return GyroLSBPerDPS2000
	default:
		return GyroLSBPerDPS250
	}
}

// FullScaleDPS returns the range limit in deg/s.
func (r GyroRange) FullScaleDPS() int {
	return 250 << (r & 0x03)
}

func (r GyroRange) String() string {
	return fmt.Sprintf("±%d°/s", r.FullScaleDPS())
}

// Converter maps raw counts to physical units for one range configuration.
type Converter struct {
	Accel AccelRange
	Gyro  GyroRange
}

// DefaultConverter is the ±2g / ±250°/s configuration.
func DefaultConverter() Converter {
	return Converter{Accel: AccelRange2G, Gyro: GyroRange250}
}

// AccelG converts one accelerometer axis to g.
func (c Converter) AccelG(raw int16) float64 {
	return float64(raw) / c.Accel.LSBPerG()
}

// GyroDPS converts one gyroscope axis to deg/s.
func (c Converter) GyroDPS(raw int16) float64 {
	return float64(raw) / c.Gyro.LSBPerDPS()
}

// TemperatureC converts the die temperature register to °C.
func TemperatureC(raw int16) float64 {
	return float64(raw)/TempLSBPerDegC + TempOffsetC
}

// Convert scales a full raw sample.
func (c Converter) Convert(raw RawSample) Sample {
	return Sample{
		Accel: r3.Vector{X: c.AccelG(raw.Ax), Y: c.AccelG(raw.Ay), Z: c.AccelG(raw.Az)},
		Gyro:  r3.Vector{X: c.GyroDPS(raw.Gx), Y: c.GyroDPS(raw.Gy), Z: c.GyroDPS(raw.Gz)},
		TempC: TemperatureC(raw.Temp),
	}
}

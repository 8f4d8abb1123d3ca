// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration computes per-axis bias offsets from a short static
// averaging pass taken at startup.
//
// Notes / assumptions:
//   - The device must be still with its Z axis pointing up. The Z accel offset
//     is stored as mean-1.0 so a resting body keeps reading +1g after
//     correction.
//   - Calibration runs once, after sensor init and a stabilisation delay,
//     before the filter starts. Running it again mid-flight invalidates the
//     filter state; there is no API for that.
//   - The acquisition source cannot report failures. A dead bus produces
//     stale or zero samples and therefore degraded offsets without an error.
package calibration

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"

	"github.com/relabs-tech/tilt_estimator/internal/imu"
)

const (
	DefaultSamples  = 100
	DefaultInterval = 10 * time.Millisecond

	// MinStabilizeDelay is the settle time required between sensor init and
	// the first calibration read.
	MinStabilizeDelay = time.Second

	// Stillness heuristics, on the mean of the three accel stddevs (g) and
	// the three gyro stddevs (deg/s).
	accelStdGood = 0.005
	accelStdBad  = 0.05
	gyroStdGood  = 0.1
	gyroStdBad   = 2.0

	// Confidence floor (never hard zero)
	confFloor = 0.05
)

// Source yields raw samples; it never fails.
type Source interface {
	ReadRaw() imu.RawSample
}

// Sleeper waits for a fixed duration. clock.Clock satisfies it.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Options controls the averaging pass. Zero values take the defaults.
type Options struct {
	Samples  int
	Interval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}

// Offsets are the per-axis biases in physical units (g and deg/s).
// The value type has no setters; once computed it does not change.
type Offsets struct {
	Accel r3.Vector `json:"accel"`
	Gyro  r3.Vector `json:"gyro"`
}

// Apply subtracts the offsets from a converted sample.
func (o Offsets) Apply(s imu.Sample) imu.Sample {
	return imu.Sample{
		Accel: s.Accel.Sub(o.Accel),
		Gyro:  s.Gyro.Sub(o.Gyro),
		TempC: s.TempC,
	}
}

// Report describes how still the device was during calibration. It never
// feeds back into the offsets.
type Report struct {
	Samples     int       `json:"samples"`
	DurationSec float64   `json:"duration_sec"`
	AccelMean   r3.Vector `json:"accel_mean"`
	AccelStdDev r3.Vector `json:"accel_stddev"`
	GyroMean    r3.Vector `json:"gyro_mean"`
	GyroStdDev  r3.Vector `json:"gyro_stddev"`
	Confidence  float64   `json:"confidence"`
}

// Calibrate runs the averaging pass and returns the offsets.
func Calibrate(src Source, conv imu.Converter, sleeper Sleeper, opts Options) Offsets {
	off, _ := CalibrateWithReport(src, conv, sleeper, opts)
	return off
}

// CalibrateWithReport runs the averaging pass and also returns stillness
// statistics.
func CalibrateWithReport(src Source, conv imu.Converter, sleeper Sleeper, opts Options) (Offsets, Report) {
	opts = opts.withDefaults()

	channels := make([][]float64, 6)
	for i := range channels {
		channels[i] = make([]float64, 0, opts.Samples)
	}

	for i := 0; i < opts.Samples; i++ {
		s := conv.Convert(src.ReadRaw())
		channels[0] = append(channels[0], s.Accel.X)
		channels[1] = append(channels[1], s.Accel.Y)
		channels[2] = append(channels[2], s.Accel.Z)
		channels[3] = append(channels[3], s.Gyro.X)
		channels[4] = append(channels[4], s.Gyro.Y)
		channels[5] = append(channels[5], s.Gyro.Z)
		sleeper.Sleep(opts.Interval)
	}

	mean := make([]float64, 6)
	std := make([]float64, 6)
	for i, ch := range channels {
		// Samples > 0 so neither call can fail on empty input.
		mean[i], _ = stats.Mean(ch)
		std[i], _ = stats.StandardDeviationPopulation(ch)
	}

	accelMean := r3.Vector{X: mean[0], Y: mean[1], Z: mean[2]}
	gyroMean := r3.Vector{X: mean[3], Y: mean[4], Z: mean[5]}

	off := Offsets{
		// Z is the gravity axis at rest: keep +1g in the corrected reading
		Accel: r3.Vector{X: accelMean.X, Y: accelMean.Y, Z: accelMean.Z - 1.0},
		Gyro:  gyroMean,
	}

	rep := Report{
		Samples:     opts.Samples,
		DurationSec: (time.Duration(opts.Samples) * opts.Interval).Seconds(),
		AccelMean:   accelMean,
		AccelStdDev: r3.Vector{X: std[0], Y: std[1], Z: std[2]},
		GyroMean:    gyroMean,
		GyroStdDev:  r3.Vector{X: std[3], Y: std[4], Z: std[5]},
	}
	rep.Confidence = stillnessConfidence(rep.AccelStdDev, rep.GyroStdDev)
	return off, rep
}

// IsStill reports whether the report's confidence clears threshold.
func (r Report) IsStill(threshold float64) bool {
	return r.Confidence >= threshold
}

func stillnessConfidence(accelStd, gyroStd r3.Vector) float64 {
	a := ramp((accelStd.X+accelStd.Y+accelStd.Z)/3, accelStdGood, accelStdBad)
	g := ramp((gyroStd.X+gyroStd.Y+gyroStd.Z)/3, gyroStdGood, gyroStdBad)
	return math.Max(math.Min(a, g), confFloor)
}

// ramp maps s<=good to 1 and s>=bad to confFloor, linearly in between.
func ramp(s, good, bad float64) float64 {
	switch {
	case s <= good:
		return 1.0
	case s >= bad:
		return confFloor
	default:
		t := (s - good) / (bad - good)
		return 1.0 - (1.0-confFloor)*t
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"github.com/relabs-tech/tilt_estimator/internal/imu"
)

// DefaultAlpha weights gyro integration against accelerometer tilt, 96:4.
const DefaultAlpha = 0.96

// State is the filter output plus its accumulators, in degrees.
type State struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`

	RollFilter  float64 `json:"roll_filter"`
	PitchFilter float64 `json:"pitch_filter"`
}

// Pose returns the externally reported angles.
func (s State) Pose() Pose {
	return Pose{Roll: s.Roll, Pitch: s.Pitch, Yaw: s.Yaw}
}

// Estimator is a first-order complementary filter for roll and pitch with
// plain gyro integration for yaw. It is not safe for concurrent use; the
// control loop owns it.
//
// Yaw has no absolute reference and drifts with the gyro Z bias. That is
// expected and is reported as-is.
type Estimator struct {
	alpha float64
	state State
}

// NewEstimator returns an estimator starting level at zero heading.
func NewEstimator(alpha float64) *Estimator {
	return &Estimator{alpha: alpha}
}

// Alpha returns the blend coefficient.
func (e *Estimator) Alpha() float64 {
	return e.alpha
}

// State returns a copy of the current state.
func (e *Estimator) State() State {
	return e.state
}

// Update folds one bias-corrected sample into the filter. deltaTime is in
// seconds; zero is a valid (empty) integration step.
func (e *Estimator) Update(s imu.Sample, deltaTime float64) State {
	accelRoll, accelPitch := AccelTilt(s.Accel.X, s.Accel.Y, s.Accel.Z)

	gyroRoll := e.state.RollFilter + s.Gyro.X*deltaTime
	gyroPitch := e.state.PitchFilter + s.Gyro.Y*deltaTime

	e.state.RollFilter = e.alpha*gyroRoll + (1-e.alpha)*accelRoll
	e.state.PitchFilter = e.alpha*gyroPitch + (1-e.alpha)*accelPitch

	e.state.Roll = e.state.RollFilter
	e.state.Pitch = e.state.PitchFilter

	e.state.Yaw += s.Gyro.Z * deltaTime

	return e.state
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Pose is the canonical representation of orientation for your app.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

const radToDeg = 180.0 / math.Pi

// AccelTilt computes roll and pitch in degrees from accelerometer data only.
// Any unit works since only ratios matter.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
//
// Valid only while the body is not accelerating; nothing here detects that.
func AccelTilt(ax, ay, az float64) (roll, pitch float64) {
	roll = math.Atan2(ay, az) * radToDeg
	pitch = math.Atan2(-ax, math.Sqrt(ay*ay+az*az)) * radToDeg
	return roll, pitch
}

// PoseFromAccel wraps AccelTilt into a Pose with zero yaw.
func PoseFromAccel(ax, ay, az float64) Pose {
	roll, pitch := AccelTilt(ax, ay, az)
	return Pose{Roll: roll, Pitch: pitch}
}

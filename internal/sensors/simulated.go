// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"

	"github.com/relabs-tech/tilt_estimator/internal/imu"
	"github.com/relabs-tech/tilt_estimator/internal/motion"
)

// SimOpts shapes the simulated motion.
type SimOpts struct {
	// StillFor keeps the body level and motionless after start, long enough
	// for stabilisation and calibration.
	StillFor time.Duration

	RollAmplitude  float64 // degrees
	PitchAmplitude float64 // degrees
	YawRate        float64 // deg/s while moving

	// GyroBias is added to every gyro reading (deg/s), for exercising
	// calibration.
	GyroBias r3.Vector

	TempC float64
}

// DefaultSimOpts is a body that sits still for 3s and then rocks gently.
func DefaultSimOpts() SimOpts {
	return SimOpts{
		StillFor:       3 * time.Second,
		RollAmplitude:  20,
		PitchAmplitude: 15,
		YawRate:        30,
		GyroBias:       r3.Vector{X: 1.5, Y: -0.8, Z: 0.4},
		TempC:          25,
	}
}

// SimulatedIMU generates raw MPU-6050 samples for a body that rocks in roll
// and pitch and turns slowly in yaw.
type SimulatedIMU struct {
	clk   clock.Clock
	start time.Time
	conv  imu.Converter
	opts  SimOpts
}

// NewSimulatedIMU creates a simulated sensor; time starts now on clk.
func NewSimulatedIMU(clk clock.Clock, conv imu.Converter, opts SimOpts) *SimulatedIMU {
	return &SimulatedIMU{clk: clk, start: clk.Now(), conv: conv, opts: opts}
}

// Converter returns the unit converter the samples are encoded with.
func (s *SimulatedIMU) Converter() imu.Converter {
	return s.conv
}

// truth returns the body angles (deg) and rates (deg/s) at the current time.
func (s *SimulatedIMU) truth() (roll, pitch float64, rate r3.Vector) {
	t := (s.clk.Since(s.start) - s.opts.StillFor).Seconds()
	if t <= 0 {
		return 0, 0, r3.Vector{}
	}
	const wr, wp = 1.0, 0.7
	roll = s.opts.RollAmplitude * math.Sin(wr*t)
	pitch = s.opts.PitchAmplitude * math.Sin(wp*t)
	rate = r3.Vector{
		X: s.opts.RollAmplitude * wr * math.Cos(wr*t),
		Y: s.opts.PitchAmplitude * wp * math.Cos(wp*t),
		Z: s.opts.YawRate,
	}
	return roll, pitch, rate
}

// ReadRaw implements RawReader.
func (s *SimulatedIMU) ReadRaw() imu.RawSample {
	roll, pitch, rate := s.truth()
	phi := roll * math.Pi / 180
	theta := pitch * math.Pi / 180

	// gravity in the body frame, in g
	ax := -math.Sin(theta)
	ay := math.Sin(phi) * math.Cos(theta)
	az := math.Cos(phi) * math.Cos(theta)

	// amplitudes are in degrees, so the angle derivatives are already deg/s
	g := rate.Add(s.opts.GyroBias)

	lsbG := s.conv.Accel.LSBPerG()
	lsbD := s.conv.Gyro.LSBPerDPS()
	return imu.RawSample{
		Ax:   toCounts(ax * lsbG),
		Ay:   toCounts(ay * lsbG),
		Az:   toCounts(az * lsbG),
		Gx:   toCounts(g.X * lsbD),
		Gy:   toCounts(g.Y * lsbD),
		Gz:   toCounts(g.Z * lsbD),
		Temp: toCounts((s.opts.TempC - imu.TempOffsetC) * imu.TempLSBPerDegC),
	}
}

// ReadStatus implements StatusReader: MOT_INT is set whenever the body moves.
func (s *SimulatedIMU) ReadStatus() byte {
	_, _, rate := s.truth()
	if rate.Norm() > 0 {
		return motion.MotionInterruptBit
	}
	return 0
}

func toCounts(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

package orientation

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/relabs-tech/tilt_estimator/internal/imu"
)

func level() imu.Sample {
	return imu.Sample{Accel: r3.Vector{Z: 1}}
}

func rolled(deg float64) imu.Sample {
	rad := deg * math.Pi / 180
	return imu.Sample{Accel: r3.Vector{Y: math.Sin(rad), Z: math.Cos(rad)}}
}

func TestAccelTilt(t *testing.T) {
	roll, pitch := AccelTilt(0, 0, 1)
	test.That(t, roll, test.ShouldEqual, 0.0)
	test.That(t, pitch, test.ShouldEqual, 0.0)

	roll, _ = AccelTilt(0, 1, 0)
	test.That(t, roll, test.ShouldAlmostEqual, 90.0, 1e-9)

	_, pitch = AccelTilt(-1, 0, 0)
	test.That(t, pitch, test.ShouldAlmostEqual, 90.0, 1e-9)

	// ay == az == 0 has no domain error
	roll, pitch = AccelTilt(0, 0, 0)
	test.That(t, roll, test.ShouldEqual, 0.0)
	test.That(t, pitch, test.ShouldEqual, 0.0)

	p := PoseFromAccel(0, math.Sin(math.Pi/6), math.Cos(math.Pi/6))
	test.That(t, p.Roll, test.ShouldAlmostEqual, 30.0, 1e-9)
	test.That(t, p.Yaw, test.ShouldEqual, 0.0)
}

func TestEstimatorLevelAtRest(t *testing.T) {
	e := NewEstimator(DefaultAlpha)

	// push the filter away from zero first
	for i := 0; i < 200; i++ {
		e.Update(rolled(20), 0.01)
	}
	test.That(t, e.State().RollFilter, test.ShouldBeGreaterThan, 19.0)

	t.Run("converges to zero", func(t *testing.T) {
		for i := 0; i < 500; i++ {
			e.Update(level(), 0.01)
		}
		s := e.State()
		test.That(t, s.Roll, test.ShouldAlmostEqual, 0.0, 1e-6)
		test.That(t, s.Pitch, test.ShouldAlmostEqual, 0.0, 1e-6)
	})

	t.Run("stays stable for 10000 cycles", func(t *testing.T) {
		for i := 0; i < 10000; i++ {
			e.Update(level(), 0.01)
		}
		s := e.State()
		test.That(t, math.IsNaN(s.Roll), test.ShouldBeFalse)
		test.That(t, math.IsNaN(s.Pitch), test.ShouldBeFalse)
		test.That(t, s.Roll, test.ShouldAlmostEqual, 0.0, 1e-9)
		test.That(t, s.Pitch, test.ShouldAlmostEqual, 0.0, 1e-9)
		test.That(t, s.Yaw, test.ShouldEqual, 0.0)
	})
}

func TestEstimatorSettlesOnAccelTilt(t *testing.T) {
	e := NewEstimator(DefaultAlpha)
	in := rolled(5)

	accelRoll, _ := AccelTilt(in.Accel.X, in.Accel.Y, in.Accel.Z)
	test.That(t, accelRoll, test.ShouldAlmostEqual, 5.0, 1e-9)

	prevErr := math.Abs(5.0 - e.State().RollFilter)
	for i := 0; i < 300; i++ {
		s := e.Update(in, 0.01)
		err := math.Abs(5.0 - s.RollFilter)
		// the error shrinks by exactly alpha each cycle
		test.That(t, err, test.ShouldAlmostEqual, prevErr*DefaultAlpha, 1e-9)
		prevErr = err
	}
	test.That(t, e.State().RollFilter, test.ShouldAlmostEqual, 5.0, 1e-3)
	test.That(t, e.State().Roll, test.ShouldEqual, e.State().RollFilter)
	test.That(t, e.State().Pitch, test.ShouldAlmostEqual, 0.0, 1e-9)
}

func TestEstimatorYawIntegration(t *testing.T) {
	t.Run("single one second step", func(t *testing.T) {
		e := NewEstimator(DefaultAlpha)
		s := level()
		s.Gyro.Z = 10
		test.That(t, e.Update(s, 1.0).Yaw, test.ShouldEqual, 10.0)
		test.That(t, e.Update(s, 1.0).Yaw, test.ShouldEqual, 20.0)
	})

	t.Run("accumulates across small steps", func(t *testing.T) {
		e := NewEstimator(DefaultAlpha)
		s := rolled(30)
		s.Gyro.Z = 10
		for i := 0; i < 100; i++ {
			e.Update(s, 0.01)
		}
		test.That(t, e.State().Yaw, test.ShouldAlmostEqual, 10.0, 1e-9)
	})

	t.Run("no correction term pulls yaw back", func(t *testing.T) {
		e := NewEstimator(DefaultAlpha)
		s := level()
		s.Gyro.Z = 10
		e.Update(s, 1.0)
		s.Gyro.Z = 0
		for i := 0; i < 1000; i++ {
			e.Update(s, 0.01)
		}
		test.That(t, e.State().Yaw, test.ShouldEqual, 10.0)
	})

	t.Run("drift is unbounded", func(t *testing.T) {
		e := NewEstimator(DefaultAlpha)
		s := level()
		s.Gyro.Z = 90
		for i := 0; i < 10; i++ {
			e.Update(s, 1.0)
		}
		test.That(t, e.State().Yaw, test.ShouldEqual, 900.0)
	})
}

func TestEstimatorZeroDeltaTime(t *testing.T) {
	warm := func() *Estimator {
		e := NewEstimator(DefaultAlpha)
		for i := 0; i < 10; i++ {
			e.Update(rolled(10), 0.01)
		}
		return e
	}

	still := warm()
	spinning := warm()
	before := still.State()

	in := rolled(-3)
	fast := in
	fast.Gyro = r3.Vector{X: 500, Y: -500, Z: 500}

	a := still.Update(in, 0)
	b := spinning.Update(fast, 0)

	// gyro rates contribute nothing when no time has passed
	test.That(t, a.RollFilter, test.ShouldEqual, b.RollFilter)
	test.That(t, a.PitchFilter, test.ShouldEqual, b.PitchFilter)
	test.That(t, b.Yaw, test.ShouldEqual, before.Yaw)

	// the only change is the accelerometer blend
	accelRoll, accelPitch := AccelTilt(in.Accel.X, in.Accel.Y, in.Accel.Z)
	test.That(t, a.RollFilter, test.ShouldAlmostEqual,
		DefaultAlpha*before.RollFilter+(1-DefaultAlpha)*accelRoll, 1e-12)
	test.That(t, a.PitchFilter, test.ShouldAlmostEqual,
		DefaultAlpha*before.PitchFilter+(1-DefaultAlpha)*accelPitch, 1e-12)
}

func TestStatePose(t *testing.T) {
	s := State{Roll: 1, Pitch: 2, Yaw: 3, RollFilter: 1, PitchFilter: 2}
	test.That(t, s.Pose(), test.ShouldResemble, Pose{Roll: 1, Pitch: 2, Yaw: 3})
	test.That(t, NewEstimator(0.5).Alpha(), test.ShouldEqual, 0.5)
}

package sensors

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/relabs-tech/tilt_estimator/internal/imu"
	"github.com/relabs-tech/tilt_estimator/internal/motion"
	"github.com/relabs-tech/tilt_estimator/internal/orientation"
)

func TestSimulatedIMU(t *testing.T) {
	mock := clock.NewMock()
	opts := DefaultSimOpts()
	opts.GyroBias = r3.Vector{}
	sim := NewSimulatedIMU(mock, imu.DefaultConverter(), opts)

	t.Run("still and level at start", func(t *testing.T) {
		raw := sim.ReadRaw()
		test.That(t, raw.Ax, test.ShouldEqual, int16(0))
		test.That(t, raw.Ay, test.ShouldEqual, int16(0))
		test.That(t, raw.Az, test.ShouldEqual, int16(16384))
		test.That(t, raw.Gx, test.ShouldEqual, int16(0))
		test.That(t, motion.Classify(sim.ReadStatus()), test.ShouldBeFalse)

		s := sim.Converter().Convert(raw)
		test.That(t, s.TempC, test.ShouldAlmostEqual, 25.0, 0.01)
	})

	t.Run("rocking after the still period", func(t *testing.T) {
		mock.Add(opts.StillFor + 1500*time.Millisecond)
		test.That(t, motion.Classify(sim.ReadStatus()), test.ShouldBeTrue)

		s := sim.Converter().Convert(sim.ReadRaw())
		roll, pitch, rate := sim.truth()
		accelRoll, accelPitch := orientation.AccelTilt(s.Accel.X, s.Accel.Y, s.Accel.Z)
		test.That(t, accelRoll, test.ShouldAlmostEqual, roll, 0.05)
		test.That(t, accelPitch, test.ShouldAlmostEqual, pitch, 0.05)
		test.That(t, s.Gyro.Z, test.ShouldAlmostEqual, rate.Z, 0.01)
		test.That(t, s.Accel.Norm(), test.ShouldAlmostEqual, 1.0, 1e-3)
	})
}

func TestSimulatedGyroBias(t *testing.T) {
	sim := NewSimulatedIMU(clock.NewMock(), imu.DefaultConverter(), DefaultSimOpts())
	s := sim.Converter().Convert(sim.ReadRaw())
	test.That(t, s.Gyro.X, test.ShouldAlmostEqual, 1.5, 0.01)
	test.That(t, s.Gyro.Y, test.ShouldAlmostEqual, -0.8, 0.01)
	test.That(t, s.Gyro.Z, test.ShouldAlmostEqual, 0.4, 0.01)
}

func TestToCounts(t *testing.T) {
	test.That(t, toCounts(1e9), test.ShouldEqual, int16(32767))
	test.That(t, toCounts(-1e9), test.ShouldEqual, int16(-32768))
	test.That(t, toCounts(12.6), test.ShouldEqual, int16(13))
}

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/relabs-tech/tilt_estimator/internal/calibration"
	"github.com/relabs-tech/tilt_estimator/internal/config"
	"github.com/relabs-tech/tilt_estimator/internal/imu"
	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// scriptedIMU returns raw and status until changed; next, when set, is
// called before every read.
type scriptedIMU struct {
	mu     sync.Mutex
	raw    imu.RawSample
	status byte
	next   func(n int) imu.RawSample
	reads  int
}

func (s *scriptedIMU) ReadRaw() imu.RawSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.next != nil {
		return s.next(s.reads)
	}
	return s.raw
}

func (s *scriptedIMU) ReadStatus() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

type fakeCounter struct{ ms uint32 }

func (c *fakeCounter) Millis() uint32 { return c.ms }

func fastOpts() ProducerOpts {
	return ProducerOpts{
		StabilizeDelay: time.Millisecond,
		Calibration:    calibration.Options{Samples: 10, Interval: time.Millisecond},
		SampleInterval: time.Millisecond,
		Alpha:          0.96,
	}
}

func TestProducerStep(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	// level, 1 deg/s gyro X bias
	sensor := &scriptedIMU{raw: imu.RawSample{Az: 16384, Gx: 131}}
	counter := &fakeCounter{}
	p := NewProducer(sensor, imu.DefaultConverter(), clock.New(), counter, nil, fastOpts(), logger)

	rep := p.Calibrate()
	test.That(t, sensor.reads, test.ShouldEqual, 10)
	test.That(t, rep.Confidence, test.ShouldEqual, 1.0)
	off := p.Offsets()
	test.That(t, off.Accel.Z, test.ShouldEqual, 0.0)
	test.That(t, off.Gyro.X, test.ShouldEqual, 1.0)

	t.Run("first cycle has no integration step", func(t *testing.T) {
		rec := p.Step()
		test.That(t, rec.AccelZ, test.ShouldEqual, 1.0)
		test.That(t, rec.GyroX, test.ShouldEqual, 0.0)
		test.That(t, rec.Roll, test.ShouldEqual, 0.0)
		test.That(t, rec.Yaw, test.ShouldEqual, 0.0)
		test.That(t, rec.MotionDetected, test.ShouldBeFalse)
	})

	t.Run("one second at 10 deg/s of yaw", func(t *testing.T) {
		sensor.mu.Lock()
		sensor.raw.Gz = 131 * 10
		sensor.status = 0x40
		sensor.mu.Unlock()
		counter.ms = 1000

		rec := p.Step()
		test.That(t, rec.GyroZ, test.ShouldEqual, 10.0)
		test.That(t, rec.Yaw, test.ShouldEqual, 10.0)
		test.That(t, rec.MotionDetected, test.ShouldBeTrue)
		test.That(t, p.State().Yaw, test.ShouldEqual, 10.0)
	})

	t.Run("counter wraparound keeps dt small", func(t *testing.T) {
		counter.ms = 0xFFFFFFFF - 499
		before := p.Step().Yaw
		counter.ms = 500 // 1000 ms later across the wrap
		rec := p.Step()
		test.That(t, p.timing.DeltaTime, test.ShouldEqual, 1.0)
		test.That(t, rec.Yaw, test.ShouldAlmostEqual, before+10, 1e-6)
	})
}

func TestProducerWarnsOnMovingCalibration(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	sensor := &scriptedIMU{next: func(n int) imu.RawSample {
		if n%2 == 0 {
			return imu.RawSample{Ax: 4000, Az: 16384, Gy: 1000}
		}
		return imu.RawSample{Ax: -4000, Az: 16384, Gy: -1000}
	}}
	p := NewProducer(sensor, imu.DefaultConverter(), clock.New(), &fakeCounter{}, nil, fastOpts(), logger)
	rep := p.Calibrate()

	test.That(t, rep.IsStill(minCalibrationConfidence), test.ShouldBeFalse)
	test.That(t, logs.FilterMessageSnippet("sensor moved during calibration").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessageSnippet("calibration complete").Len(), test.ShouldEqual, 1)
}

func TestProducerRun(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	sensor := &scriptedIMU{raw: imu.RawSample{Az: 16384}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []telemetry.Record
	sink := telemetry.SinkFunc(func(r telemetry.Record) error {
		got = append(got, r)
		if len(got) == 5 {
			cancel()
		}
		// a failing sink must not stop the loop
		return errors.New("sink offline")
	})

	p := NewProducer(sensor, imu.DefaultConverter(), clock.New(), nil, sink, fastOpts(), logger)
	test.That(t, p.Run(ctx), test.ShouldBeNil)
	test.That(t, len(got), test.ShouldEqual, 5)
	test.That(t, got[4].AccelZ, test.ShouldEqual, 1.0)
	test.That(t, got[4].Roll, test.ShouldEqual, 0.0)
}

func TestProducerConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.IMUAccelRange = 2
	cfg.IMUGyroRange = 3
	cfg.UseSimulatedIMU = true

	conv := converterFromConfig(cfg)
	test.That(t, conv.Accel, test.ShouldEqual, imu.AccelRange8G)
	test.That(t, conv.Gyro, test.ShouldEqual, imu.GyroRange2000)

	opts := producerOptsFromConfig(cfg)
	test.That(t, opts.StabilizeDelay, test.ShouldEqual, time.Second)
	test.That(t, opts.Calibration.Samples, test.ShouldEqual, 100)
	test.That(t, opts.Calibration.Interval, test.ShouldEqual, 10*time.Millisecond)
	test.That(t, opts.SampleInterval, test.ShouldEqual, 10*time.Millisecond)
	test.That(t, opts.Alpha, test.ShouldEqual, 0.96)

	logger := zaptest.NewLogger(t).Sugar()
	sh, err := openSensor(cfg, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sh.bus, test.ShouldBeNil)
	test.That(t, sh.conv, test.ShouldResemble, conv)

	cfg.WebServerPort = 8080
	sinks, web, err := buildSinks(cfg, clock.NewMock(), sh, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, web, test.ShouldNotBeNil)
	test.That(t, sinks.Len(), test.ShouldEqual, 2) // console + web
	test.That(t, sinks.Close(), test.ShouldBeNil)
}

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/tilt_estimator/internal/sensors"
	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

var webRecord = telemetry.Record{AccelZ: 1.004, Roll: 12.346, Pitch: -3.2, Yaw: 40, Temperature: 25, MotionDetected: true}

func TestWebTelemetryAPI(t *testing.T) {
	s := NewWebSink(nil, zaptest.NewLogger(t).Sugar())
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/telemetry", nil))
	test.That(t, rr.Code, test.ShouldEqual, http.StatusServiceUnavailable)

	test.That(t, s.Emit(webRecord), test.ShouldBeNil)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/telemetry", nil))
	test.That(t, rr.Code, test.ShouldEqual, http.StatusOK)
	test.That(t, rr.Header().Get("Content-Type"), test.ShouldEqual, "application/json")

	var got telemetry.Record
	test.That(t, json.Unmarshal(rr.Body.Bytes(), &got), test.ShouldBeNil)
	test.That(t, got.Roll, test.ShouldEqual, 12.35)
	test.That(t, got.AccelZ, test.ShouldEqual, 1.0)
	test.That(t, got.MotionDetected, test.ShouldBeTrue)
}

func TestWebRegistersAPI(t *testing.T) {
	regs := map[string]string{"0x1C": "0x01", "0x75": "0x68"}
	s := NewWebSink(regs, zaptest.NewLogger(t).Sugar())

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/registers", nil))
	test.That(t, rr.Code, test.ShouldEqual, http.StatusOK)

	var resp RegistersResponse
	test.That(t, json.Unmarshal(rr.Body.Bytes(), &resp), test.ShouldBeNil)
	test.That(t, resp.Device, test.ShouldEqual, "mpu6050")
	test.That(t, resp.Registers, test.ShouldResemble, regs)
	test.That(t, len(resp.RegisterMap), test.ShouldEqual, len(sensors.MPU6050RegisterMap()))
}

func TestWebSocketStream(t *testing.T) {
	s := NewWebSink(nil, zaptest.NewLogger(t).Sugar())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()

	// the handler subscribes right after the upgrade
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.RLock()
		n := len(s.clients)
		s.mu.RUnlock()
		if n == 1 || time.Now().After(deadline) {
			test.That(t, n, test.ShouldEqual, 1)
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	test.That(t, s.Emit(webRecord), test.ShouldBeNil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got telemetry.Record
	test.That(t, conn.ReadJSON(&got), test.ShouldBeNil)
	test.That(t, got.Yaw, test.ShouldEqual, 40.0)
	test.That(t, got.Pitch, test.ShouldEqual, -3.2)

	// closing the sink ends the stream
	test.That(t, s.Close(), test.ShouldBeNil)
	_, _, err = conn.ReadMessage()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, websocket.IsCloseError(err, websocket.CloseGoingAway), test.ShouldBeTrue)
}

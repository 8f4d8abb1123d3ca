package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/tilt_estimator/internal/config"
	"github.com/relabs-tech/tilt_estimator/internal/orientation"
	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// telemetryLine decodes a telemetry payload into the printed line.
func telemetryLine(payload []byte) (string, error) {
	var r telemetry.Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return "", err
	}
	return "[TLM ] " + formatTick(r), nil
}

// poseLine decodes a pose payload into the printed line.
func poseLine(payload []byte) (string, error) {
	var p orientation.Pose
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", err
	}
	return fmt.Sprintf("[POSE] ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f", p.Roll, p.Pitch, p.Yaw), nil
}

// RunConsoleMQTT subscribes to the telemetry and pose topics and prints
// every message to out until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is required")
	}
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Infof("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := []struct {
		topic  string
		decode func([]byte) (string, error)
	}{
		{cfg.TopicTelemetry, telemetryLine},
		{cfg.TopicPose, poseLine},
	}
	for _, sub := range subs {
		sub := sub
		token := client.Subscribe(sub.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			line, err := sub.decode(msg.Payload())
			if err != nil {
				logger.Warnf("console: %s unmarshal error: %v", msg.Topic(), err)
				return
			}
			fmt.Fprintln(out, line)
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("console: subscribe %s: %w", sub.topic, token.Error())
		}
		logger.Infof("console: subscribed to %s", sub.topic)
	}

	<-ctx.Done()
	logger.Info("console: shutting down")
	return nil
}

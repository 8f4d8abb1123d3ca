// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// connectMQTT connects to broker with clientID.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect to %s: %w", broker, token.Error())
	}
	return client, nil
}

// MQTTSink publishes every record as JSON on the telemetry topic and its
// pose on the pose topic, retained, QoS 0.
type MQTTSink struct {
	pub            Publisher
	topicTelemetry string
	topicPose      string
	disconnect     func()
}

// NewMQTTSink publishes through pub. Close does not disconnect pub.
func NewMQTTSink(pub Publisher, topicTelemetry, topicPose string) *MQTTSink {
	return &MQTTSink{pub: pub, topicTelemetry: topicTelemetry, topicPose: topicPose}
}

// Emit implements telemetry.Sink.
func (s *MQTTSink) Emit(r telemetry.Record) error {
	r = r.Rounded()
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("json marshal error (telemetry): %w", err)
	}
	if token := s.pub.Publish(s.topicTelemetry, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", s.topicTelemetry, token.Error())
	}

	payload, err = json.Marshal(r.Pose())
	if err != nil {
		return fmt.Errorf("json marshal error (pose): %w", err)
	}
	if token := s.pub.Publish(s.topicPose, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", s.topicPose, token.Error())
	}
	return nil
}

// Close implements telemetry.Sink.
func (s *MQTTSink) Close() error {
	if s.disconnect != nil {
		s.disconnect()
	}
	return nil
}

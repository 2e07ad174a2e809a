// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/gps"
	"github.com/relabs-tech/motion_tracker/internal/imu"
	"github.com/relabs-tech/motion_tracker/internal/orientation"
	"github.com/relabs-tech/motion_tracker/internal/pose"
	"github.com/relabs-tech/motion_tracker/internal/sensors"
)

// RunPoseProducer samples the configured pose source at a fixed interval
// and publishes timestamped pose samples to MQTT. With real hardware the
// pose is fused from the IMU orientation filter, the GPS projector, and
// barometric altitude; with POSE_USE_MOCK=true a synthetic circular path
// is published instead.
func RunPoseProducer() error {
	log.Println("starting motion-tracker pose producer")

	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("pose producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	topic := cfg.TopicPose + "/" + cfg.PoseSource

	if cfg.PoseUseMock {
		log.Println("pose producer: using mock pose source")
		return publishLoop(client, topic, pose.NewMockSource(cfg.PoseSource), cfg)
	}

	src, err := newHardwarePoseSource(client, cfg)
	if err != nil {
		return err
	}
	return publishLoop(client, topic, src, cfg)
}

func publishLoop(client mqtt.Client, topic string, src pose.Source, cfg *config.Config) error {
	ticker := time.NewTicker(time.Duration(cfg.PoseSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("pose producer: publishing to %s every %d ms", topic, cfg.PoseSampleInterval)

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			log.Printf("pose producer: source error: %v", err)
			continue
		}

		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("pose producer: json marshal error: %v", err)
			continue
		}
		if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("pose producer: MQTT publish error: %v", token.Error())
		}
	}
	return nil
}

// hardwarePoseSource fuses IMU orientation, GPS position, and barometric
// altitude into pose samples. GPS fixes arrive asynchronously over MQTT
// from the GPS producer; the most recent one is projected at sample time.
type hardwarePoseSource struct {
	cfg     *config.Config
	client  mqtt.Client
	manager *sensors.Manager
	filter  *orientation.Filter

	mu        sync.Mutex
	projector gps.Projector
	lastFix   gps.Fix
	haveFix   bool

	lastSample time.Time
}

func newHardwarePoseSource(client mqtt.Client, cfg *config.Config) (*hardwarePoseSource, error) {
	manager, err := sensors.GetManager()
	if err != nil {
		return nil, err
	}

	src := &hardwarePoseSource{
		cfg:     cfg,
		client:  client,
		manager: manager,
		filter:  orientation.NewFilter(cfg.OrientationGyroTrust),
	}

	if cfg.TopicGPS != "" {
		token := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var f gps.Fix
			if err := json.Unmarshal(msg.Payload(), &f); err != nil {
				log.Printf("pose producer: gps unmarshal error: %v", err)
				return
			}
			src.mu.Lock()
			src.lastFix = f
			src.haveFix = true
			src.mu.Unlock()
		})
		if token.Wait() && token.Error() != nil {
			return nil, token.Error()
		}
		log.Printf("pose producer: subscribed to %s", cfg.TopicGPS)
	}

	return src, nil
}

func (s *hardwarePoseSource) Next() (pose.Sample, error) {
	now := time.Now()
	dt := 0.01
	if !s.lastSample.IsZero() {
		dt = now.Sub(s.lastSample).Seconds()
	}
	s.lastSample = now

	raw, err := s.manager.IMU().ReadRaw()
	if err != nil {
		return pose.Sample{}, err
	}
	att := s.filter.Update(raw.Scale(s.cfg.IMUAccelRange, s.cfg.IMUGyroRange), dt)
	s.publishRaw(raw)

	altitude, err := s.manager.Altitude()
	if err != nil {
		log.Printf("pose producer: altitude read error: %v", err)
		altitude = 0
	}

	s.mu.Lock()
	fix, haveFix := s.lastFix, s.haveFix
	s.mu.Unlock()

	position := s.projectedPosition(fix, haveFix, altitude)
	t := float64(now.UnixNano()) / 1e9
	return pose.New(s.cfg.PoseSource, t, position, att.Quaternion()), nil
}

// publishRaw mirrors the unscaled IMU sample to its own topic for
// debugging and offline calibration. Best effort.
func (s *hardwarePoseSource) publishRaw(raw imu.Raw) {
	if s.cfg.TopicIMURaw == "" {
		return
	}
	raw.Source = s.cfg.PoseSource
	payload, err := json.Marshal(raw)
	if err != nil {
		log.Printf("pose producer: imu raw marshal error: %v", err)
		return
	}
	if token := s.client.Publish(s.cfg.TopicIMURaw, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("pose producer: imu raw publish error: %v", token.Error())
	}
}

func (s *hardwarePoseSource) projectedPosition(fix gps.Fix, haveFix bool, altitude float64) mgl64.Vec3 {
	if !haveFix {
		return mgl64.Vec3{0, 0, altitude}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.projector.Project(fix, altitude)
	if !ok {
		return mgl64.Vec3{0, 0, altitude}
	}
	return pos
}

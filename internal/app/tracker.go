// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/kinematics"
	"github.com/relabs-tech/motion_tracker/internal/pose"
)

// trackedBody is one pose stream being smoothed into kinematics.
type trackedBody struct {
	tracker  *kinematics.Tracker
	lastTime float64
	haveTime bool
}

// RunTracker subscribes to all pose topics, runs one kinematics tracker
// per source, and publishes a kinematics report for every pose sample.
func RunTracker() error {
	log.Println("starting motion-tracker kinematics service")

	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDTracker)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("tracker: connected to MQTT broker at %s", cfg.MQTTBroker)

	var (
		mu     sync.Mutex
		bodies = make(map[string]*trackedBody)
	)

	poseTopic := cfg.TopicPose + "/#"
	token := client.Subscribe(poseTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s pose.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("tracker: pose unmarshal error: %v", err)
			return
		}
		if s.Source == "" {
			log.Printf("tracker: dropping pose sample without source on %s", msg.Topic())
			return
		}

		mu.Lock()
		body, ok := bodies[s.Source]
		if !ok {
			body = &trackedBody{tracker: kinematics.NewTracker()}
			bodies[s.Source] = body
			log.Printf("tracker: new source %q", s.Source)
		}

		// Delta time comes from the producer's timestamps, so replayed
		// and live streams smooth identically. Out-of-order samples get
		// a non-positive dt and are ignored by the tracker.
		dt := 0.0
		if body.haveTime {
			dt = s.Time - body.lastTime
		}
		body.lastTime = s.Time
		body.haveTime = true

		body.tracker.Update(s.Position(), s.Orientation(), dt)
		report := body.tracker.Report(s.Source, s.Time)
		mu.Unlock()

		payload, err := json.Marshal(report)
		if err != nil {
			log.Printf("tracker: report marshal error: %v", err)
			return
		}
		outTopic := cfg.TopicKinematics + "/" + s.Source
		if token := client.Publish(outTopic, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("tracker: publish error: %v", token.Error())
		}
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("tracker: subscribed to %s", poseTopic)

	// Periodic status line so a headless box shows signs of life.
	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			mu.Lock()
			for source, body := range bodies {
				log.Printf("tracker: %-12s speed=%7.3f m/s  angular=%8.2f deg/s",
					source, body.tracker.Speed, body.tracker.AngularSpeed)
			}
			mu.Unlock()
		case s := <-sig:
			log.Printf("tracker: received %v, shutting down", s)
			return nil
		}
	}
}

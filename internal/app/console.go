// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/kinematics"
	"github.com/relabs-tech/motion_tracker/internal/pose"
)

// RunConsole subscribes to the pose and kinematics topics and prints a
// fixed-width status line per source at the configured interval. Handy
// over ssh when the web frontend is overkill.
func RunConsole() error {
	cfg := config.Get()

	var (
		mu      sync.RWMutex
		poses   = make(map[string]pose.Sample)
		reports = make(map[string]kinematics.Report)
	)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicPose+"/#", 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s pose.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}
		mu.Lock()
		poses[s.Source] = s
		mu.Unlock()
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	token = client.Subscribe(cfg.TopicKinematics+"/#", 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r kinematics.Report
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: kinematics unmarshal error: %v", err)
			return
		}
		mu.Lock()
		reports[r.Source] = r
		mu.Unlock()
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s/# and %s/#", cfg.TopicPose, cfg.TopicKinematics)

	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			printStatus(&mu, poses, reports)
		case s := <-sig:
			fmt.Println()
			log.Printf("console: received %v, exiting", s)
			return nil
		}
	}
}

func printStatus(mu *sync.RWMutex, poses map[string]pose.Sample, reports map[string]kinematics.Report) {
	mu.RLock()
	defer mu.RUnlock()

	if len(poses) == 0 && len(reports) == 0 {
		fmt.Println("waiting for data...")
		return
	}

	sources := make([]string, 0, len(poses))
	for source := range poses {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		s := poses[source]
		line := fmt.Sprintf("%-12s pos %7.2f %7.2f %7.2f", source, s.Px, s.Py, s.Pz)
		if r, ok := reports[source]; ok {
			line += fmt.Sprintf("  | speed %6.3f m/s  accel %+7.3f m/s2  rot %7.2f deg/s",
				r.Speed, r.AccelerationStrength, r.AngularSpeed)
		}
		fmt.Println(line)
	}
}

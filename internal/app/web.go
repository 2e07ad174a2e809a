// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/kinematics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow local development frontends
	},
}

// webState holds the latest kinematics report per source for the HTTP
// and websocket handlers.
type webState struct {
	mu      sync.RWMutex
	reports map[string]kinematics.Report
}

func (s *webState) set(r kinematics.Report) {
	s.mu.Lock()
	s.reports[r.Source] = r
	s.mu.Unlock()
}

func (s *webState) snapshot() map[string]kinematics.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]kinematics.Report, len(s.reports))
	for k, v := range s.reports {
		out[k] = v
	}
	return out
}

// RunWeb serves the latest kinematics over HTTP: a JSON API for polling,
// a websocket for pushed updates, and the static frontend from ./web.
func RunWeb() error {
	cfg := config.Get()

	state := &webState{reports: make(map[string]kinematics.Report)}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	topic := cfg.TopicKinematics + "/#"
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r kinematics.Report
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: kinematics unmarshal error: %v", err)
			return
		}
		state.set(r)
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", topic)

	// Latest report per source
	http.HandleFunc("/api/kinematics", func(w http.ResponseWriter, r *http.Request) {
		reports := state.snapshot()
		if len(reports) == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reports); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// Known source names
	http.HandleFunc("/api/sources", func(w http.ResponseWriter, r *http.Request) {
		reports := state.snapshot()
		sources := make([]string, 0, len(reports))
		for source := range reports {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sources); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// Pushed updates for the live view
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)
		go pushKinematics(conn, state, cfg.WebPushInterval)
	})

	// Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

// pushKinematics writes the full report snapshot to one websocket client
// at a fixed interval until the connection dies.
func pushKinematics(conn *websocket.Conn, state *webState, intervalMS int) {
	defer conn.Close()

	ticker := time.NewTicker(time.Duration(intervalMS) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		reports := state.snapshot()
		if len(reports) == 0 {
			continue
		}
		if err := conn.WriteJSON(reports); err != nil {
			log.Printf("web: websocket client gone: %v", err)
			return
		}
	}
}

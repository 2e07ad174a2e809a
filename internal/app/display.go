// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/kinematics"
	"github.com/relabs-tech/motion_tracker/internal/pose"
)

// displayData holds the latest samples shown on the OLED.
type displayData struct {
	mu sync.RWMutex

	report     kinematics.Report
	haveReport bool

	pose     pose.Sample
	havePose bool
}

// RunDisplay drives a 128x64 SSD1306 OLED over I2C, showing either the
// latest kinematics or the latest raw pose depending on DISPLAY_CONTENT.
func RunDisplay() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("display: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("display: open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("display: init SSD1306: %w", err)
	}
	log.Println("display: SSD1306 initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("display: splash error: %v", err)
	}

	data := &displayData{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	content := cfg.DisplayContent
	if content == "" {
		content = "kinematics"
	}
	if err := subscribeForContent(client, content, data, cfg); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		if err := updateDisplay(dev, content, data); err != nil {
			log.Printf("display: update error: %v", err)
		}
	}
	return nil
}

func subscribeForContent(client mqtt.Client, content string, data *displayData, cfg *config.Config) error {
	switch content {
	case "kinematics":
		token := client.Subscribe(cfg.TopicKinematics+"/#", 0, func(_ mqtt.Client, msg mqtt.Message) {
			var r kinematics.Report
			if err := json.Unmarshal(msg.Payload(), &r); err != nil {
				log.Printf("display: kinematics unmarshal error: %v", err)
				return
			}
			data.mu.Lock()
			data.report = r
			data.haveReport = true
			data.mu.Unlock()
		})
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s/#", cfg.TopicKinematics)

	case "pose":
		token := client.Subscribe(cfg.TopicPose+"/#", 0, func(_ mqtt.Client, msg mqtt.Message) {
			var s pose.Sample
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("display: pose unmarshal error: %v", err)
				return
			}
			data.mu.Lock()
			data.pose = s
			data.havePose = true
			data.mu.Unlock()
		})
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s/#", cfg.TopicPose)

	default:
		return fmt.Errorf("display: unknown content %q", content)
	}
	return nil
}

func updateDisplay(dev *ssd1306.Dev, content string, data *displayData) error {
	data.mu.RLock()
	report, haveReport := data.report, data.haveReport
	sample, havePose := data.pose, data.havePose
	data.mu.RUnlock()

	switch content {
	case "kinematics":
		return drawKinematics(dev, report, haveReport)
	case "pose":
		return drawPose(dev, sample, havePose)
	}
	return nil
}

func drawKinematics(dev *ssd1306.Dev, r kinematics.Report, haveData bool) error {
	img, drawer := newFrame()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Kinematics"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(r.Source))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("v: %6.2f m/s", r.Speed)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("a: %+6.2f m/s2", r.AccelerationStrength)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("w: %6.1f d/s", r.AngularSpeed)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func drawPose(dev *ssd1306.Dev, s pose.Sample, haveData bool) error {
	img, drawer := newFrame()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Pose"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(s.Source))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("x: %7.2f", s.Px)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("y: %7.2f", s.Py)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("z: %7.2f", s.Pz)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(14, 26)
	drawer.DrawBytes([]byte("motion tracker"))
	drawer.Dot = fixed.P(32, 39)
	drawer.DrawBytes([]byte("starting"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// newFrame returns a blank 128x64 frame and a drawer set up for it.
func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

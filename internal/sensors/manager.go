// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"sync"

	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// Manager owns the hardware sensors the pose producer reads from. The IMU
// is mandatory; the barometer is optional and altitude falls back to zero
// without it.
type Manager struct {
	imu  *MPU9250
	baro *Baro
}

var (
	managerInstance *Manager
	managerOnce     sync.Once
	managerErr      error
)

// GetManager initializes the sensors once, per the global config, and
// returns the shared instance. Safe for concurrent use.
func GetManager() (*Manager, error) {
	managerOnce.Do(func() {
		managerInstance, managerErr = newManager()
	})
	return managerInstance, managerErr
}

func newManager() (*Manager, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sensors: periph host init: %w", err)
	}

	mpu, err := NewMPU9250(cfg.IMUSPIDevice, MPU9250Options{
		AccelRange:    cfg.IMUAccelRange,
		GyroRange:     cfg.IMUGyroRange,
		DLPFConfig:    cfg.IMUDLPFConfig,
		SampleRateDiv: cfg.IMUSampleRateDiv,
	})
	if err != nil {
		return nil, err
	}

	m := &Manager{imu: mpu}

	if cfg.BaroSPIDevice != "" {
		baro, err := NewBaro(cfg.BaroSPIDevice, cfg.BaroReferencePressure)
		if err != nil {
			log.Printf("sensors: barometer unavailable, altitude will read zero: %v", err)
		} else {
			m.baro = baro
		}
	}

	log.Println("sensors: initialized")
	return m, nil
}

// IMU returns the raw IMU reader.
func (m *Manager) IMU() imu.RawSource { return m.imu }

// Altitude returns the barometric altitude in meters, or zero when no
// barometer is configured.
func (m *Manager) Altitude() (float64, error) {
	if m.baro == nil {
		return 0, nil
	}
	return m.baro.Altitude()
}

// Close releases all sensor hardware.
func (m *Manager) Close() error {
	var firstErr error
	if m.baro != nil {
		if err := m.baro.Close(); err != nil {
			firstErr = err
		}
	}
	if err := m.imu.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

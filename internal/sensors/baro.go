// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
)

// Baro reads barometric pressure from a BMP280/BME280 and converts it to
// altitude above the configured sea-level reference.
type Baro struct {
	port spi.PortCloser
	dev  *bmxx80.Dev

	// Sea-level reference pressure in Pa, e.g. 101325 for a standard
	// atmosphere. Set from local QNH for absolute altitude; any constant
	// works for relative altitude.
	referencePa float64
}

// NewBaro opens the barometer on the given SPI device.
func NewBaro(spiDev string, referencePa float64) (*Baro, error) {
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("baro: open SPI %s: %w", spiDev, err)
	}

	dev, err := bmxx80.NewSPI(port, &bmxx80.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("baro: device init: %w", err)
	}

	return &Baro{port: port, dev: dev, referencePa: referencePa}, nil
}

// Pressure reads the current pressure in Pa.
func (b *Baro) Pressure() (float64, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return 0, fmt.Errorf("baro: sense: %w", err)
	}
	return float64(e.Pressure) / float64(physic.Pascal), nil
}

// Altitude reads the pressure and converts it to meters using the
// international barometric formula.
func (b *Baro) Altitude() (float64, error) {
	pa, err := b.Pressure()
	if err != nil {
		return 0, err
	}
	return PressureToAltitude(pa, b.referencePa), nil
}

// Close halts the sensor and releases the SPI port.
func (b *Baro) Close() error {
	if err := b.dev.Halt(); err != nil {
		b.port.Close()
		return fmt.Errorf("baro: halt: %w", err)
	}
	return b.port.Close()
}

// PressureToAltitude converts a pressure reading to altitude in meters.
// Standard barometric formula for the troposphere.
func PressureToAltitude(pa, referencePa float64) float64 {
	return 44330.0 * (1.0 - math.Pow(pa/referencePa, 1.0/5.255))
}

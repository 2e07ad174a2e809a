// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// MPU9250 register addresses used by this driver.
const (
	regSMPLRTDiv    = 0x19 // Sample Rate = Internal_Sample_Rate / (1 + SMPLRT_DIV)
	regConfig       = 0x1A // DLPF_CFG in bits 2:0
	regGyroConfig   = 0x1B // GYRO_FS_SEL in bits 4:3
	regAccelConfig  = 0x1C // ACCEL_FS_SEL in bits 4:3
	regAccelConfig2 = 0x1D // A_DLPFCFG in bits 2:0
	regAccelXOutH   = 0x3B // start of the 14-byte accel/temp/gyro burst
	regUserCtrl     = 0x6A // I2C_IF_DIS in bit 4
	regPwrMgmt1     = 0x6B // SLEEP in bit 6, CLKSEL in bits 2:0
	regWhoAmI       = 0x75 // reads 0x71

	whoAmIValue = 0x71

	// Reads set the MSB of the register address on the wire.
	readFlag = 0x80

	// I2C_IF_DIS: disable the I2C slave interface when driving over SPI.
	i2cIfDisable = 0x10

	// CLKSEL=1: auto-select the best available clock source.
	clockAutoSelect = 0x01
)

// MPU9250Options configures sensor ranges and filtering at init time.
type MPU9250Options struct {
	AccelRange    byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	GyroRange     byte // 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	DLPFConfig    byte // 0-7, gyro/temp low pass filter
	SampleRateDiv byte // output rate = internal rate / (1 + div)
}

// MPU9250 drives the accelerometer and gyroscope of an MPU9250 over SPI.
// The AK8963 magnetometer sits behind the chip's internal I2C master and
// is not read by this driver; the mag fields of the raw sample stay zero.
type MPU9250 struct {
	port spi.PortCloser
	conn spi.Conn
	opts MPU9250Options
}

// NewMPU9250 opens the SPI device and configures the sensor.
func NewMPU9250(spiDev string, opts MPU9250Options) (*MPU9250, error) {
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("imu: open SPI %s: %w", spiDev, err)
	}

	// The MPU9250 handles SPI mode 0 and 3; 1 MHz is safe for all registers.
	conn, err := port.Connect(1*physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("imu: connect %s: %w", spiDev, err)
	}

	d := &MPU9250{port: port, conn: conn, opts: opts}
	if err := d.init(); err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

func (d *MPU9250) init() error {
	// Wake from sleep and pick a stable clock before touching anything else.
	if err := d.writeRegister(regPwrMgmt1, clockAutoSelect); err != nil {
		return fmt.Errorf("imu: wake: %w", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := d.writeRegister(regUserCtrl, i2cIfDisable); err != nil {
		return fmt.Errorf("imu: disable I2C slave: %w", err)
	}

	id, err := d.readRegister(regWhoAmI)
	if err != nil {
		return fmt.Errorf("imu: WHO_AM_I read: %w", err)
	}
	if id != whoAmIValue {
		return fmt.Errorf("imu: WHO_AM_I = 0x%02X, want 0x%02X", id, whoAmIValue)
	}

	if err := d.writeRegister(regSMPLRTDiv, d.opts.SampleRateDiv); err != nil {
		return fmt.Errorf("imu: set sample rate divider: %w", err)
	}
	if err := d.writeRegister(regConfig, d.opts.DLPFConfig&0x07); err != nil {
		return fmt.Errorf("imu: set DLPF config: %w", err)
	}
	if err := d.writeRegister(regGyroConfig, (d.opts.GyroRange&0x03)<<3); err != nil {
		return fmt.Errorf("imu: set gyro range: %w", err)
	}
	if err := d.writeRegister(regAccelConfig, (d.opts.AccelRange&0x03)<<3); err != nil {
		return fmt.Errorf("imu: set accel range: %w", err)
	}
	if err := d.writeRegister(regAccelConfig2, d.opts.DLPFConfig&0x07); err != nil {
		return fmt.Errorf("imu: set accel DLPF: %w", err)
	}

	log.Printf("imu: accelerometer range %d (±%dg), gyroscope range %d (±%d°/s)",
		d.opts.AccelRange, []int{2, 4, 8, 16}[d.opts.AccelRange],
		d.opts.GyroRange, []int{250, 500, 1000, 2000}[d.opts.GyroRange])

	internalRate := 1000 // 1kHz for DLPF modes 0-6
	if d.opts.DLPFConfig == 7 {
		internalRate = 8000 // 8kHz when DLPF disabled
	}
	log.Printf("imu: DLPF config %d, sample rate divider %d (output rate: %d Hz)",
		d.opts.DLPFConfig, d.opts.SampleRateDiv, internalRate/(1+int(d.opts.SampleRateDiv)))

	return nil
}

// ReadRaw reads accelerometer and gyroscope data in one 14-byte burst
// starting at ACCEL_XOUT_H. The temperature words in the middle of the
// burst are skipped.
func (d *MPU9250) ReadRaw() (imu.Raw, error) {
	buf, err := d.readBurst(regAccelXOutH, 14)
	if err != nil {
		return imu.Raw{}, fmt.Errorf("imu: sensor burst read: %w", err)
	}

	word := func(i int) int16 { return int16(binary.BigEndian.Uint16(buf[i:])) }
	return imu.Raw{
		Ax: word(0),
		Ay: word(2),
		Az: word(4),
		Gx: word(8),
		Gy: word(10),
		Gz: word(12),
	}, nil
}

// Close releases the SPI port.
func (d *MPU9250) Close() error {
	return d.port.Close()
}

func (d *MPU9250) writeRegister(reg, value byte) error {
	return d.conn.Tx([]byte{reg &^ readFlag, value}, nil)
}

func (d *MPU9250) readRegister(reg byte) (byte, error) {
	buf, err := d.readBurst(reg, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *MPU9250) readBurst(reg byte, n int) ([]byte, error) {
	w := make([]byte, n+1)
	w[0] = reg | readFlag
	r := make([]byte, n+1)
	if err := d.conn.Tx(w, r); err != nil {
		return nil, err
	}
	return r[1:], nil
}

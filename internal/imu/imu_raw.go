package imu

// Raw represents a single raw IMU+mag sample as it comes off the sensor.
type Raw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Mx int16 `json:"mx"` // magnetometer
	My int16 `json:"my"`
	Mz int16 `json:"mz"`
}

// RawSource is anything that can produce raw IMU samples.
type RawSource interface {
	ReadRaw() (Raw, error)
}

// Scaled is a raw sample converted to physical units for the configured
// sensor ranges: accel in g, gyro in deg/s.
type Scaled struct {
	Ax, Ay, Az float64
	Gx, Gy, Gz float64
}

// Full-scale sensitivity tables, indexed by the range setting 0-3.
// Accelerometer: ±2/4/8/16 g. Gyroscope: ±250/500/1000/2000 deg/s.
var (
	accelLSBPerG  = [4]float64{16384, 8192, 4096, 2048}
	gyroLSBPerDPS = [4]float64{131, 65.5, 32.8, 16.4}
)

// Scale converts a raw sample to physical units. Range settings outside
// 0-3 fall back to the widest range; config validation rejects them long
// before data flows.
func (r Raw) Scale(accelRange, gyroRange byte) Scaled {
	if accelRange > 3 {
		accelRange = 3
	}
	if gyroRange > 3 {
		gyroRange = 3
	}
	ag := accelLSBPerG[accelRange]
	gg := gyroLSBPerDPS[gyroRange]
	return Scaled{
		Ax: float64(r.Ax) / ag,
		Ay: float64(r.Ay) / ag,
		Az: float64(r.Az) / ag,
		Gx: float64(r.Gx) / gg,
		Gy: float64(r.Gy) / gg,
		Gz: float64(r.Gz) / gg,
	}
}

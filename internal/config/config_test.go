package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `# motion tracker test config
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_PRODUCER=pose_producer
MQTT_CLIENT_ID_TRACKER=tracker

TOPIC_POSE=motion/pose
TOPIC_KINEMATICS=motion/kinematics
TOPIC_IMU_RAW=motion/imu
TOPIC_GPS=motion/gps

POSE_SOURCE=body1
POSE_SAMPLE_INTERVAL=10
POSE_USE_MOCK=true

CONSOLE_LOG_INTERVAL=1000
WEB_SERVER_PORT=8080
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "motion/pose", cfg.TopicPose)
	assert.Equal(t, "body1", cfg.PoseSource)
	assert.Equal(t, 10, cfg.PoseSampleInterval)
	assert.True(t, cfg.PoseUseMock)
	assert.Equal(t, 8080, cfg.WebServerPort)

	// Defaults survive when the file does not mention them.
	assert.InDelta(t, 0.98, cfg.OrientationGyroTrust, 1e-9)
	assert.InDelta(t, 101325.0, cfg.BaroReferencePressure, 1e-9)
	assert.Equal(t, 250, cfg.WebPushInterval)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"NO_SUCH_KEY=1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"this is not a key value pair\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config line")
}

func TestLoadRejectsBadRanges(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"IMU_ACCEL_RANGE=7\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMU_ACCEL_RANGE")

	_, err = Load(writeConfig(t, validConfig+"ORIENTATION_GYRO_TRUST=1.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORIENTATION_GYRO_TRUST")

	_, err = Load(writeConfig(t, validConfig+"DISPLAY_CONTENT=weather\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISPLAY_CONTENT")
}

func TestValidateRequiresBroker(t *testing.T) {
	_, err := Load(writeConfig(t, "TOPIC_POSE=motion/pose\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_BROKER is required")
}

func TestValidateRequiresHardwareWithoutMock(t *testing.T) {
	cfg := validConfig + "POSE_USE_MOCK=false\n"
	_, err := Load(writeConfig(t, cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMU_SPI_DEVICE is required")

	cfg += "IMU_SPI_DEVICE=/dev/spidev0.0\nGPS_SERIAL_PORT=/dev/ttyAMA0\nGPS_BAUD_RATE=9600\n"
	_, err = Load(writeConfig(t, cfg))
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

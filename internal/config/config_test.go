package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		MyHOMEServer: MyHOMEServerConfig{
			Host:          "192.168.1.35",
			Username:      "admin",
			TimeoutMillis: 5000,
		},
		MQTT: MQTTConfig{
			BaseTopic:        "MyHome",
			HADiscoveryTopic: "homeassistant",
		},
		MonitorConfig: MonitorConfig{
			PollIntervalMillis: 30000,
			ParallelUpdates:    10,
		},
	}
}

func TestValidate(t *testing.T) {

	require := require.New(t)

	cfg := validConfig()
	require.NoError(cfg.Validate())
	require.Equal("myhome", cfg.MQTT.BaseTopic)
	require.Equal(30*time.Second, cfg.MonitorConfig.PollInterval())
	require.Equal(5*time.Second, cfg.MyHOMEServer.Timeout())
}

func TestValidateErrors(t *testing.T) {

	require := require.New(t)

	cfg := validConfig()
	cfg.MyHOMEServer.Host = ""
	require.Error(cfg.Validate())

	cfg = validConfig()
	cfg.MQTT.BaseTopic = "my/home"
	require.Error(cfg.Validate())

	cfg = validConfig()
	cfg.MQTT.HADiscoveryTopic = ""
	require.Error(cfg.Validate())

	cfg = validConfig()
	cfg.MonitorConfig.PollIntervalMillis = 999
	require.Error(cfg.Validate())

	cfg = validConfig()
	cfg.MonitorConfig.ParallelUpdates = 0
	require.Error(cfg.Validate())

	cfg = validConfig()
	cfg.MyHOMEServer.TimeoutMillis = 0
	require.Error(cfg.Validate())

	cfg = validConfig()
	cfg.MQTT.HADiscoveryRepublishCron = "every hour"
	require.Error(cfg.Validate())
}

func TestValidateRepublishCron(t *testing.T) {

	require := require.New(t)

	cfg := validConfig()
	cfg.MQTT.HADiscoveryRepublishCron = "0 0 * * * *"
	require.NoError(cfg.Validate())

	cfg.MQTT.HADiscoveryRepublishCron = ""
	require.NoError(cfg.Validate())
}

func TestCheckMQTTTopic(t *testing.T) {

	require := require.New(t)

	topic, err := CheckMQTTTopic("Home_Assistant")
	require.NoError(err)
	require.Equal("home_assistant", topic)

	_, err = CheckMQTTTopic("home assistant")
	require.Error(err)
}

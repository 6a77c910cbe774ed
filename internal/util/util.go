package util

import (
	"github.com/berfenger/myhome2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MyHOMEServer: config.MyHOMEServerConfig{
			Host:          "-.-.-.-",
			Username:      "admin",
			TimeoutMillis: 2000,
		},
		MQTT: config.MQTTConfig{
			Host:                     "localhost",
			Port:                     1883,
			BaseTopic:                "myhome",
			HADiscoveryEnable:        true,
			HADiscoveryTopic:         "homeassistant",
			HADiscoveryRepublishCron: "0 0 * * * *",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 1000,
			ParallelUpdates:    2,
		},
		Port: 8080,
	}
}

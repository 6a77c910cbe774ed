package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel      zapcore.Level
	MyHOMEServer  MyHOMEServerConfig `mapstructure:"myhomeserver"`
	MQTT          MQTTConfig         `mapstructure:"mqtt"`
	MonitorConfig MonitorConfig      `mapstructure:"monitor"`
	Port          uint               `mapstructure:"port"`
	HttpLog       bool               `mapstructure:"http_log"`
}

type MyHOMEServerConfig struct {
	Host          string
	Username      string
	Password      string
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

func (c MyHOMEServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

type MonitorConfig struct {
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
	ParallelUpdates    int    `mapstructure:"parallel_updates"`
}

func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

type MQTTConfig struct {
	Host                     string
	Port                     int
	Username                 string
	Password                 string
	BaseTopic                string `mapstructure:"base_topic"`
	HADiscoveryEnable        bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic         string `mapstructure:"ha_discovery_topic"`
	HADiscoveryRepublishCron string `mapstructure:"ha_discovery_republish_cron"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds and normalizes topics in place.
func (cfg *Config) Validate() error {
	if cfg.MyHOMEServer.Host == "" {
		return errors.New("config param myhomeserver.host is required")
	}

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	if cfg.MonitorConfig.ParallelUpdates < 1 {
		return errors.New("config param monitor.parallel_updates should be >= 1")
	}
	if cfg.MyHOMEServer.TimeoutMillis < 100 {
		return errors.New("config param myhomeserver.timeout_millis should be >= 100")
	}

	// empty disables the scheduled republish
	if cfg.MQTT.HADiscoveryRepublishCron != "" {
		if _, err := quartz.NewCronTrigger(cfg.MQTT.HADiscoveryRepublishCron); err != nil {
			return fmt.Errorf("config param mqtt.ha_discovery_republish_cron is not a valid cron expression: %w", err)
		}
	}
	return nil
}

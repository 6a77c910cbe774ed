package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/myhome2mqtt/internal/adapter/actor"
	"github.com/berfenger/myhome2mqtt/internal/config"
	"github.com/berfenger/myhome2mqtt/internal/core/actor"
	"github.com/berfenger/myhome2mqtt/internal/cron"
	"github.com/berfenger/myhome2mqtt/internal/metrics"
	"github.com/berfenger/myhome2mqtt/internal/server"
	"github.com/berfenger/myhome2mqtt/internal/util/actorutil"
	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// init Hub actor provider
	hubProv, err := hubActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, hubProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	// scheduled discovery republish
	cronCtx, cancelCron := context.WithCancel(context.Background())
	defer cancelCron()
	if cfg.MQTT.HADiscoveryEnable && cfg.MQTT.HADiscoveryRepublishCron != "" {
		_, err := cron.StartDiscoveryRepublish(cronCtx, cfg.MQTT.HADiscoveryRepublishCron, ctx, pid, logger)
		if err != nil {
			panic(err)
		}
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	cancelCron()
	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => MYHOME_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("MYHOME_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("myhome")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func hubActorProvider(cfg *config.Config, logger *zap.Logger) (actor.HubActorProvider, error) {

	instrument := metrics.HubInstrument()
	hub, err := myhomeserver.NewHTTPHub(myhomeserver.Options{
		Host:       cfg.MyHOMEServer.Host,
		Username:   cfg.MyHOMEServer.Username,
		Password:   cfg.MyHOMEServer.Password,
		Timeout:    cfg.MyHOMEServer.Timeout(),
		Logger:     logger,
		Instrument: &instrument,
	})
	if err != nil {
		return nil, err
	}

	return func() *adactor.HubActor {
		return adactor.NewHubActor(hub, cfg.MyHOMEServer.Timeout(), logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("myhomeserver.host", "")
	viper.SetDefault("myhomeserver.username", "admin")
	viper.SetDefault("myhomeserver.password", "")
	viper.SetDefault("myhomeserver.timeout_millis", 5000)
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "myhome")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("mqtt.ha_discovery_republish_cron", "0 0 * * * *")
	viper.SetDefault("monitor.poll_interval_millis", 30000)
	viper.SetDefault("monitor.parallel_updates", 10)
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.MyHOMEServer.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}

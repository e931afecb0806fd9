package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/multilinear/airgradient-monitor/adapters/controller"
	"github.com/multilinear/airgradient-monitor/adapters/gateway"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel    string                  `toml:"loglevel"`
	AirGradient controller.DeviceConfig `toml:"airgradient"`
	InfluxDB    gateway.InfluxConfig    `toml:"influxdb"`
	Mqtt        gateway.MqttConfig      `toml:"mqtt"`
	Status      controller.StatusConfig `toml:"status"`
}

func openConfigFile(path string) (Config, error) {
	var conf Config
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return Config{}, errors.Join(err, errors.New("open config file "+path))
	}
	applyEnv(&conf)
	if err := conf.validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// applyEnv lets secrets stay out of the config file. A .env file is
// optional; plain environment variables work the same without it.
func applyEnv(conf *Config) {
	_ = godotenv.Load()
	if tok := os.Getenv("INFLUXDB_TOKEN"); tok != "" {
		conf.InfluxDB.Token = tok
	}
	if pw := os.Getenv("MQTT_PASSWORD"); pw != "" {
		conf.Mqtt.Password = pw
	}
}

func (c Config) validate() error {
	if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
		return errors.New("influxdb configuration is incomplete: url, org and bucket are required")
	}
	if c.InfluxDB.Token == "" {
		return errors.New("influxdb token missing: set it in the config file or via INFLUXDB_TOKEN")
	}
	if c.AirGradient.URL == "" && !c.AirGradient.Discover {
		return errors.New("airgradient url missing and discovery disabled")
	}
	if c.AirGradient.DelaySecs < 1 {
		return fmt.Errorf("airgradient delaysecs must be at least 1, got %d", c.AirGradient.DelaySecs)
	}
	return nil
}

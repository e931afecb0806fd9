package main

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func writeConfig(c *qt.C, dir, content string) string {
	path := filepath.Join(dir, "airgradient_monitor.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	c.Assert(err, qt.IsNil)
	return path
}

const fullConfig = `
loglevel = "Debug"

[airgradient]
url = "http://10.0.0.21"
delaysecs = 30
timeoutsecs = 5

[influxdb]
url = "http://localhost:8086"
token = "filetoken"
org = "home"
bucket = "airgradient"

[influxdb.tags]
location = "office"
host = "pi4"

[mqtt]
broker = "tcp://localhost:1883"
topic = "home/air"

[status]
addr = ":8080"
`

func TestOpenConfigFile(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, t.TempDir(), fullConfig)

	conf, err := openConfigFile(path)
	c.Assert(err, qt.IsNil)

	c.Assert(conf.LogLevel, qt.Equals, "Debug")
	c.Assert(conf.AirGradient.URL, qt.Equals, "http://10.0.0.21")
	c.Assert(conf.AirGradient.DelaySecs, qt.Equals, 30)
	c.Assert(conf.AirGradient.TimeoutSecs, qt.Equals, 5)
	c.Assert(conf.InfluxDB.Token, qt.Equals, "filetoken")
	c.Assert(conf.InfluxDB.Tags, qt.DeepEquals, map[string]string{
		"location": "office",
		"host":     "pi4",
	})
	c.Assert(conf.Mqtt.Broker, qt.Equals, "tcp://localhost:1883")
	c.Assert(conf.Status.Addr, qt.Equals, ":8080")
}

func TestOpenConfigFileMissing(t *testing.T) {
	c := qt.New(t)
	_, err := openConfigFile(filepath.Join(t.TempDir(), "nope.toml"))
	c.Assert(err, qt.IsNotNil)
}

func TestEnvOverridesSecrets(t *testing.T) {
	c := qt.New(t)
	t.Setenv("INFLUXDB_TOKEN", "envtoken")
	t.Setenv("MQTT_PASSWORD", "envpass")
	path := writeConfig(c, t.TempDir(), fullConfig)

	conf, err := openConfigFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(conf.InfluxDB.Token, qt.Equals, "envtoken")
	c.Assert(conf.Mqtt.Password, qt.Equals, "envpass")
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		name   string
		config string
		errpat string
	}{{
		name: "missing influx section",
		config: `
[airgradient]
url = "http://10.0.0.21"
delaysecs = 30
`,
		errpat: "influxdb configuration is incomplete.*",
	}, {
		name: "missing token",
		config: `
[airgradient]
url = "http://10.0.0.21"
delaysecs = 30

[influxdb]
url = "http://localhost:8086"
org = "home"
bucket = "airgradient"
`,
		errpat: "influxdb token missing.*",
	}, {
		name: "no device url and no discovery",
		config: `
[airgradient]
delaysecs = 30

[influxdb]
url = "http://localhost:8086"
token = "t"
org = "home"
bucket = "airgradient"
`,
		errpat: "airgradient url missing and discovery disabled",
	}, {
		name: "bad interval",
		config: `
[airgradient]
url = "http://10.0.0.21"

[influxdb]
url = "http://localhost:8086"
token = "t"
org = "home"
bucket = "airgradient"
`,
		errpat: "airgradient delaysecs must be at least 1, got 0",
	}}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			path := writeConfig(c, c.TempDir(), test.config)
			_, err := openConfigFile(path)
			c.Assert(err, qt.ErrorMatches, test.errpat)
		})
	}
}

package gateway

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/multilinear/airgradient-monitor/model"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

const measurement = "airgradient"

type InfluxConfig struct {
	URL       string            `toml:"url"`
	Token     string            `toml:"token"`
	Org       string            `toml:"org"`
	Bucket    string            `toml:"bucket"`
	Tags      map[string]string `toml:"tags"`
	LogLevelZ zerolog.Level
}

// Influx writes one point per reading to an InfluxDB v2 bucket using the
// blocking write API. The client is plain HTTP underneath, so a failed write
// needs no reconnect step; the next reading is the retry.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	tags     map[string]string
	logger   zerolog.Logger
	ctx      context.Context
}

// createLogger initializes and returns a new `zerolog.Logger` configured with the given log level.
// It sets the output to `os.Stdout` with RFC3339 time format and includes the instance name in the log context.
func initializeLogger(logLevel zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(logLevel).
		With().
		Timestamp().
		Str("instance", "influx").
		Logger()
}

// NewInflux connects the writer and pings the database once. A failed ping is
// only a warning: the sensor is often up before the database is.
func NewInflux(ctx context.Context, conf InfluxConfig) *Influx {
	l := initializeLogger(conf.LogLevelZ)
	client := influxdb2.NewClient(conf.URL, conf.Token)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if ok, err := client.Ping(pingCtx); err != nil || !ok {
		l.Warn().Err(err).Msgf("InfluxDB at %s not reachable yet", conf.URL)
	} else {
		l.Info().Msgf("connected to InfluxDB at %s", conf.URL)
	}

	return &Influx{
		client:   client,
		writeAPI: client.WriteAPIBlocking(conf.Org, conf.Bucket),
		tags:     conf.Tags,
		logger:   l,
		ctx:      ctx,
	}
}

// WriteReading implements service.Store.
func (i *Influx) WriteReading(reading model.Reading) error {
	ctx, cancel := context.WithTimeout(i.ctx, 10*time.Second)
	defer cancel()

	if err := i.writeAPI.WritePoint(ctx, i.point(reading)); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	i.logger.Debug().Msgf("point written, serialno: %s, aqi: %d", reading.SerialNo, reading.AQI)
	return nil
}

// point maps a reading onto the airgradient measurement: compensated
// temperature and humidity take the plain names, raw TVOC/NOx keep their
// index channels alongside.
func (i *Influx) point(reading model.Reading) *write.Point {
	m := reading.Measures
	p := influxdb2.NewPointWithMeasurement(measurement).
		AddField("rco2", m.RCO2).
		AddField("pm01", m.PM01).
		AddField("pm02", m.PM02).
		AddField("pm10", m.PM10).
		AddField("pm003Count", m.PM003Count).
		AddField("temp", m.AtmpCompensated).
		AddField("humidity", m.RhumCompensated).
		AddField("tvoc", m.TvocRaw).
		AddField("tvocIndex", m.TvocIndex).
		AddField("nox", m.NoxRaw).
		AddField("noxIndex", m.NoxIndex).
		AddField("aqi", reading.AQI).
		AddTag("firmware", m.Firmware).
		AddTag("model", m.Model).
		AddTag("serialno", m.SerialNo).
		SetTime(reading.Time)
	for k, v := range i.tags {
		p.AddTag(k, v)
	}
	return p
}

func (i *Influx) Close() {
	i.client.Close()
	i.logger.Warn().Msg("influx writer closed")
}

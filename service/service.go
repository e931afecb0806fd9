package service

import (
	"encoding/json"
	"os"
	"time"

	"github.com/multilinear/airgradient-monitor/model"
	"github.com/rs/zerolog"
)

// Store receives every decoded reading. Implementations are called in
// sequence from the poll loop and should hand off quickly.
type Store interface {
	WriteReading(reading model.Reading) error
}

type Service struct {
	logger zerolog.Logger
	stores []Store
	now    func() time.Time
}

func NewService(loglevel zerolog.Level, stores ...Store) *Service {
	logger := initializeLogger(loglevel)
	logger.Info().Msg("service start")
	return &Service{
		logger: logger,
		stores: stores,
		now:    time.Now,
	}
}

// createLogger initializes and returns a new `zerolog.Logger` configured with the given log level.
// It sets the output to `os.Stdout` with RFC3339 time format and includes the instance name in the log context.
func initializeLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("instance", "service").
		Logger()
}

// SendData takes one raw payload from the device, decodes it, derives the
// AQI and delivers the reading to every store. A bad payload or a failing
// store is logged and dropped; the next poll supersedes it.
func (s *Service) SendData(events []byte) {
	s.logger.Debug().Msgf("received data: %s", string(events))
	if !json.Valid(events) {
		s.logger.Error().Msgf("invalid JSON payload, size: %d", len(events))
		return
	}

	var m model.Measures
	if err := json.Unmarshal(events, &m); err != nil {
		s.logger.Error().Err(err).Msg("cannot decode measures payload")
		return
	}

	reading := model.Reading{
		Time:     s.now().UTC(),
		AQI:      ComputeAQI(m),
		Measures: m,
	}
	s.logger.Info().
		Str("serialno", m.SerialNo).
		Int("rco2", m.RCO2).
		Int("pm02", m.PM02).
		Int("aqi", reading.AQI).
		Msg("reading")

	for _, st := range s.stores {
		if err := st.WriteReading(reading); err != nil {
			s.logger.Warn().Err(err).Msgf("store %T failed", st)
		}
	}
}

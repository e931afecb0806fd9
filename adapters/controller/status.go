package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/multilinear/airgradient-monitor/model"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type StatusConfig struct {
	Addr      string `toml:"addr"`
	LogLevelZ zerolog.Level
}

// Status is a small local HTTP listener exposing daemon health and the most
// recent reading. It doubles as a service store so the poll loop keeps it
// up to date.
type Status struct {
	addr   string
	logger zerolog.Logger
	wg     *sync.WaitGroup
	ctx    context.Context

	mu     sync.RWMutex
	latest *model.Reading
}

func NewStatus(ctx context.Context, wg *sync.WaitGroup, conf StatusConfig) *Status {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(conf.LogLevelZ).
		With().
		Timestamp().
		Str("instance", "status").
		Logger()
	return &Status{
		addr:   conf.Addr,
		logger: logger,
		wg:     wg,
		ctx:    ctx,
	}
}

// WriteReading implements service.Store.
func (s *Status) WriteReading(reading model.Reading) error {
	s.mu.Lock()
	s.latest = &reading
	s.mu.Unlock()
	return nil
}

// Handler serves /health and /data. Wrapped with permissive CORS so a local
// dashboard page can fetch /data directly.
func (s *Status) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		latest := s.latest
		s.mu.RUnlock()
		if latest == nil {
			http.Error(w, "no reading yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(latest); err != nil {
			s.logger.Error().Err(err).Msg("encoding latest reading")
		}
	})
	return cors.Default().Handler(mux)
}

// Start runs the listener until the context is cancelled.
func (s *Status) Start() {
	s.logger.Info().Msgf("status listener on %s", s.addr)
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("status listener failed")
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			s.logger.Warn().Err(err).Msg("status listener shutdown")
		}
		s.logger.Warn().Msg("status listener stopped")
	}()
}

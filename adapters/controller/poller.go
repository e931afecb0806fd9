package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/multilinear/airgradient-monitor/model"

	"github.com/rs/zerolog"
)

const currentMeasuresPath = "/measures/current"

type DeviceConfig struct {
	URL         string `toml:"url"`
	DelaySecs   int    `toml:"delaysecs"`
	TimeoutSecs int    `toml:"timeoutsecs"`
	Discover    bool   `toml:"discover"`
	LogLevelZ   zerolog.Level
}

// Poller drives the daemon: one HTTP GET against the device per tick, raw
// body handed to the service.
type Poller struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   zerolog.Logger
	svc      model.IService
	wg       *sync.WaitGroup
	ctx      context.Context
}

// createLogger initializes and returns a new `zerolog.Logger` configured with the given log level.
// It sets the output to `os.Stdout` with RFC3339 time format and includes the instance name in the log context.
func initializeLogger(logLevel zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(logLevel).
		With().
		Timestamp().
		Str("instance", "poller").
		Logger()
}

// NewPoller builds the poll loop for the device described by conf. When the
// configured URL is empty and discovery is enabled, the device is located
// over mDNS first.
func NewPoller(ctx context.Context, wg *sync.WaitGroup, conf DeviceConfig, svc model.IService) (*Poller, error) {
	l := initializeLogger(conf.LogLevelZ)

	base := strings.TrimSuffix(conf.URL, "/")
	if base == "" {
		if !conf.Discover {
			return nil, errors.New("no device url configured and discovery disabled")
		}
		found, err := DiscoverDevice(ctx, l)
		if err != nil {
			return nil, errors.Join(err, errors.New("device discovery failed"))
		}
		base = found
	}

	timeout := time.Duration(conf.TimeoutSecs) * time.Second
	if conf.TimeoutSecs <= 0 {
		timeout = 10 * time.Second
	}

	return &Poller{
		url:      base + currentMeasuresPath,
		interval: time.Duration(conf.DelaySecs) * time.Second,
		client:   &http.Client{Timeout: timeout},
		logger:   l,
		svc:      svc,
		wg:       wg,
		ctx:      ctx,
	}, nil
}

// Start runs the poll loop in the calling goroutine until the context is
// cancelled. The first poll fires immediately, then once per interval.
func (p *Poller) Start() {
	p.logger.Info().Msgf("polling %s every %s", p.url, p.interval)

	p.wg.Add(1)
	ticker := time.NewTicker(p.interval)
	defer func() {
		ticker.Stop()
		p.logger.Warn().Msg("poller stopping")
		p.wg.Done()
	}()

	p.poll()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll fetches the current measures once. Failures are logged and swallowed,
// the next tick is the retry.
func (p *Poller) poll() {
	body, err := p.fetch()
	if err != nil {
		p.logger.Error().Err(err).Msg("poll failed")
		return
	}
	p.svc.SendData(body)
}

func (p *Poller) fetch() ([]byte, error) {
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device returned %s", resp.Status)
	}
	return body, nil
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/multilinear/airgradient-monitor/cert"
	"github.com/multilinear/airgradient-monitor/model"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
)

type MqttConfig struct {
	Broker    string `toml:"broker"`
	Topic     string `toml:"topic"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Cert      string `toml:"cert"`
	Key       string `toml:"key"`
	CABundle  string `toml:"cabundle"`
	LogLevelZ zerolog.Level
}

// Publisher pushes every reading as JSON onto an MQTT topic. Readings go
// through a buffered channel drained by the Start loop, so a slow broker
// never blocks the poll loop; an overflowing queue drops the reading.
type Publisher struct {
	topic    string
	logger   zerolog.Logger
	opt      *mqtt.ClientOptions
	ClientID uuid.UUID
	client   mqtt.Client
	wg       *sync.WaitGroup
	ctx      context.Context
	dataChan chan model.Reading
}

func publisherLogger(logLevel zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(logLevel).
		With().
		Timestamp().
		Str("instance", "mqtt").
		Logger()
}

// NewPublisher connects to the broker described by conf. TLS is mutual and
// only engaged when all three of cert, key and cabundle are configured.
func NewPublisher(ctx context.Context, wg *sync.WaitGroup, conf MqttConfig) (*Publisher, error) {
	l := publisherLogger(conf.LogLevelZ)
	cid := uuid.NewV4()

	opt := mqtt.NewClientOptions().
		AddBroker(conf.Broker).
		SetClientID("agmon-" + cid.String()).
		SetCleanSession(true).
		SetAutoReconnect(true)
	if conf.Username != "" {
		opt = opt.SetUsername(conf.Username).SetPassword(conf.Password)
	}
	if conf.Cert != "" || conf.Key != "" || conf.CABundle != "" {
		tlsConfig, err := cert.LoadCert(conf.Key, conf.Cert, conf.CABundle)
		if err != nil {
			return nil, errors.Join(err, errors.New("loading mqtt TLS config"))
		}
		if s, err := cert.ShowCertificate(conf.Cert); err == nil {
			l.Debug().Msgf("mqtt client certificate:\n%s", s)
		}
		opt = opt.SetTLSConfig(tlsConfig)
	}

	p := &Publisher{
		topic:    conf.Topic,
		logger:   l,
		opt:      opt,
		ClientID: cid,
		wg:       wg,
		ctx:      ctx,
		dataChan: make(chan model.Reading, 10),
	}
	p.opt = p.opt.SetOnConnectHandler(func(client mqtt.Client) {
		p.logger.Info().Msg("publisher connected to mqtt broker")
	})
	p.opt = p.opt.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		p.logger.Warn().Err(err).Msg("publisher connection lost")
	})

	return p, p.connect()
}

func (p *Publisher) connect() error {
	p.client = mqtt.NewClient(p.opt)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		p.logger.Error().Err(token.Error()).Msg("Error connecting to mqtt broker")
		return errors.Join(token.Error(), errors.New("error connecting to mqtt broker"))
	}
	return nil
}

// WriteReading implements service.Store.
func (p *Publisher) WriteReading(reading model.Reading) error {
	select {
	case p.dataChan <- reading:
		return nil
	default:
		return errors.New("mqtt publish queue full, reading dropped")
	}
}

// Start drains the publish queue until the context is cancelled.
func (p *Publisher) Start() {
	p.logger.Info().Msgf("mqtt publisher start, topic %s", p.topic)

	p.wg.Add(1)
	go func() {
		defer func() {
			p.client.Disconnect(250)
			p.logger.Warn().Msg("mqtt publisher disconnect")
			p.wg.Done()
		}()

		for {
			select {
			case <-p.ctx.Done():
				return
			case reading := <-p.dataChan:
				p.publish(reading)
			}
		}
	}()
}

func (p *Publisher) publish(reading model.Reading) {
	payload, err := json.Marshal(reading)
	if err != nil {
		p.logger.Error().Err(err).Msg("cannot encode reading")
		return
	}
	if token := p.client.Publish(p.topic, 0, false, payload); token.Wait() && token.Error() != nil {
		p.logger.Error().Err(token.Error()).Msg("Failed to publish reading")
	}
}

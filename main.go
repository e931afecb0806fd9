package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/multilinear/airgradient-monitor/adapters/controller"
	"github.com/multilinear/airgradient-monitor/adapters/gateway"
	"github.com/multilinear/airgradient-monitor/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultConfig = "/etc/airgradient_monitor.toml"

var logLevel map[string]zerolog.Level = map[string]zerolog.Level{
	"Trace":    zerolog.TraceLevel,
	"Debug":    zerolog.DebugLevel,
	"Info":     zerolog.InfoLevel,
	"Warn":     zerolog.WarnLevel,
	"Error":    zerolog.ErrorLevel,
	"Fatal":    zerolog.FatalLevel,
	"Panic":    zerolog.PanicLevel,
	"Disabled": zerolog.Disabled,
}

func main() {
	var (
		conf   Config
		influx *gateway.Influx
		pub    *gateway.Publisher
		status *controller.Status
		poller *controller.Poller
		svc    *service.Service
		wg     *sync.WaitGroup
		ctx    context.Context
		cancel context.CancelFunc
		sig    chan os.Signal
		err    error
	)

	args := os.Args
	wg = &sync.WaitGroup{}

	cfgPath := defaultConfig
	if len(args) > 1 {
		cfgPath = args[1]
	}
	fmt.Println("reading configuration file: ", cfgPath)
	conf, err = openConfigFile(cfgPath)
	if err != nil {
		processError(err)
	}

	// log level
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Str("instance", "main").Logger()
	if _, exists := logLevel[conf.LogLevel]; !exists {
		log.Warn().Msgf("log level %s not found, using default level %s", conf.LogLevel, "Info")
		conf.LogLevel = "Info"
	}
	level := logLevel[conf.LogLevel]
	zerolog.SetGlobalLevel(level)
	conf.AirGradient.LogLevelZ = level
	conf.InfluxDB.LogLevelZ = level
	conf.Mqtt.LogLevelZ = level
	conf.Status.LogLevelZ = level

	ctx, cancel = context.WithCancel(context.Background())

	// gateways first, they are the service's stores
	influx = gateway.NewInflux(ctx, conf.InfluxDB)
	stores := []service.Store{influx}

	if conf.Mqtt.Broker != "" {
		pub, err = gateway.NewPublisher(ctx, wg, conf.Mqtt)
		if err != nil {
			processError(err)
		}
		stores = append(stores, pub)
	}
	if conf.Status.Addr != "" {
		status = controller.NewStatus(ctx, wg, conf.Status)
		stores = append(stores, status)
	}

	svc = service.NewService(level, stores...)

	poller, err = controller.NewPoller(ctx, wg, conf.AirGradient, svc)
	if err != nil {
		processError(err)
	}

	sig = make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if pub != nil {
		pub.Start()
	}
	if status != nil {
		status.Start()
	}
	poller.Start()

	// give 500 ms grace period to flush all logs
	time.Sleep(500 * time.Millisecond)
	wg.Wait()
	influx.Close()
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

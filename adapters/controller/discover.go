package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"
)

const (
	mdnsService  = "_airgradient._tcp"
	mdnsTimeout  = 3 * time.Second
	mdnsAttempts = 5
)

var errNoDevice = errors.New("no airgradient device answered mDNS query")

// DiscoverDevice locates the sensor over mDNS and returns its base URL.
// Devices that just booted sometimes miss the first query, so the lookup is
// retried a few times before giving up.
func DiscoverDevice(ctx context.Context, logger zerolog.Logger) (string, error) {
	for i := 0; i < mdnsAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		url, err := queryDevice(logger)
		if err == nil {
			logger.Info().Msgf("discovered device at %s", url)
			return url, nil
		}
		if !errors.Is(err, errNoDevice) {
			return "", err
		}
		logger.Info().Msg("discovery timed out, will retry in a moment")
		time.Sleep(time.Second)
	}
	return "", errNoDevice
}

// deviceURL turns an mDNS entry into the device base URL. The mdns client
// forwards any announcement heard during the query window, not just answers
// to its own question, so entries for other services must be filtered out by
// name.
func deviceURL(e *mdns.ServiceEntry) (string, bool) {
	if !strings.Contains(e.Name, mdnsService) || e.AddrV4 == nil {
		return "", false
	}
	return fmt.Sprintf("http://%s:%d", e.AddrV4, e.Port), true
}

func queryDevice(logger zerolog.Logger) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	go func() {
		for e := range entries {
			logger.Debug().Msgf("mdns entry: %s (%s:%d)", e.Name, e.AddrV4, e.Port)
			url, ok := deviceURL(e)
			if !ok {
				continue
			}
			select {
			case found <- url:
			default:
			}
		}
	}()

	err := mdns.Query(&mdns.QueryParam{
		Service:     mdnsService,
		Entries:     entries,
		Timeout:     mdnsTimeout,
		DisableIPv6: true,
	})
	close(entries)
	if err != nil {
		return "", err
	}

	select {
	case url := <-found:
		return url, nil
	default:
		return "", errNoDevice
	}
}

package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/multilinear/airgradient-monitor/model"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"
)

func newTestStatus() *Status {
	return NewStatus(context.Background(), &sync.WaitGroup{}, StatusConfig{
		Addr:      ":0",
		LogLevelZ: zerolog.Disabled,
	})
}

func TestStatusHealth(t *testing.T) {
	c := qt.New(t)
	h := newTestStatus().Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), qt.Equals, "OK")
}

func TestStatusDataBeforeFirstReading(t *testing.T) {
	c := qt.New(t)
	h := newTestStatus().Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/data", nil))

	c.Assert(rec.Code, qt.Equals, http.StatusServiceUnavailable)
}

func TestStatusDataServesLatestReading(t *testing.T) {
	c := qt.New(t)
	s := newTestStatus()

	first := model.Reading{
		Time:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		AQI:      27,
		Measures: model.Measures{SerialNo: "84fce612eff4", RCO2: 620},
	}
	second := first
	second.AQI = 83
	second.RCO2 = 710
	c.Assert(s.WriteReading(first), qt.IsNil)
	c.Assert(s.WriteReading(second), qt.IsNil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/data", nil))

	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Header().Get("Content-Type"), qt.Equals, "application/json")

	var got model.Reading
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &got), qt.IsNil)
	c.Assert(got.AQI, qt.Equals, 83)
	c.Assert(got.RCO2, qt.Equals, 710)
	c.Assert(got.SerialNo, qt.Equals, "84fce612eff4")
}

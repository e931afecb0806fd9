package service

import (
	"testing"

	"github.com/multilinear/airgradient-monitor/model"

	qt "github.com/frankban/quicktest"
)

func TestPollutantAQI(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		name string
		conc float64
		bp   [7]float64
		want int
	}{
		{"zero", 0, pm25Breakpoints, 0},
		{"negative clamps to zero", -3, pm25Breakpoints, 0},
		{"good band", 5, pm25Breakpoints, 27},
		{"good/moderate boundary", 9.0, pm25Breakpoints, 50},
		{"moderate band", 20, pm25Breakpoints, 70},
		{"moderate/usg boundary", 35.4, pm25Breakpoints, 100},
		{"pm10 moderate band", 120, pm10Breakpoints, 83},
		{"top breakpoint clamps", 325.4, pm25Breakpoints, 500},
		{"beyond table clamps", 1200, pm25Breakpoints, 500},
	}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			c.Assert(pollutantAQI(test.conc, test.bp), qt.Equals, test.want)
		})
	}
}

func TestComputeAQITakesWorstPollutant(t *testing.T) {
	c := qt.New(t)
	// PM2.5 alone would be 27, PM10 pushes it to 83.
	m := model.Measures{PM02: 5, PM10: 120}
	c.Assert(ComputeAQI(m), qt.Equals, 83)

	// And the other way around.
	m = model.Measures{PM02: 20, PM10: 10}
	c.Assert(ComputeAQI(m), qt.Equals, 70)
}

package service

import "github.com/multilinear/airgradient-monitor/model"

// US EPA AQI scale and pollutant breakpoint tables, per
// https://en.wikipedia.org/wiki/Air_quality_index#United_States
var aqiScale = [7]float64{0, 50, 100, 150, 200, 300, 500}

var (
	pm25Breakpoints = [7]float64{0, 9.0, 35.4, 55.4, 125.4, 225.4, 325.4}
	pm10Breakpoints = [7]float64{0, 54, 154, 254, 354, 424, 604}
)

// pollutantAQI interpolates one concentration onto the AQI scale within its
// breakpoint band. Concentrations at or above the top breakpoint clamp to 500.
func pollutantAQI(conc float64, bp [7]float64) int {
	if conc <= 0 {
		return 0
	}
	if conc >= bp[6] {
		return 500
	}
	i := 1
	for conc >= bp[i] {
		i++
	}
	return int((aqiScale[i]-aqiScale[i-1])/(bp[i]-bp[i-1])*(conc-bp[i-1]) + aqiScale[i-1])
}

// ComputeAQI reports the US AQI for a set of measures: the worst of the
// per-pollutant values. Only the particulate channels take part; the sensor's
// raw NOx channel is not in the unit the EPA table wants.
func ComputeAQI(m model.Measures) int {
	v := pollutantAQI(float64(m.PM02), pm25Breakpoints)
	if w := pollutantAQI(float64(m.PM10), pm10Breakpoints); w > v {
		v = w
	}
	return v
}

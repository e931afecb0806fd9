package model

import "time"

type IService interface {
	SendData(events []byte)
}

// Measures mirrors the JSON document the AirGradient firmware serves at
// /measures/current. Field names follow the device's own casing.
type Measures struct {
	Wifi            int     `json:"wifi"`
	SerialNo        string  `json:"serialno"`
	RCO2            int     `json:"rco2"`
	PM01            int     `json:"pm01"`
	PM02            int     `json:"pm02"`
	PM10            int     `json:"pm10"`
	PM003Count      int     `json:"pm003Count"`
	Atmp            float64 `json:"atmp"`
	Rhum            int     `json:"rhum"`
	AtmpCompensated float64 `json:"atmpCompensated"`
	RhumCompensated int     `json:"rhumCompensated"`
	TvocIndex       int     `json:"tvocIndex"`
	TvocRaw         int     `json:"tvocRaw"`
	NoxIndex        int     `json:"noxIndex"`
	NoxRaw          int     `json:"noxRaw"`
	Boot            int     `json:"boot"`
	BootCount       int     `json:"bootCount"`
	LedMode         string  `json:"ledMode"`
	Firmware        string  `json:"firmware"`
	Model           string  `json:"model"`
}

// Reading is one polled set of measures, stamped when it was received and
// annotated with the derived US AQI value.
type Reading struct {
	Time     time.Time `json:"time"`
	AQI      int       `json:"aqi"`
	Measures `json:"measures"`
}

package apimodel

// InverterMetrics is the AC-side snapshot reported by one inverter.
type InverterMetrics struct {
	AcPower    float64 `json:"ac_power"`    // W
	YieldDay   float64 `json:"yield_day"`   // Wh
	YieldTotal float64 `json:"yield_total"` // kWh
}

type InverterLiveData struct {
	Serial    string `json:"serial"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	Reachable bool   `json:"reachable"`
	InverterMetrics
}

type LiveData struct {
	Reachable       bool               `json:"reachable"`
	TotalAcPower    float64            `json:"total_ac_power"`
	TotalYieldDay   float64            `json:"total_yield_day"`
	TotalYieldTotal float64            `json:"total_yield_total"`
	Inverters       []InverterLiveData `json:"inverters"`
}

package config

import (
	_ "embed"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	DisplayParam   DisplayParam   `yaml:"display"`
	DatastoreParam DatastoreParam `yaml:"datastore"`
	ApiParam       ApiParam       `yaml:"api"`
}

type DisplayParam struct {
	// Type selects the panel driver: none, pcd8544, ssd1306, sh1106,
	// ssd1309 or st7567.
	Type string `yaml:"type"`

	// Bus is a periph.io i2c/spi bus name, empty picks the first one.
	Bus      string `yaml:"bus"`
	ResetPin string `yaml:"reset_pin"`
	DcPin    string `yaml:"dc_pin"`

	Rotation    int          `yaml:"rotation"` // 0..3, quarter turns
	Contrast    int          `yaml:"contrast"` // 0..100
	Locale      string       `yaml:"locale"`
	PowerSafe   bool         `yaml:"power_safe"`
	Screensaver bool         `yaml:"screensaver"`
	Interval    int64        `yaml:"interval"` // render tick, seconds
	Diagram     DiagramParam `yaml:"diagram"`
}

type DiagramParam struct {
	Mode       int    `yaml:"mode"` // 0 off, 1 small, 2 fullscreen
	SampleCron string `yaml:"sample_cron"`
}

type DatastoreParam struct {
	PollInterval int64       `yaml:"poll_interval"` // seconds
	Timeout      int64       `yaml:"timeout"`       // reachability, seconds
	Inverters    []*Inverter `yaml:"inverters"`
}

type Inverter struct {
	Serial  string `yaml:"serial"`
	Name    string `yaml:"name"`
	Url     string `yaml:"url,omitempty"` // polled when set, pushed otherwise
	Enabled bool   `yaml:"enabled"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

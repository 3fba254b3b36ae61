package i18n

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Strings holds the format templates used by the status display.
// The power and yield templates carry exactly one floating point
// specifier, the date template follows strftime semantics.
type Strings struct {
	DateFormat    string `yaml:"date_format"`
	Offline       string `yaml:"offline"`
	PowerW        string `yaml:"power_w"`
	PowerKw       string `yaml:"power_kw"`
	YieldDayWh    string `yaml:"yield_day_wh"`
	YieldDayKwh   string `yaml:"yield_day_kwh"`
	YieldTotalKwh string `yaml:"yield_total_kwh"`
	YieldTotalMwh string `yaml:"yield_total_mwh"`
}

// Locales lists the supported locale codes, default first.
var Locales = []string{"en", "de", "fr"}

var defaults = map[string]Strings{
	"en": {
		DateFormat:    "%m/%d/%Y %H:%M",
		Offline:       "Offline",
		PowerW:        "%.0f W",
		PowerKw:       "%.1f kW",
		YieldDayWh:    "today: %4.0f Wh",
		YieldDayKwh:   "today: %.1f kWh",
		YieldTotalKwh: "total: %.1f kWh",
		YieldTotalMwh: "total: %.0f kWh",
	},
	"de": {
		DateFormat:    "%d.%m.%Y %H:%M",
		Offline:       "Offline",
		PowerW:        "%.0f W",
		PowerKw:       "%.1f kW",
		YieldDayWh:    "Heute: %4.0f Wh",
		YieldDayKwh:   "Heute: %.1f kWh",
		YieldTotalKwh: "Ges.: %.1f kWh",
		YieldTotalMwh: "Ges.: %.0f kWh",
	},
	"fr": {
		DateFormat:    "%d/%m/%Y %H:%M",
		Offline:       "Offline",
		PowerW:        "%.0f W",
		PowerKw:       "%.1f kW",
		YieldDayWh:    "auj.: %4.0f Wh",
		YieldDayKwh:   "auj.: %.1f kWh",
		YieldTotalKwh: "total: %.1f kWh",
		YieldTotalMwh: "total: %.0f kWh",
	},
}

// Select returns the template set for the given locale code, falling
// back to English when the code is not supported.
func Select(code string) Strings {
	s, ok := defaults[code]
	if !ok {
		s = defaults[Locales[0]]
	}
	return s
}

// Merge overlays the non-empty fields of o. Overridden templates are
// not validated, a bad specifier degrades to garbage text on screen.
func (s *Strings) Merge(o Strings) {
	if o.DateFormat != "" {
		s.DateFormat = o.DateFormat
	}
	if o.Offline != "" {
		s.Offline = o.Offline
	}
	if o.PowerW != "" {
		s.PowerW = o.PowerW
	}
	if o.PowerKw != "" {
		s.PowerKw = o.PowerKw
	}
	if o.YieldDayWh != "" {
		s.YieldDayWh = o.YieldDayWh
	}
	if o.YieldDayKwh != "" {
		s.YieldDayKwh = o.YieldDayKwh
	}
	if o.YieldTotalKwh != "" {
		s.YieldTotalKwh = o.YieldTotalKwh
	}
	if o.YieldTotalMwh != "" {
		s.YieldTotalMwh = o.YieldTotalMwh
	}
}

// LoadOverrides reads an optional per-locale string table. A missing
// file is not an error, the defaults stay in place.
func LoadOverrides(filename string) map[string]Strings {
	rawTable, err := ioutil.ReadFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("Unable to read display string table %s: %v", filename, err)
		}
		return nil
	}

	overrides := map[string]Strings{}
	err = yaml.Unmarshal(rawTable, &overrides)
	if err != nil {
		logrus.Warnf("Unable to interpret display string table %s: %v", filename, err)
		return nil
	}
	return overrides
}

// FormatDate renders t with a strftime template. A broken template
// falls back to its literal text.
func FormatDate(template string, t time.Time) string {
	out, err := strftime.Format(template, t)
	if err != nil {
		return template
	}
	return out
}

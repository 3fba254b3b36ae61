package device

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/plieven/OpenDTU/apimodel"
	"github.com/plieven/OpenDTU/internal/srv/config"
	"github.com/sirupsen/logrus"
)

// Datastore aggregates the live data of the configured inverters.
// Inverters with an URL are polled periodically, the others report
// through the API push endpoint.
type Datastore struct {
	lock sync.RWMutex

	serverConfig *config.ServerConfig
	client       *http.Client

	records []*inverterRecord
	timeout time.Duration

	now func() time.Time

	pollTicker *time.Ticker
	askDone    chan bool
	done       chan bool
}

type inverterRecord struct {
	serial  string
	name    string
	url     string
	enabled bool

	metrics  apimodel.InverterMetrics
	lastSeen time.Time
}

func NewDatastore(serverConfig *config.ServerConfig) *Datastore {
	param := serverConfig.ServerParam.DatastoreParam

	timeout := time.Duration(param.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	d := &Datastore{
		serverConfig: serverConfig,
		client:       &http.Client{Timeout: 5 * time.Second},
		timeout:      timeout,
		now:          time.Now,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}

	for _, inverter := range param.Inverters {
		d.records = append(d.records, &inverterRecord{
			serial:  inverter.Serial,
			name:    inverter.Name,
			url:     inverter.Url,
			enabled: inverter.Enabled,
		})
	}

	return d
}

func (d *Datastore) Start() {
	logrus.Infof("Start datastore device")

	pollInterval := time.Duration(d.serverConfig.ServerParam.DatastoreParam.PollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	d.pollTicker = time.NewTicker(pollInterval)

	go func() {
		d.pollAll()
		for loop := true; loop; {
			select {
			case <-d.pollTicker.C:
				d.pollAll()
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Datastore) Stop() {
	logrus.Infof("Stop datastore device")

	d.pollTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Datastore) pollAll() {
	d.lock.RLock()
	records := make([]*inverterRecord, len(d.records))
	copy(records, d.records)
	d.lock.RUnlock()

	for _, record := range records {
		if record.url == "" {
			continue
		}
		metrics, err := d.poll(record.url)
		if err != nil {
			logrus.Debugf("Inverter %s not reachable: %v", record.serial, err)
			continue
		}
		d.update(record.serial, metrics)
	}
}

func (d *Datastore) poll(url string) (apimodel.InverterMetrics, error) {
	var metrics apimodel.InverterMetrics

	resp, err := d.client.Get(url)
	if err != nil {
		return metrics, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return metrics, errors.New(resp.Status)
	}

	err = json.NewDecoder(resp.Body).Decode(&metrics)
	return metrics, err
}

// Push records metrics reported by an inverter itself. Unknown
// serials are rejected, the inverter list is configuration.
func (d *Datastore) Push(serial string, metrics apimodel.InverterMetrics) error {
	if !d.update(serial, metrics) {
		return errors.New("unknown inverter serial " + serial)
	}
	return nil
}

func (d *Datastore) update(serial string, metrics apimodel.InverterMetrics) bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	for _, record := range d.records {
		if record.serial == serial {
			record.metrics = metrics
			record.lastSeen = d.now()
			return true
		}
	}
	return false
}

func (d *Datastore) reachable(record *inverterRecord, now time.Time) bool {
	return !record.lastSeen.IsZero() && now.Sub(record.lastSeen) < d.timeout
}

func (d *Datastore) IsAtLeastOneReachable() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()

	now := d.now()
	for _, record := range d.records {
		if d.reachable(record, now) {
			return true
		}
	}
	return false
}

func (d *Datastore) TotalAcPowerEnabled() float64 {
	return d.totalEnabled(func(m apimodel.InverterMetrics) float64 { return m.AcPower })
}

func (d *Datastore) TotalAcYieldDayEnabled() float64 {
	return d.totalEnabled(func(m apimodel.InverterMetrics) float64 { return m.YieldDay })
}

func (d *Datastore) TotalAcYieldTotalEnabled() float64 {
	return d.totalEnabled(func(m apimodel.InverterMetrics) float64 { return m.YieldTotal })
}

func (d *Datastore) totalEnabled(field func(apimodel.InverterMetrics) float64) float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()

	now := d.now()
	total := 0.0
	for _, record := range d.records {
		if record.enabled && d.reachable(record, now) {
			total += field(record.metrics)
		}
	}
	return total
}

func (d *Datastore) LiveData() apimodel.LiveData {
	d.lock.RLock()
	defer d.lock.RUnlock()

	now := d.now()
	liveData := apimodel.LiveData{}
	for _, record := range d.records {
		reachable := d.reachable(record, now)
		liveData.Inverters = append(liveData.Inverters, apimodel.InverterLiveData{
			Serial:          record.serial,
			Name:            record.name,
			Enabled:         record.enabled,
			Reachable:       reachable,
			InverterMetrics: record.metrics,
		})
		if reachable {
			liveData.Reachable = true
			if record.enabled {
				liveData.TotalAcPower += record.metrics.AcPower
				liveData.TotalYieldDay += record.metrics.YieldDay
				liveData.TotalYieldTotal += record.metrics.YieldTotal
			}
		}
	}
	return liveData
}

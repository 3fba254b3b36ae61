package config

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"sync"
	"time"
)

// ServerState keeps the display settings applied at runtime through
// the API so they survive a restart. Saves are debounced.
type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

func NewServerState(completeStateFilename string) *ServerState {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
	}

	rawConfig, err := ioutil.ReadFile(completeStateFilename)
	if err == nil {
		// Interpret state file
		err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret state file: %v\n", err)
		}
	} else {
		// Create default state file
		logrus.Infof("Create default state file")
		serverState.SetDisplayState(DisplayState{
			PowerOn:     true,
			Rotation:    -1,
			Contrast:    -1,
			DiagramMode: -1,
		})
	}

	return serverState
}

func (ss *ServerState) DisplayState() DisplayState {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.Display
}

func (ss *ServerState) SetDisplayState(displayState DisplayState) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.Display = displayState
	ss.scheduleSave()
}

func (ss *ServerState) UpdateDisplayState(update func(*DisplayState)) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	update(&ss.serverStateConfig.Display)
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(10*time.Second, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(10 * time.Second)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Fatalf("Unable to serialize state file: %v\n", err)
	}
	err = ioutil.WriteFile(ss.completeStateFilename, rawConfig, 0660)
	if err != nil {
		logrus.Fatalf("Unable to save state file: %v\n", err)
	}
}

func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}

type ServerStateConfig struct {
	Display DisplayState `yaml:"display"`
}

// DisplayState carries the API-adjustable display settings. Numeric
// fields use -1 and Locale uses "" to mean "keep the param value".
type DisplayState struct {
	PowerOn     bool   `yaml:"power_on"`
	Locale      string `yaml:"locale"`
	Rotation    int    `yaml:"rotation"`
	Contrast    int    `yaml:"contrast"`
	DiagramMode int    `yaml:"diagram_mode"`
}

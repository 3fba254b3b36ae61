package srv

import (
	"os"

	"github.com/plieven/OpenDTU/internal/srv/config"
	"github.com/plieven/OpenDTU/internal/srv/device"
	"github.com/plieven/OpenDTU/internal/version"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type ServerApp struct {
	*config.ServerConfig

	datastoreDevice *device.Datastore
	networkDevice   *device.Network
	displayDevice   *device.Display
	apiDevice       *device.Api

	scheduler *cron.Cron

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of OpenDTU server %s ...", version.AppVersion.String())

	app := &ServerApp{
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode),
		scheduler:        cron.New(),
	}

	app.datastoreDevice = device.NewDatastore(app.ServerConfig)
	app.networkDevice = device.NewNetwork()
	app.displayDevice = device.NewDisplay(app.ServerConfig, app.datastoreDevice, app.networkDevice)
	app.apiDevice = device.NewApi(app.ServerConfig, app.datastoreDevice)

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting OpenDTU server ...")

	logrus.Printf("Starting devices ...")

	// Start datastore device
	s.datastoreDevice.Start()

	// Start display device
	s.displayDevice.Start(s.scheduler)

	// Start diagram sampling and other scheduled jobs
	s.scheduler.Start()

	// Start event loop
	go s.eventLoop()

	// Start api device
	if s.ServerConfig.ServerParam.ApiParam.Enabled {
		s.apiDevice.Start()
	}
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping OpenDTU server ...")

	// Stop api
	if s.ServerConfig.ServerParam.ApiParam.Enabled {
		s.apiDevice.StopSendingEvent()
	}

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop scheduled jobs
	s.scheduler.Stop()

	// Stop display device
	s.displayDevice.Stop()

	// Stop datastore device
	s.datastoreDevice.Stop()

	// Flush config backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")

	os.Exit(0)
}

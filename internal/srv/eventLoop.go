package srv

import (
	"github.com/plieven/OpenDTU/internal/srv/config"
	"github.com/plieven/OpenDTU/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// eventLoop funnels all reconfiguration into one goroutine, between
// display cycles.
func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.apiDevice.EventChannel():
			switch data := ev.Data.(type) {
			case event.ApiEventSetLocaleData:
				logrus.Infof("Receive api set locale event: %s", data.Locale)
				s.displayDevice.SetLocale(data.Locale)
				s.ServerState.UpdateDisplayState(func(ds *config.DisplayState) {
					ds.Locale = data.Locale
				})
				ev.Result <- nil
			case event.ApiEventSetRotationData:
				logrus.Infof("Receive api set rotation event: %d", data.Rotation)
				s.displayDevice.SetOrientation(data.Rotation)
				s.ServerState.UpdateDisplayState(func(ds *config.DisplayState) {
					ds.Rotation = data.Rotation
				})
				ev.Result <- nil
			case event.ApiEventSetDiagramModeData:
				logrus.Infof("Receive api set diagram mode event: %d", data.Mode)
				s.displayDevice.SetDiagramMode(data.Mode)
				s.ServerState.UpdateDisplayState(func(ds *config.DisplayState) {
					ds.DiagramMode = data.Mode
				})
				ev.Result <- nil
			case event.ApiEventSetContrastData:
				logrus.Infof("Receive api set contrast event: %d", data.Contrast)
				s.displayDevice.SetContrast(data.Contrast)
				s.ServerState.UpdateDisplayState(func(ds *config.DisplayState) {
					ds.Contrast = data.Contrast
				})
				ev.Result <- nil
			case event.ApiEventSetPowerData:
				logrus.Infof("Receive api set power event: %v", data.On)
				s.displayDevice.SetStatus(data.On)
				s.ServerState.UpdateDisplayState(func(ds *config.DisplayState) {
					ds.PowerOn = data.On
				})
				ev.Result <- nil
			case event.ApiEventInverterPushData:
				logrus.Debugf("Receive api inverter push event: %s", data.Serial)
				ev.Result <- s.datastoreDevice.Push(data.Serial, data.Metrics)
			default:
				ev.Result <- nil
			}
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

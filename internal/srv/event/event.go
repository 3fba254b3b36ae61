package event

import (
	"github.com/plieven/OpenDTU/apimodel"
)

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventSetLocaleData struct {
	Locale string
}

type ApiEventSetRotationData struct {
	Rotation int
}

type ApiEventSetDiagramModeData struct {
	Mode int
}

type ApiEventSetContrastData struct {
	Contrast int
}

type ApiEventSetPowerData struct {
	On bool
}

type ApiEventInverterPushData struct {
	Serial  string
	Metrics apimodel.InverterMetrics
}

package device

import (
	"image"

	"github.com/plieven/OpenDTU/internal/srv/config"
	"periph.io/x/host/v3"
)

// DisplayType tags the supported panel controllers. Each value wraps
// its own transport and command set, selected once at initialization.
type DisplayType int

const (
	DisplayNone DisplayType = iota
	DisplayPCD8544
	DisplaySSD1306
	DisplaySH1106
	DisplaySSD1309
	DisplayST7567
	displayTypeMax
)

func ParseDisplayType(name string) DisplayType {
	switch name {
	case "pcd8544":
		return DisplayPCD8544
	case "ssd1306":
		return DisplaySSD1306
	case "sh1106":
		return DisplaySH1106
	case "ssd1309":
		return DisplaySSD1309
	case "st7567":
		return DisplayST7567
	default:
		return DisplayNone
	}
}

func (t DisplayType) valid() bool {
	return t > DisplayNone && t < displayTypeMax
}

// size returns the native pixel dimensions of the panel.
func (t DisplayType) size() (width, height int) {
	if t == DisplayPCD8544 {
		return 84, 48
	}
	return 128, 64
}

// panel is the transport side of a display: it receives complete
// frames in native orientation and the raw panel controls.
type panel interface {
	draw(img image.Image)
	setContrast(level uint8)
	setPowerSave(on bool)
	close()
}

func newSurface(displayType DisplayType, param config.DisplayParam, simulationMode bool) (Surface, error) {
	width, height := displayType.size()

	if simulationMode {
		return newMonoSurface(newSimPanel(width, height), width, height), nil
	}

	if _, err := host.Init(); err != nil {
		return nil, err
	}

	var p panel
	var err error
	switch displayType {
	case DisplayPCD8544:
		p, err = newPcd8544Panel(param.Bus, param.DcPin, param.ResetPin)
	case DisplayST7567:
		p, err = newSt7567Panel(param.Bus)
	default:
		// The SSD1306, SH1106 and SSD1309 share the SSD1306 command set.
		p, err = newSsd1306Panel(param.Bus)
	}
	if err != nil {
		return nil, err
	}
	return newMonoSurface(p, width, height), nil
}

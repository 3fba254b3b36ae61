package device

import (
	"image"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
)

// ssd1306Panel drives the SSD1306 OLED family over I²C.
type ssd1306Panel struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev

	contrast  uint8
	powerSave bool
}

func newSsd1306Panel(busName string) (*ssd1306Panel, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, err
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, err
	}

	return &ssd1306Panel{bus: bus, dev: dev, contrast: 0xff}, nil
}

func (p *ssd1306Panel) draw(img image.Image) {
	if p.powerSave {
		return
	}
	err := p.dev.Draw(p.dev.Bounds(), img, image.Point{})
	if err != nil {
		logrus.Warnf("Unable to push frame to oled display: %v", err)
	}
}

func (p *ssd1306Panel) setContrast(level uint8) {
	p.contrast = level
	err := p.dev.SetContrast(level)
	if err != nil {
		logrus.Warnf("Unable to set oled contrast: %v", err)
	}
}

func (p *ssd1306Panel) setPowerSave(on bool) {
	if on == p.powerSave {
		return
	}
	p.powerSave = on
	if on {
		if err := p.dev.Halt(); err != nil {
			logrus.Warnf("Unable to halt oled display: %v", err)
		}
		return
	}
	// Re-applying the contrast turns the panel back on (calling Draw
	// alone is not enough).
	if err := p.dev.SetContrast(p.contrast); err != nil {
		logrus.Warnf("Unable to wake oled display: %v", err)
	}
}

func (p *ssd1306Panel) close() {
	p.bus.Close()
}

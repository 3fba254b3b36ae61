package device

import (
	"image"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// The ST7567 GM12864 module does not share the usual 0x3c address.
const st7567Addr = 0x3f

// st7567Panel drives a 128x64 ST7567 LCD over I²C with the raw
// command set.
type st7567Panel struct {
	bus i2c.BusCloser
	dev *i2c.Dev

	powerSave bool
}

func newSt7567Panel(busName string) (*st7567Panel, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, err
	}

	p := &st7567Panel{
		bus: bus,
		dev: &i2c.Dev{Bus: bus, Addr: st7567Addr},
	}

	err = p.cmd(
		0xe2,       // soft reset
		0xa2,       // bias 1/9
		0xa0,       // segment direction
		0xc8,       // com direction reversed
		0x24,       // regulation ratio
		0x81, 0x20, // electronic volume
		0x2f, // booster, regulator and follower on
		0x40, // start line 0
		0xa4, // pixels follow RAM
		0xaf, // display on
	)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return p, nil
}

func (p *st7567Panel) cmd(commands ...byte) error {
	return p.dev.Tx(append([]byte{0x00}, commands...), nil)
}

func (p *st7567Panel) data(data []byte) error {
	return p.dev.Tx(append([]byte{0x40}, data...), nil)
}

func (p *st7567Panel) draw(img image.Image) {
	if p.powerSave {
		return
	}

	bounds := img.Bounds()
	for page := 0; page < 8; page++ {
		if err := p.cmd(0xb0|byte(page), 0x10, 0x00); err != nil {
			logrus.Warnf("Unable to address lcd page: %v", err)
			return
		}
		row := make([]byte, 128)
		for x := 0; x < 128 && x < bounds.Dx(); x++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				y := page*8 + bit
				if y >= bounds.Dy() {
					break
				}
				r, g, bl, _ := img.At(x, y).RGBA()
				if r|g|bl != 0 {
					b |= 1 << bit
				}
			}
			row[x] = b
		}
		if err := p.data(row); err != nil {
			logrus.Warnf("Unable to push frame to lcd: %v", err)
			return
		}
	}
}

func (p *st7567Panel) setContrast(level uint8) {
	// Electronic volume takes 6 bits.
	if err := p.cmd(0x81, level>>2); err != nil {
		logrus.Warnf("Unable to set lcd contrast: %v", err)
	}
}

func (p *st7567Panel) setPowerSave(on bool) {
	if on == p.powerSave {
		return
	}
	p.powerSave = on
	var err error
	if on {
		// Display off plus all-pixels-on enters sleep.
		err = p.cmd(0xae, 0xa5)
	} else {
		err = p.cmd(0xa4, 0xaf)
	}
	if err != nil {
		logrus.Warnf("Unable to switch lcd power save: %v", err)
	}
}

func (p *st7567Panel) close() {
	p.bus.Close()
}

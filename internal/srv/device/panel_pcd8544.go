package device

import (
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// pcd8544Panel drives an 84x48 PCD8544 LCD (Nokia 5110 module) over
// SPI with a separate data/command pin.
type pcd8544Panel struct {
	port spi.PortCloser
	conn spi.Conn
	dc   gpio.PinOut

	powerSave bool
}

func newPcd8544Panel(busName, dcPinName, resetPinName string) (*pcd8544Panel, error) {
	dc := gpioreg.ByName(dcPinName)
	if dc == nil {
		return nil, errors.New("pcd8544: data/command pin " + dcPinName + " not found")
	}

	port, err := spireg.Open(busName)
	if err != nil {
		return nil, err
	}

	conn, err := port.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, err
	}

	p := &pcd8544Panel{port: port, conn: conn, dc: dc}

	if resetPinName != "" {
		rst := gpioreg.ByName(resetPinName)
		if rst == nil {
			port.Close()
			return nil, errors.New("pcd8544: reset pin " + resetPinName + " not found")
		}
		rst.Out(gpio.Low)
		time.Sleep(10 * time.Millisecond)
		rst.Out(gpio.High)
	}

	err = p.cmd(
		0x21,      // extended instruction set
		0x04,      // temperature coefficient
		0x14,      // bias 1/40
		0x80|0x40, // operating voltage
		0x20,      // basic instruction set, horizontal addressing
		0x0c,      // normal display mode
	)
	if err != nil {
		port.Close()
		return nil, err
	}
	return p, nil
}

func (p *pcd8544Panel) cmd(commands ...byte) error {
	if err := p.dc.Out(gpio.Low); err != nil {
		return err
	}
	return p.conn.Tx(commands, nil)
}

func (p *pcd8544Panel) data(data []byte) error {
	if err := p.dc.Out(gpio.High); err != nil {
		return err
	}
	return p.conn.Tx(data, nil)
}

func (p *pcd8544Panel) draw(img image.Image) {
	if p.powerSave {
		return
	}

	if err := p.cmd(0x80, 0x40); err != nil {
		logrus.Warnf("Unable to address lcd: %v", err)
		return
	}

	bounds := img.Bounds()
	buf := make([]byte, 0, 84*6)
	for page := 0; page < 6; page++ {
		for x := 0; x < 84; x++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				y := page*8 + bit
				if x >= bounds.Dx() || y >= bounds.Dy() {
					continue
				}
				r, g, bl, _ := img.At(x, y).RGBA()
				if r|g|bl != 0 {
					b |= 1 << bit
				}
			}
			buf = append(buf, b)
		}
	}
	if err := p.data(buf); err != nil {
		logrus.Warnf("Unable to push frame to lcd: %v", err)
	}
}

func (p *pcd8544Panel) setContrast(level uint8) {
	// Operating voltage takes 7 bits.
	if err := p.cmd(0x21, 0x80|(level>>1), 0x20); err != nil {
		logrus.Warnf("Unable to set lcd contrast: %v", err)
	}
}

func (p *pcd8544Panel) setPowerSave(on bool) {
	if on == p.powerSave {
		return
	}
	p.powerSave = on
	var err error
	if on {
		err = p.cmd(0x24) // power-down
	} else {
		err = p.cmd(0x20, 0x0c)
	}
	if err != nil {
		logrus.Warnf("Unable to switch lcd power save: %v", err)
	}
}

func (p *pcd8544Panel) close() {
	p.port.Close()
}

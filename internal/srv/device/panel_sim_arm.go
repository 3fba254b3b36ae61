package device

import (
	"image"
	"sync"
)

// simPanel keeps the last frame without showing it, simulation mode
// has no window on the device itself.
type simPanel struct {
	lock    sync.RWMutex
	lastImg image.Image
}

func newSimPanel(width, height int) *simPanel {
	return &simPanel{
		lastImg: image.NewGray(image.Rect(0, 0, width, height)),
	}
}

func (p *simPanel) draw(img image.Image) {
	p.lock.Lock()
	p.lastImg = img
	p.lock.Unlock()
}

func (p *simPanel) setContrast(level uint8) {
}

func (p *simPanel) setPowerSave(on bool) {
}

func (p *simPanel) close() {
}

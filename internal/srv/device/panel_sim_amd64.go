package device

import (
	"image"
	"log"
	"sync"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
)

// simPanel mirrors the panel on a desktop window, for development
// without the device hardware.
type simPanel struct {
	lock    sync.RWMutex
	lastImg image.Image

	window *app.Window
}

func newSimPanel(width, height int) *simPanel {
	p := &simPanel{
		lastImg: image.NewGray(image.Rect(0, 0, width, height)),
		window: app.NewWindow(
			app.Size(unit.Px(float32(width*2)), unit.Px(float32(height*2))),
			app.MinSize(unit.Px(float32(width)), unit.Px(float32(height)))),
	}

	go func() {
		if err := p.gioloop(); err != nil {
			log.Fatal(err)
		}
	}()
	go app.Main()

	return p
}

func (p *simPanel) gioloop() error {
	var ops op.Ops
	for {
		e := <-p.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			p.lock.RLock()
			lastImg := p.lastImg
			p.lock.RUnlock()

			img := widget.Image{Src: paint.NewImageOp(lastImg), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (p *simPanel) draw(img image.Image) {
	p.lock.Lock()
	p.lastImg = img
	p.lock.Unlock()
	p.window.Invalidate()
}

func (p *simPanel) setContrast(level uint8) {
}

func (p *simPanel) setPowerSave(on bool) {
	if on {
		p.lock.Lock()
		bounds := p.lastImg.Bounds()
		p.lastImg = image.NewGray(bounds)
		p.lock.Unlock()
		p.window.Invalidate()
	}
}

func (p *simPanel) close() {
	p.window.Close()
}

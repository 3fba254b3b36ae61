package device

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// maxDatapoints bounds the sample ring, enough to fill the widest
// supported screen in fullscreen mode.
const maxDatapoints = 128

// Diagram samples the total AC power on a fixed schedule and draws it
// as a scaled graph, either as a small inset next to the text lines
// or across the whole screen.
type Diagram struct {
	lock sync.RWMutex

	data    PowerSource
	surface Surface

	values []float64
}

func NewDiagram(data PowerSource) *Diagram {
	return &Diagram{
		data:   data,
		values: make([]float64, 0, maxDatapoints),
	}
}

func (g *Diagram) Init(scheduler *cron.Cron, surface Surface, sampleSpec string) {
	g.surface = surface

	if sampleSpec == "" {
		sampleSpec = "@every 1m"
	}
	_, err := scheduler.AddFunc(sampleSpec, g.sample)
	if err != nil {
		logrus.Warnf("Bad diagram sample schedule %q: %v", sampleSpec, err)
	}
}

func (g *Diagram) sample() {
	if !g.data.IsAtLeastOneReachable() {
		return
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	if len(g.values) == maxDatapoints {
		copy(g.values, g.values[1:])
		g.values = g.values[:maxDatapoints-1]
	}
	g.values = append(g.values, g.data.TotalAcPowerEnabled())
}

// Redraw paints the graph into the given region. The screensaver
// offset shifts the whole region horizontally.
func (g *Diagram) Redraw(screenSaverOffsetX, x, y, width, height int, fullscreen bool) {
	g.lock.RLock()
	defer g.lock.RUnlock()

	x += screenSaverOffsetX

	// Axes
	g.surface.DrawVLine(x, y, height)
	g.surface.DrawHLine(x, y+height-1, width)

	values := g.values
	if len(values) > width-1 {
		values = values[len(values)-(width-1):]
	}
	if len(values) == 0 {
		return
	}

	maxValue := 0.0
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	if fullscreen {
		g.surface.SetFont(FontSmall)
		label := fmt.Sprintf("%.0f W", maxValue)
		g.surface.DrawText(x+2, y+g.surface.Ascent(), label)
	}

	for i, v := range values {
		barHeight := int(v / maxValue * float64(height-1))
		if barHeight < 1 {
			barHeight = 1
		}
		g.surface.DrawVLine(x+1+i, y+height-1-barHeight, barHeight)
	}
}

package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/plieven/OpenDTU/internal/srv/config"
	"github.com/plieven/OpenDTU/internal/srv/i18n"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PowerSource reports the aggregated AC-side live data of the
// enabled inverters.
type PowerSource interface {
	IsAtLeastOneReachable() bool
	TotalAcPowerEnabled() float64      // W
	TotalAcYieldDayEnabled() float64   // Wh
	TotalAcYieldTotalEnabled() float64 // kWh
}

// AddressSource resolves the device's current network address, empty
// when the device has none.
type AddressSource interface {
	LocalIP() string
}

// DiagramMode selects how the power diagram shares the screen with
// the text lines.
type DiagramMode int

const (
	DiagramOff DiagramMode = iota
	DiagramSmall
	DiagramFullscreen
	diagramModeMax
)

// Inset diagram region, chosen to leave room for four text lines on a
// 128 pixel wide screen.
const (
	chartPosX   = 80
	chartPosY   = 0
	chartWidth  = 47
	chartHeight = 28
)

// In fullscreen diagram mode the diagram and the text lines each get
// this many consecutive ticks of every window.
const fullscreenSliceTicks = 10

// Display renders the four status lines and the power diagram on the
// configured panel once per tick. Reconfiguration entry points may be
// called from other goroutines, the lock serializes them against an
// in-progress cycle.
type Display struct {
	lock sync.RWMutex

	serverConfig *config.ServerConfig
	data         PowerSource
	network      AddressSource

	displayType DisplayType
	surface     Surface
	diagram     *Diagram

	strings   i18n.Strings
	overrides map[string]i18n.Strings

	isLarge     bool
	lineOffsets [4]int
	diagramMode DiagramMode

	enablePowerSafe   bool
	enableScreensaver bool
	displayTurnedOn   bool

	period        time.Duration
	appliedPeriod time.Duration
	tick          uint32
	lastDataSeen  time.Time

	now func() time.Time

	ticker  *time.Ticker
	askDone chan bool
	done    chan bool
}

func NewDisplay(serverConfig *config.ServerConfig, data PowerSource, network AddressSource) *Display {
	param := serverConfig.ServerParam.DisplayParam

	period := time.Duration(param.Interval) * time.Second
	if period <= 0 {
		period = time.Second
	}

	d := &Display{
		serverConfig: serverConfig,
		data:         data,
		network:      network,
		displayType:  ParseDisplayType(param.Type),
		strings:      i18n.Select(param.Locale),
		overrides:    i18n.LoadOverrides(serverConfig.GetCompleteStringTableFilename()),
		period:       period,
		now:          time.Now,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}

	if !d.displayType.valid() {
		logrus.Warnf("Display type %q is not supported, display stays off", param.Type)
		return d
	}

	surface, err := newSurface(d.displayType, param, serverConfig.SimulationMode)
	if err != nil {
		logrus.Fatalf("Unable to initialize display: %v\n", err)
	}
	d.surface = surface
	d.diagram = NewDiagram(data)

	return d
}

func (d *Display) isValidDisplay() bool {
	return d.displayType.valid() && d.surface != nil
}

func (d *Display) Start(scheduler *cron.Cron) {
	logrus.Infof("Start display device")

	if !d.isValidDisplay() {
		return
	}

	param := d.serverConfig.ServerParam.DisplayParam

	d.SetStatus(true)
	d.diagram.Init(scheduler, d.surface, param.Diagram.SampleCron)

	d.SetDiagramMode(param.Diagram.Mode)
	d.SetOrientation(param.Rotation)

	d.lock.Lock()
	d.enablePowerSafe = param.PowerSafe
	d.enableScreensaver = param.Screensaver
	d.lock.Unlock()

	d.SetContrast(param.Contrast)
	d.SetLocale(param.Locale)
	d.applyPersistedState()
	d.SetStartupDisplay()

	d.lock.Lock()
	d.appliedPeriod = d.period
	d.ticker = time.NewTicker(d.period)
	d.lock.Unlock()

	go func() {
		for loop := true; loop; {
			select {
			case <-d.ticker.C:
				d.renderCycle()
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

// applyPersistedState overlays the display settings last applied
// through the API over the param file values.
func (d *Display) applyPersistedState() {
	state := d.serverConfig.ServerState.DisplayState()
	if state.Locale != "" {
		d.SetLocale(state.Locale)
	}
	if state.Rotation >= 0 {
		d.SetOrientation(state.Rotation)
	}
	if state.Contrast >= 0 {
		d.SetContrast(state.Contrast)
	}
	if state.DiagramMode >= 0 {
		d.SetDiagramMode(state.DiagramMode)
	}
	d.SetStatus(state.PowerOn)
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	if !d.isValidDisplay() || d.ticker == nil {
		return
	}

	d.ticker.Stop()
	d.askDone <- true
	<-d.done

	d.lock.Lock()
	d.surface.ClearBuffer()
	d.surface.SendBuffer()
	d.surface.SetPowerSave(true)
	d.surface.Close()
	d.lock.Unlock()
}

// renderCycle runs one full tick: layout, text, diagram, frame
// submission and the power save decision. It never fails, a bad value
// degrades to odd text instead of a crash.
func (d *Display) renderCycle() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.ticker != nil && d.period != d.appliedPeriod {
		d.ticker.Reset(d.period)
		d.appliedPeriod = d.period
	}

	d.surface.ClearBuffer()
	displayPowerSave := false
	showText := true
	now := d.now()

	if d.data.IsAtLeastOneReachable() {
		if d.isLarge {
			screenSaverOffsetX := 0
			if d.enableScreensaver {
				screenSaverOffsetX = int(d.tick % 7)
			}
			switch d.diagramMode {
			case DiagramSmall:
				d.diagram.Redraw(screenSaverOffsetX, chartPosX, chartPosY, chartWidth, chartHeight, false)
			case DiagramFullscreen:
				if d.tick%(fullscreenSliceTicks*2) < fullscreenSliceTicks {
					d.diagram.Redraw(screenSaverOffsetX, 10, 0, d.surface.Width()-12, d.surface.Height()-3, true)
					showText = false
				}
			}
		}
		if showText {
			watts := d.data.TotalAcPowerEnabled()
			if watts > 999 {
				d.printText(fmt.Sprintf(d.strings.PowerKw, watts/1000), 0)
			} else {
				d.printText(fmt.Sprintf(d.strings.PowerW, watts), 0)
			}
		}
		d.lastDataSeen = now
	} else {
		d.printText(d.strings.Offline, 0)
		// check if it's time to enter power saving mode
		if now.Sub(d.lastDataSeen) >= 2*d.period {
			displayPowerSave = d.enablePowerSafe
		}
	}

	if showText {
		// Daily production
		wattsToday := d.data.TotalAcYieldDayEnabled()
		if wattsToday >= 10000 {
			d.printText(fmt.Sprintf(d.strings.YieldDayKwh, wattsToday/1000), 1)
		} else {
			d.printText(fmt.Sprintf(d.strings.YieldDayWh, wattsToday), 1)
		}

		// Total production. Past 1000 kWh only the template changes,
		// the value stays in kWh.
		wattsTotal := d.data.TotalAcYieldTotalEnabled()
		format := d.strings.YieldTotalKwh
		if wattsTotal >= 1000 {
			format = d.strings.YieldTotalMwh
		}
		d.printText(fmt.Sprintf(format, wattsTotal), 2)

		// Network address and date/time share the last line.
		if ip := d.network.LocalIP(); !(d.tick%6 < 3) && ip != "" {
			d.printText(ip, 3)
		} else {
			d.printText(i18n.FormatDate(d.strings.DateFormat, now), 3)
		}
	}

	d.surface.SendBuffer()

	d.tick++

	if !d.displayTurnedOn {
		displayPowerSave = true
	}
	d.surface.SetPowerSave(displayPowerSave)
}

// setFont selects the face for a text line. The first line carries
// the current power and gets the title face, the last line is always
// small.
func (d *Display) setFont(line int) {
	switch line {
	case 0:
		if d.isLarge {
			d.surface.SetFont(FontTitleLarge)
		} else {
			d.surface.SetFont(FontTitleSmall)
		}
	case 3:
		d.surface.SetFont(FontSmall)
	default:
		if d.isLarge {
			d.surface.SetFont(FontBody)
		} else {
			d.surface.SetFont(FontSmall)
		}
	}
}

// calcLineHeights recomputes the four baseline offsets. It has to run
// again whenever the rotation or the diagram mode changes, both move
// the lines around.
func (d *Display) calcLineHeights() {
	diagram := d.isLarge && d.diagramMode == DiagramSmall
	// The inset diagram needs space, in particular we have to keep
	// away from its y-axis label.
	yOff := 0
	if diagram {
		yOff = 7
	}
	for i := 0; i < 4; i++ {
		d.setFont(i)
		yOff += d.surface.Ascent()
		d.lineOffsets[i] = yOff
		if !d.isLarge || diagram {
			yOff += 2
		} else {
			yOff += 3
		}
		// The descent moves the next line's baseline. The first line
		// never shows a letter with descent and the inset diagram
		// wants that space.
		if !(i == 0 && diagram) {
			yOff += d.surface.Descent()
		}
	}
}

// screensaverOffset is the horizontal burn-in jitter, a triangle wave
// over the tick counter. On large screens it oscillates around the
// centered position instead of one-sided.
func screensaverOffset(tick uint32, isLarge bool) int {
	maxOffset := 6
	if isLarge {
		maxOffset = 8
	}
	period := 2 * maxOffset
	step := int(tick) % period
	offset := step
	if step > maxOffset {
		offset = period - step
	}
	if isLarge {
		offset -= 5
	}
	return offset
}

func (d *Display) printText(text string, line int) {
	d.setFont(line)

	var dispX int
	if !d.isLarge {
		if line == 0 {
			dispX = 5
		}
	} else {
		if line == 0 && d.diagramMode == DiagramSmall {
			// Center between left border and diagram
			dispX = (chartPosX - d.surface.TextWidth(text)) / 2
		} else {
			// Center on screen
			dispX = (d.surface.Width() - d.surface.TextWidth(text)) / 2
		}
	}

	if d.enableScreensaver {
		dispX += screensaverOffset(d.tick, d.isLarge)
	}

	if dispX < 0 || dispX > d.surface.Width() {
		dispX = 0
	}
	d.surface.DrawText(dispX, d.lineOffsets[line], text)
}

func (d *Display) SetOrientation(rotation int) {
	if !d.isValidDisplay() {
		return
	}
	if rotation < 0 || rotation > 3 {
		return
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	d.surface.SetRotation(rotation)
	d.isLarge = d.surface.Width() > 100
	d.calcLineHeights()
}

func (d *Display) SetLocale(locale string) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.strings = i18n.Select(locale)
	if override, ok := d.overrides[locale]; ok {
		d.strings.Merge(override)
	}
}

// SetDiagramMode ignores out-of-range values, the previous mode stays
// in place.
func (d *Display) SetDiagramMode(mode int) {
	if mode < int(DiagramOff) || mode >= int(diagramModeMax) {
		return
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	d.diagramMode = DiagramMode(mode)
	if d.isValidDisplay() {
		d.calcLineHeights()
	}
}

// SetContrast takes a 0..100 value from configuration and scales it
// to the panel's 0..255 range.
func (d *Display) SetContrast(contrast int) {
	if !d.isValidDisplay() {
		return
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	d.surface.SetContrast(uint8(float32(contrast) * 2.55))
}

// SetStatus turns the whole display on or off. Off forces power save
// regardless of data freshness.
func (d *Display) SetStatus(turnOn bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.displayTurnedOn = turnOn
}

func (d *Display) SetInterval(period time.Duration) {
	if period <= 0 {
		return
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	// Takes effect at the start of the next cycle.
	d.period = period
}

func (d *Display) SetStartupDisplay() {
	if !d.isValidDisplay() {
		return
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	d.surface.ClearBuffer()
	d.printText("OpenDTU!", 0)
	d.surface.SendBuffer()
}

func (d *Display) Diagram() *Diagram {
	return d.diagram
}

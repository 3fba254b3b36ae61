package device

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/plieven/OpenDTU/internal/srv/config"
	"github.com/plieven/OpenDTU/internal/srv/i18n"
)

type fakeText struct {
	X, Y int
	Text string
}

// fakeSurface records draw calls. Every face reports the same fixed
// metrics so baseline positions are predictable.
type fakeSurface struct {
	width, height int

	texts      []fakeText
	pixels     []image.Point
	powerSaves []bool
	contrasts  []uint8
	rotation   int
	cleared    int
	sent       int
}

func (s *fakeSurface) Width() int                { return s.width }
func (s *fakeSurface) Height() int               { return s.height }
func (s *fakeSurface) SetFont(f Font)            {}
func (s *fakeSurface) Ascent() int               { return 10 }
func (s *fakeSurface) Descent() int              { return 2 }
func (s *fakeSurface) TextWidth(text string) int { return 6 * len(text) }

func (s *fakeSurface) DrawText(x, y int, text string) {
	s.texts = append(s.texts, fakeText{X: x, Y: y, Text: text})
}

func (s *fakeSurface) DrawPixel(x, y int) {
	s.pixels = append(s.pixels, image.Pt(x, y))
}

func (s *fakeSurface) DrawHLine(x, y, w int) {
	for i := 0; i < w; i++ {
		s.DrawPixel(x+i, y)
	}
}

func (s *fakeSurface) DrawVLine(x, y, h int) {
	for i := 0; i < h; i++ {
		s.DrawPixel(x, y+i)
	}
}

func (s *fakeSurface) ClearBuffer() {
	s.cleared++
	s.texts = nil
	s.pixels = nil
}

func (s *fakeSurface) SendBuffer() { s.sent++ }

func (s *fakeSurface) SetRotation(rotation int) { s.rotation = rotation }
func (s *fakeSurface) SetContrast(level uint8)  { s.contrasts = append(s.contrasts, level) }
func (s *fakeSurface) SetPowerSave(on bool)     { s.powerSaves = append(s.powerSaves, on) }
func (s *fakeSurface) Close()                   {}

func (s *fakeSurface) hasText(substr string) bool {
	for _, t := range s.texts {
		if strings.Contains(t.Text, substr) {
			return true
		}
	}
	return false
}

func (s *fakeSurface) lastPowerSave(t *testing.T) bool {
	t.Helper()
	if len(s.powerSaves) == 0 {
		t.Fatal("no power save state recorded")
	}
	return s.powerSaves[len(s.powerSaves)-1]
}

type fakePowerSource struct {
	reachable  bool
	power      float64
	yieldDay   float64
	yieldTotal float64
}

func (f *fakePowerSource) IsAtLeastOneReachable() bool       { return f.reachable }
func (f *fakePowerSource) TotalAcPowerEnabled() float64      { return f.power }
func (f *fakePowerSource) TotalAcYieldDayEnabled() float64   { return f.yieldDay }
func (f *fakePowerSource) TotalAcYieldTotalEnabled() float64 { return f.yieldTotal }

type fakeAddressSource struct {
	ip string
}

func (f *fakeAddressSource) LocalIP() string { return f.ip }

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestDisplay(surface *fakeSurface, data *fakePowerSource, addr *fakeAddressSource, clock *fakeClock) *Display {
	d := &Display{
		data:            data,
		network:         addr,
		displayType:     DisplaySSD1306,
		surface:         surface,
		strings:         i18n.Select("en"),
		period:          time.Second,
		appliedPeriod:   time.Second,
		displayTurnedOn: true,
		enablePowerSafe: true,
		now:             clock.now,
		lastDataSeen:    clock.t,
	}
	d.diagram = NewDiagram(data)
	d.diagram.surface = surface
	d.isLarge = surface.width > 100
	d.calcLineHeights()
	return d
}

func TestScreensaverOffsetSmall(t *testing.T) {
	for tick := uint32(0); tick < 100; tick++ {
		offset := screensaverOffset(tick, false)
		if offset < 0 || offset > 6 {
			t.Fatalf("tick %d: offset %d outside [0, 6]", tick, offset)
		}
		if other := screensaverOffset(tick+12, false); other != offset {
			t.Fatalf("tick %d: offset not periodic with period 12: %d != %d", tick, offset, other)
		}
	}
}

func TestScreensaverOffsetLarge(t *testing.T) {
	for tick := uint32(0); tick < 100; tick++ {
		offset := screensaverOffset(tick, true)
		if offset < -5 || offset > 3 {
			t.Fatalf("tick %d: offset %d outside [-5, 3]", tick, offset)
		}
		if other := screensaverOffset(tick+16, true); other != offset {
			t.Fatalf("tick %d: offset not periodic with period 16: %d != %d", tick, offset, other)
		}
	}
}

func TestLineOffsetsMonotonic(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	d := newTestDisplay(surface, &fakePowerSource{}, &fakeAddressSource{}, &fakeClock{t: time.Now()})

	for i := 1; i < 4; i++ {
		if d.lineOffsets[i] <= d.lineOffsets[i-1] {
			t.Fatalf("line offsets not increasing: %v", d.lineOffsets)
		}
	}
}

func TestLineOffsetsReserveDiagramSpace(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	d := newTestDisplay(surface, &fakePowerSource{}, &fakeAddressSource{}, &fakeClock{t: time.Now()})

	plain := d.lineOffsets[0]
	d.SetDiagramMode(int(DiagramSmall))
	withDiagram := d.lineOffsets[0]

	if withDiagram-plain < 7 {
		t.Fatalf("inset diagram reserves %d px, want >= 7", withDiagram-plain)
	}
}

func TestSmallScreenIgnoresDiagramSpace(t *testing.T) {
	surface := &fakeSurface{width: 84, height: 48}
	d := newTestDisplay(surface, &fakePowerSource{}, &fakeAddressSource{}, &fakeClock{t: time.Now()})

	plain := d.lineOffsets[0]
	d.SetDiagramMode(int(DiagramSmall))

	if d.lineOffsets[0] != plain {
		t.Fatalf("small screen moved line 0 from %d to %d in diagram mode", plain, d.lineOffsets[0])
	}
}

func TestFullscreenDiagramDutyCycle(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	data := &fakePowerSource{reachable: true, power: 500, yieldDay: 1000, yieldTotal: 10}
	d := newTestDisplay(surface, data, &fakeAddressSource{}, &fakeClock{t: time.Now()})
	d.SetDiagramMode(int(DiagramFullscreen))

	textCycles := 0
	diagramCycles := 0
	for i := 0; i < 20; i++ {
		d.renderCycle()
		if surface.hasText("today:") {
			textCycles++
		} else {
			diagramCycles++
		}
	}

	if textCycles != 10 || diagramCycles != 10 {
		t.Fatalf("got %d text and %d diagram cycles over 20 ticks, want 10 and 10", textCycles, diagramCycles)
	}
}

func TestPowerFormatting(t *testing.T) {
	tests := []struct {
		name  string
		power float64
		want  string
	}{
		{"kilowatts", 1500, "1.5 kW"},
		{"watts", 500, "500 W"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			surface := &fakeSurface{width: 128, height: 64}
			data := &fakePowerSource{reachable: true, power: test.power}
			d := newTestDisplay(surface, data, &fakeAddressSource{}, &fakeClock{t: time.Now()})

			d.renderCycle()

			if !surface.hasText(test.want) {
				t.Fatalf("power %v: %q not drawn, texts: %v", test.power, test.want, surface.texts)
			}
		})
	}
}

func TestYieldFormatting(t *testing.T) {
	tests := []struct {
		name     string
		yieldDay float64
		want     string
	}{
		{"kilowatthours", 10500, "today: 10.5 kWh"},
		{"watthours", 3000, "today: 3000 Wh"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			surface := &fakeSurface{width: 128, height: 64}
			data := &fakePowerSource{reachable: true, power: 100, yieldDay: test.yieldDay}
			d := newTestDisplay(surface, data, &fakeAddressSource{}, &fakeClock{t: time.Now()})

			d.renderCycle()

			if !surface.hasText(test.want) {
				t.Fatalf("yield %v: %q not drawn, texts: %v", test.yieldDay, test.want, surface.texts)
			}
		})
	}
}

func TestTotalYieldKeepsKwhValue(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	data := &fakePowerSource{reachable: true, power: 100, yieldTotal: 1200}
	d := newTestDisplay(surface, data, &fakeAddressSource{}, &fakeClock{t: time.Now()})

	d.renderCycle()

	// Past 1000 kWh only the template changes, the value is not
	// converted.
	if !surface.hasText("total: 1200 kWh") {
		t.Fatalf("total yield text not drawn, texts: %v", surface.texts)
	}
}

func TestLineThreeAlternatesAddressAndDate(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	data := &fakePowerSource{reachable: true, power: 100}
	addr := &fakeAddressSource{ip: "192.168.1.50"}
	d := newTestDisplay(surface, data, addr, &fakeClock{t: time.Now()})

	var ipTicks, dateTicks []uint32
	for i := uint32(0); i < 6; i++ {
		d.renderCycle()
		if surface.hasText(addr.ip) {
			ipTicks = append(ipTicks, i)
		} else {
			dateTicks = append(dateTicks, i)
		}
	}

	if len(ipTicks) != 3 || len(dateTicks) != 3 {
		t.Fatalf("got ip on ticks %v, date on ticks %v, want 3 of each", ipTicks, dateTicks)
	}
	if ipTicks[0] != 3 {
		t.Fatalf("address display starts at tick %d, want 3", ipTicks[0])
	}
}

func TestPowerSaveTransitions(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	data := &fakePowerSource{reachable: true, power: 100}
	clock := &fakeClock{t: time.Now()}
	d := newTestDisplay(surface, data, &fakeAddressSource{}, clock)

	d.renderCycle()
	if surface.lastPowerSave(t) {
		t.Fatal("power save active while a source is reachable")
	}

	// One interval without data is not enough.
	data.reachable = false
	clock.t = clock.t.Add(time.Second)
	d.renderCycle()
	if surface.lastPowerSave(t) {
		t.Fatal("power save entered before two intervals elapsed")
	}

	clock.t = clock.t.Add(2 * time.Second)
	d.renderCycle()
	if !surface.lastPowerSave(t) {
		t.Fatal("power save not entered after two intervals offline")
	}

	// Recovery exits power save on the very next cycle.
	data.reachable = true
	d.renderCycle()
	if surface.lastPowerSave(t) {
		t.Fatal("power save not left after a source came back")
	}
}

func TestPowerSaveDisabledInConfig(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	data := &fakePowerSource{}
	clock := &fakeClock{t: time.Now()}
	d := newTestDisplay(surface, data, &fakeAddressSource{}, clock)
	d.enablePowerSafe = false

	clock.t = clock.t.Add(time.Minute)
	d.renderCycle()
	if surface.lastPowerSave(t) {
		t.Fatal("power save entered although disabled in config")
	}
}

func TestSetStatusForcesPowerSave(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	data := &fakePowerSource{reachable: true, power: 100}
	d := newTestDisplay(surface, data, &fakeAddressSource{}, &fakeClock{t: time.Now()})

	d.SetStatus(false)
	d.renderCycle()
	if !surface.lastPowerSave(t) {
		t.Fatal("power save not forced while display is turned off")
	}
}

func TestDiagramModeOutOfRangeIgnored(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	d := newTestDisplay(surface, &fakePowerSource{}, &fakeAddressSource{}, &fakeClock{t: time.Now()})

	d.SetDiagramMode(int(DiagramSmall))
	d.SetDiagramMode(17)
	if d.diagramMode != DiagramSmall {
		t.Fatalf("out-of-range mode changed state to %d", d.diagramMode)
	}
	d.SetDiagramMode(-1)
	if d.diagramMode != DiagramSmall {
		t.Fatalf("negative mode changed state to %d", d.diagramMode)
	}
}

func TestUnsupportedDisplayTypeIsInert(t *testing.T) {
	serverConfig := &config.ServerConfig{
		ConfigDir: t.TempDir(),
		ServerParam: &config.ServerParam{
			DisplayParam: config.DisplayParam{Type: "hd44780", Interval: 1},
		},
	}

	d := NewDisplay(serverConfig, &fakePowerSource{}, &fakeAddressSource{})

	// None of these may touch a surface.
	d.SetOrientation(2)
	d.SetContrast(80)
	d.SetStartupDisplay()

	if d.isValidDisplay() {
		t.Fatal("unsupported display type reported as valid")
	}
}

func TestScreensaverClampsDrawPosition(t *testing.T) {
	surface := &fakeSurface{width: 84, height: 48}
	data := &fakePowerSource{reachable: true, power: 100}
	d := newTestDisplay(surface, data, &fakeAddressSource{}, &fakeClock{t: time.Now()})
	d.enableScreensaver = true

	for i := 0; i < 30; i++ {
		d.renderCycle()
		for _, text := range surface.texts {
			if text.X < 0 || text.X > surface.width {
				t.Fatalf("tick %d: draw position %d outside display", i, text.X)
			}
		}
	}
}

func TestIntervalReappliedNextCycle(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	d := newTestDisplay(surface, &fakePowerSource{}, &fakeAddressSource{}, &fakeClock{t: time.Now()})
	d.ticker = time.NewTicker(time.Second)
	defer d.ticker.Stop()

	d.SetInterval(5 * time.Second)
	d.renderCycle()

	if d.appliedPeriod != 5*time.Second {
		t.Fatalf("interval not re-applied, got %v", d.appliedPeriod)
	}
}

package device

import (
	"fmt"
	"testing"
)

func TestSampleRingBounded(t *testing.T) {
	data := &fakePowerSource{reachable: true}
	g := NewDiagram(data)

	for i := 0; i < maxDatapoints+50; i++ {
		data.power = float64(i)
		g.sample()
	}

	if len(g.values) != maxDatapoints {
		t.Fatalf("ring holds %d values, want %d", len(g.values), maxDatapoints)
	}
	if got := g.values[len(g.values)-1]; got != float64(maxDatapoints+49) {
		t.Fatalf("last value %v, want the newest sample", got)
	}
	if got := g.values[0]; got != 50 {
		t.Fatalf("first value %v, oldest samples not dropped", got)
	}
}

func TestSampleSkipsWhenOffline(t *testing.T) {
	data := &fakePowerSource{reachable: false, power: 100}
	g := NewDiagram(data)

	g.sample()

	if len(g.values) != 0 {
		t.Fatalf("offline sample recorded: %v", g.values)
	}
}

func TestRedrawEmptyDrawsAxesOnly(t *testing.T) {
	surface := &fakeSurface{width: 128, height: 64}
	g := NewDiagram(&fakePowerSource{})
	g.surface = surface

	g.Redraw(0, chartPosX, chartPosY, chartWidth, chartHeight, false)

	if len(surface.texts) != 0 {
		t.Errorf("empty diagram drew text: %v", surface.texts)
	}
	if len(surface.pixels) != chartWidth+chartHeight {
		t.Errorf("got %d axis pixels, want %d", len(surface.pixels), chartWidth+chartHeight)
	}
}

func TestRedrawStaysInRegion(t *testing.T) {
	data := &fakePowerSource{reachable: true}
	surface := &fakeSurface{width: 128, height: 64}
	g := NewDiagram(data)
	g.surface = surface

	for i := 0; i < maxDatapoints; i++ {
		data.power = float64(100 + i%300)
		g.sample()
	}

	g.Redraw(0, chartPosX, chartPosY, chartWidth, chartHeight, false)

	for _, p := range surface.pixels {
		if p.X < chartPosX || p.X >= chartPosX+chartWidth ||
			p.Y < chartPosY || p.Y >= chartPosY+chartHeight {
			t.Fatalf("pixel %v outside chart region", p)
		}
	}
}

func TestRedrawFullscreenLabelsPeak(t *testing.T) {
	data := &fakePowerSource{reachable: true}
	surface := &fakeSurface{width: 128, height: 64}
	g := NewDiagram(data)
	g.surface = surface

	for _, power := range []float64{100, 800, 300} {
		data.power = power
		g.sample()
	}

	g.Redraw(0, 0, 0, surface.width, surface.height, true)

	if !surface.hasText(fmt.Sprintf("%.0f W", 800.0)) {
		t.Fatalf("peak label not drawn, texts: %v", surface.texts)
	}
}

func TestRedrawInsetDrawsNoLabel(t *testing.T) {
	data := &fakePowerSource{reachable: true, power: 500}
	surface := &fakeSurface{width: 128, height: 64}
	g := NewDiagram(data)
	g.surface = surface
	g.sample()

	g.Redraw(0, chartPosX, chartPosY, chartWidth, chartHeight, false)

	if len(surface.texts) != 0 {
		t.Fatalf("inset diagram drew text: %v", surface.texts)
	}
}

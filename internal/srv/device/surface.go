package device

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// Font selects one of the fixed faces used on the status screen.
type Font int

const (
	FontTitleLarge Font = iota
	FontTitleSmall
	FontBody
	FontSmall
)

var faces = map[Font]font.Face{
	FontTitleLarge: inconsolata.Bold8x16,
	FontTitleSmall: inconsolata.Regular8x16,
	FontBody:       bitmapfont.Face,
	FontSmall:      basicfont.Face7x13,
}

// Surface is the capability set the render cycle draws through. Text
// coordinates are baseline coordinates.
type Surface interface {
	Width() int
	Height() int

	SetFont(f Font)
	Ascent() int
	Descent() int
	TextWidth(text string) int
	DrawText(x, y int, text string)

	DrawPixel(x, y int)
	DrawHLine(x, y, w int)
	DrawVLine(x, y, h int)

	ClearBuffer()
	SendBuffer()

	SetRotation(rotation int)
	SetContrast(level uint8)
	SetPowerSave(on bool)
	Close()
}

var textColor = image.NewUniform(color.White)

// monoSurface renders into an in-memory grayscale frame buffer and
// pushes completed frames to a panel.
type monoSurface struct {
	panel panel

	nativeWidth  int
	nativeHeight int
	rotation     int

	img  *image.Gray
	face font.Face
}

func newMonoSurface(p panel, width, height int) *monoSurface {
	return &monoSurface{
		panel:        p,
		nativeWidth:  width,
		nativeHeight: height,
		img:          image.NewGray(image.Rect(0, 0, width, height)),
		face:         faces[FontBody],
	}
}

func (s *monoSurface) Width() int {
	return s.img.Bounds().Dx()
}

func (s *monoSurface) Height() int {
	return s.img.Bounds().Dy()
}

func (s *monoSurface) SetFont(f Font) {
	if face, ok := faces[f]; ok {
		s.face = face
	}
}

func (s *monoSurface) Ascent() int {
	return s.face.Metrics().Ascent.Ceil()
}

func (s *monoSurface) Descent() int {
	return s.face.Metrics().Descent.Ceil()
}

func (s *monoSurface) TextWidth(text string) int {
	return font.MeasureString(s.face, text).Ceil()
}

func (s *monoSurface) DrawText(x, y int, text string) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  textColor,
		Face: s.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func (s *monoSurface) DrawPixel(x, y int) {
	s.img.SetGray(x, y, color.Gray{Y: 0xff})
}

func (s *monoSurface) DrawHLine(x, y, w int) {
	for i := 0; i < w; i++ {
		s.DrawPixel(x+i, y)
	}
}

func (s *monoSurface) DrawVLine(x, y, h int) {
	for i := 0; i < h; i++ {
		s.DrawPixel(x, y+i)
	}
}

func (s *monoSurface) ClearBuffer() {
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
}

func (s *monoSurface) SendBuffer() {
	s.panel.draw(s.rotated())
}

// SetRotation swaps the logical frame buffer orientation, quarter
// turns clockwise. The buffer is cleared by the reallocation.
func (s *monoSurface) SetRotation(rotation int) {
	s.rotation = ((rotation % 4) + 4) % 4
	w, h := s.nativeWidth, s.nativeHeight
	if s.rotation%2 == 1 {
		w, h = h, w
	}
	s.img = image.NewGray(image.Rect(0, 0, w, h))
}

// rotated maps the logical frame buffer back to the panel's native
// orientation.
func (s *monoSurface) rotated() image.Image {
	if s.rotation == 0 {
		return s.img
	}

	native := image.NewGray(image.Rect(0, 0, s.nativeWidth, s.nativeHeight))
	bounds := s.img.Bounds()
	for ly := 0; ly < bounds.Dy(); ly++ {
		for lx := 0; lx < bounds.Dx(); lx++ {
			var nx, ny int
			switch s.rotation {
			case 1:
				nx, ny = s.nativeWidth-1-ly, lx
			case 2:
				nx, ny = s.nativeWidth-1-lx, s.nativeHeight-1-ly
			case 3:
				nx, ny = ly, s.nativeHeight-1-lx
			}
			native.SetGray(nx, ny, s.img.GrayAt(lx, ly))
		}
	}
	return native
}

func (s *monoSurface) SetContrast(level uint8) {
	s.panel.setContrast(level)
}

func (s *monoSurface) SetPowerSave(on bool) {
	s.panel.setPowerSave(on)
}

func (s *monoSurface) Close() {
	s.panel.close()
}

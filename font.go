package canopy

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontKey is the resource key of the built-in font every app loads.
const DefaultFontKey = "font"

// fontExtensions lists the file types the font loader accepts.
var fontExtensions = []string{".ttf", ".otf"}

// Font wraps Ebitengine's text/v2 for TrueType font rendering.
type Font struct {
	face *text.GoTextFace
	lh   float64 // cached line height
}

// LoadFont parses TTF/OTF data into a font of the given pixel size.
func LoadFont(ttfData []byte, size float64) (*Font, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("canopy: failed to parse TTF data: %w", err)
	}
	return newFont(source, size), nil
}

func newFont(source *text.GoTextFaceSource, size float64) *Font {
	face := &text.GoTextFace{
		Source: source,
		Size:   size,
	}
	m := face.Metrics()
	return &Font{
		face: face,
		lh:   m.HAscent + m.HDescent + m.HLineGap,
	}
}

func loadFont(a *App, path string) (Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return LoadFont(data, a.fontSize())
}

// defaultFontSource parses the embedded Go Regular font once per process.
var defaultFontSource = sync.OnceValues(func() (*text.GoTextFaceSource, error) {
	return text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
})

// loadDefaultFont registers the built-in font under DefaultFontKey.
func (a *App) loadDefaultFont() error {
	source, err := defaultFontSource()
	if err != nil {
		return fmt.Errorf("canopy: load default font: %w", err)
	}
	a.AddResource(DefaultFontKey, newFont(source, a.fontSize()))
	return nil
}

func (a *App) fontSize() float64 {
	if a.cfg.FontSize > 0 {
		return a.cfg.FontSize
	}
	return defaultFontSize
}

// Size returns the font's pixel size.
func (f *Font) Size() float64 { return f.face.Size }

// LineHeight returns the vertical distance between baselines.
func (f *Font) LineHeight() float64 { return f.lh }

// Face returns the underlying GoTextFace for direct text/v2 rendering.
func (f *Font) Face() *text.GoTextFace { return f.face }

// Measure returns the width and height of the rendered text.
func (f *Font) Measure(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// WriteText draws s with its top-left corner at (x, y).
func (f *Font) WriteText(dst *ebiten.Image, x, y float64, s string, tint Color) error {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale = tint.colorScale()
	op.LineSpacing = f.lh
	text.Draw(dst, s, f.face, op)
	return nil
}

// Close releases nothing; the face source is shared.
func (f *Font) Close() error { return nil }

package canopy

import (
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
)

// Surface is the render target the scheduler clears, hands to renderers and
// presents once per dirty frame.
type Surface interface {
	// Clear resets the draw target before the render pass.
	Clear()
	// Present publishes what was drawn since Clear.
	Present()
	// Target returns the image renderers draw onto. May be nil for surfaces
	// that discard output.
	Target() *ebiten.Image
	// Size returns the logical size of the target in pixels.
	Size() (int, int)
}

// nullSurface discards everything. Used when no surface is configured.
type nullSurface struct{}

func (nullSurface) Clear()                {}
func (nullSurface) Present()              {}
func (nullSurface) Target() *ebiten.Image { return nil }
func (nullSurface) Size() (int, int)      { return 0, 0 }

// Canvas is a double-buffered Ebitengine surface. Renderers draw into the back
// image; Present copies it to the front image, which the game's Draw callback
// blits to the screen on every Ebitengine frame whether or not canopy
// rendered.
type Canvas struct {
	back  *ebiten.Image
	front *ebiten.Image
	clear color.RGBA

	presented uint64

	// ScreenshotDir is the directory where screenshot PNGs are saved.
	ScreenshotDir   string
	screenshotQueue []string
	logger          *slog.Logger
}

// NewCanvas allocates a w x h canvas cleared to clearColor.
func NewCanvas(w, h int, clearColor Color) *Canvas {
	c := &Canvas{
		back:          ebiten.NewImage(w, h),
		front:         ebiten.NewImage(w, h),
		clear:         clearColor.ToRGBA(),
		ScreenshotDir: "screenshots",
		logger:        slog.Default(),
	}
	c.front.Fill(c.clear)
	return c
}

// SetLogger sets the logger used for screenshot reports. NewApp hands the
// app's logger to a surface that has this method.
func (c *Canvas) SetLogger(l *slog.Logger) {
	c.logger = l
}

// Clear fills the back image with the clear color.
func (c *Canvas) Clear() {
	c.back.Fill(c.clear)
}

// Present copies the back image to the front image and captures queued
// screenshots from it.
func (c *Canvas) Present() {
	c.front.Clear()
	c.front.DrawImage(c.back, nil)
	c.presented++
	c.flushScreenshots(c.front)
}

// Target returns the back image.
func (c *Canvas) Target() *ebiten.Image { return c.back }

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (int, int) {
	b := c.back.Bounds()
	return b.Dx(), b.Dy()
}

// Frame returns the last presented image.
func (c *Canvas) Frame() *ebiten.Image { return c.front }

// Presented returns how many times Present was called.
func (c *Canvas) Presented() uint64 { return c.presented }

// SetClearColor changes the color used by Clear.
func (c *Canvas) SetClearColor(clr Color) {
	c.clear = clr.ToRGBA()
}

// Close releases both images.
func (c *Canvas) Close() error {
	c.back.Deallocate()
	c.front.Deallocate()
	return nil
}

// --- Tint stack ---

// WithTint pushes c as the current tint, runs fn and pops the tint again on
// every exit path, panics included. Draw and Write apply the innermost tint.
func (a *App) WithTint(c Color, fn func() error) error {
	a.tints = append(a.tints, c)
	defer func() {
		a.tints = a.tints[:len(a.tints)-1]
	}()
	return fn()
}

// Tint returns the innermost tint, or ColorWhite outside any WithTint call.
func (a *App) Tint() Color {
	if len(a.tints) == 0 {
		return ColorWhite
	}
	return a.tints[len(a.tints)-1]
}

// TintDepth returns the number of tints currently pushed.
func (a *App) TintDepth() int { return len(a.tints) }

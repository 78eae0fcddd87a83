package canopy

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Debugger is a frame-rate overlay. Peek counts frames and reports dirty
// once the refresh delay has elapsed; Render writes the measured rate.
//
// Props: "x", "y" (position), "refresh_delay" (default 100ms) and "font"
// (resource key, default the built-in font). Without the font resource the
// rate is printed with Ebitengine's debug font.
type Debugger struct {
	Base
	frames    int
	p1, p2    time.Duration
	threshold time.Duration
	rate      float64
}

// NewDebugger creates a frame-rate overlay.
func NewDebugger() *Debugger {
	return &Debugger{}
}

func (d *Debugger) Init() error {
	d.threshold = d.Props().Duration("refresh_delay", 100*time.Millisecond)
	d.p1 = d.App().Clock().Now()
	return nil
}

func (d *Debugger) Activate() {
	d.frames = 0
	d.p1 = d.App().Clock().Now()
}

func (d *Debugger) Peek() bool {
	d.frames++
	d.p2 = d.App().Clock().Now()
	return d.p2-d.p1 >= d.threshold
}

func (d *Debugger) Render() error {
	elapsed := d.p2 - d.p1
	if elapsed > 0 {
		d.rate = float64(d.frames) / elapsed.Seconds()
	}
	if err := d.write(fmt.Sprintf("%.3f", d.rate)); err != nil {
		return err
	}
	if elapsed >= d.threshold {
		d.p1 = d.p2
		d.frames = 0
	}
	return nil
}

func (d *Debugger) write(s string) error {
	app := d.App()
	x := d.Props().Float("x", 0)
	y := d.Props().Float("y", 0)
	err := app.Write(d.Props().String("font", DefaultFontKey), x, y, s)
	if !errors.Is(err, ErrUnknownResource) {
		return err
	}
	if dst := app.Surface().Target(); dst != nil {
		ebitenutil.DebugPrintAt(dst, s, int(x), int(y))
	}
	return nil
}

// Rate returns the frame rate measured at the last render.
func (d *Debugger) Rate() float64 { return d.rate }

package canopy

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

// game adapts an App to ebiten.Game. Ebitengine's TPS paces the frames;
// every tick captures input and runs one Step.
type game struct {
	app    *App
	canvas *Canvas
	input  *ebitenInput
	width  int
	height int
}

func (g *game) Update() error {
	g.input.capture()
	if err := g.app.Step(); err != nil {
		return err
	}
	if !g.app.Running() {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.canvas.Frame(), nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// Run opens a window as described by cfg, builds the app with setup as its
// init hook and runs it until quit. Teardown runs exactly once on every exit
// path, including a panic, which is re-raised afterwards.
func Run(cfg Config, setup func(*App) error, opts ...AppOption) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.FPS <= 0 {
		cfg.FPS = defaultFPS
	}
	zoom := cfg.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	ebiten.SetWindowTitle(cfg.Name)
	ebiten.SetWindowSize(int(float64(cfg.Width)*zoom), int(float64(cfg.Height)*zoom))
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetFullscreen(cfg.Fullscreen)
	ebiten.SetTPS(cfg.FPS)
	ebiten.SetWindowClosingHandled(true)

	canvas := NewCanvas(cfg.Width, cfg.Height, cfg.ClearColor)
	canvas.ScreenshotDir = cfg.ScreenshotDir
	clock := NewSystemClock()
	input := newEbitenInput(clock)

	initFn := func(a *App) error {
		a.OnTeardown("canvas", canvas.Close)
		if cfg.ShowFPS {
			d := NewDebugger()
			if err := a.AddComponent(d, Props{"name": "fps"}); err != nil {
				return err
			}
			d.Enable()
		}
		if setup != nil {
			return setup(a)
		}
		return nil
	}

	base := []AppOption{
		WithConfig(cfg),
		WithClock(clock),
		WithSurface(canvas),
		WithInput(input),
		WithInit(initFn),
	}
	app, err := NewApp(append(base, opts...)...)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			app.rootLogger.Error("unhandled failure in frame loop", "panic", r)
			app.shutdown()
			panic(r)
		}
	}()

	err = ebiten.RunGame(&game{
		app:    app,
		canvas: canvas,
		input:  input,
		width:  cfg.Width,
		height: cfg.Height,
	})
	app.shutdown()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	if err != nil {
		app.rootLogger.Error("frame failed", "err", err)
	}
	return err
}

package canopy

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// activationQueue is the pending activation map: desired active flags keyed by
// component, in first-request order. A later request for the same component
// overwrites the earlier one in place.
type activationQueue struct {
	order   []*Base
	desired map[*Base]bool
}

func newActivationQueue() *activationQueue {
	return &activationQueue{desired: make(map[*Base]bool)}
}

func (q *activationQueue) set(b *Base, active bool) {
	if _, ok := q.desired[b]; !ok {
		q.order = append(q.order, b)
	}
	q.desired[b] = active
}

func (q *activationQueue) remove(b *Base) {
	if _, ok := q.desired[b]; !ok {
		return
	}
	delete(q.desired, b)
	for i, c := range q.order {
		if c == b {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return
		}
	}
}

func (q *activationQueue) empty() bool {
	return len(q.order) == 0
}

func (q *activationQueue) reset() {
	for i := range q.order {
		q.order[i] = nil
	}
	q.order = q.order[:0]
	clear(q.desired)
}

// closer is an external resource released during teardown.
type closer struct {
	name string
	fn   func() error
}

// App is the root of the component tree. It owns the pending activation map,
// the active-component caches, the timer queue, the loaded resources and the
// external collaborators (surface, input source, clock).
type App struct {
	Base

	cfg           Config
	frameDuration time.Duration
	rootLogger    *slog.Logger
	clock         Clock
	surface       Surface
	input         InputSource
	loaders       *LoaderRegistry
	searchPath    []string
	initFn        func(*App) error
	store         EventStore

	// Activation engine
	pending     *activationQueue
	spare       *activationQueue
	active      []*Base
	toPeek      []*Base
	toRender    []*Base
	peekValid   bool
	renderValid bool

	timers        timerQueue
	frames        uint64
	touched       bool
	running       bool
	quitDelivered bool
	tornDown      bool

	// Event queues
	events      []Event // pushed during this frame, delivered next frame
	inbox       []Event // reused drain buffer
	injectQueue []Event // one injected event per frame
	keys        map[ebiten.Key]bool

	// Resources
	resources     map[string]Resource
	resourceOrder []string
	tints         []Color
	mixer         *Mixer
	closers       []closer

	// Components whose Init is running, innermost last
	initializing []*Base

	// Debug
	debug      bool
	testRunner *TestRunner
}

// NewApp creates the application, applies opts, loads the built-in font,
// enables the app and runs the init hook. Any failure tears down what was
// already acquired and is returned.
func NewApp(opts ...AppOption) (*App, error) {
	a := &App{
		cfg:       DefaultConfig(),
		pending:   newActivationQueue(),
		spare:     newActivationQueue(),
		keys:      make(map[ebiten.Key]bool),
		resources: make(map[string]Resource),
		running:   true,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("canopy: %w", err)
		}
	}
	if a.cfg.FPS <= 0 {
		a.cfg.FPS = defaultFPS
	}
	a.frameDuration = time.Second / time.Duration(a.cfg.FPS)
	a.debug = a.debug || a.cfg.Debug
	if a.rootLogger == nil {
		a.rootLogger = newDefaultLogger(a.debug)
	}
	if a.clock == nil {
		a.clock = NewSystemClock()
	}
	if a.surface == nil {
		a.surface = nullSurface{}
	}
	if ls, ok := a.surface.(interface{ SetLogger(*slog.Logger) }); ok {
		ls.SetLogger(a.rootLogger.With("component", "surface"))
	}
	if a.input == nil {
		a.input = NewEventQueue()
	}
	if a.loaders == nil {
		a.loaders = DefaultLoaders()
	}
	a.searchPath = resolveSearchPath(a.cfg.SearchPath)

	a.Base.attach(a, nil, a, Props{"name": a.cfg.Name})
	a.rootLogger.Info("initializing application", "name", a.cfg.Name)

	a.RegisterEventHandler(EventQuit, a.onQuit)
	a.RegisterEventHandler(EventWindow, a.onWindow)
	a.RegisterEventHandler(EventKeyDown, a.onKeyDown)
	a.RegisterEventHandler(EventKeyUp, a.onKeyUp)

	if err := a.loadDefaultFont(); err != nil {
		a.shutdown()
		return nil, err
	}
	a.Enable()

	if a.initFn != nil {
		if err := a.initFn(a); err != nil {
			a.shutdown()
			return nil, fmt.Errorf("canopy: init %s: %w", a.cfg.Name, err)
		}
	}
	return a, nil
}

func newDefaultLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// initOwner returns the component whose Init is running, or nil.
func (a *App) initOwner() *Base {
	if len(a.initializing) == 0 {
		return nil
	}
	return a.initializing[len(a.initializing)-1]
}

// --- Dirty flag ---

// Touch marks the application dirty: the next dirty check reports a redraw.
func (a *App) Touch() {
	a.touched = true
}

// Touched reports whether the app is dirty without clearing the flag.
func (a *App) Touched() bool {
	return a.touched
}

// Peek reports and clears the dirty flag. The app takes part in the dirty
// check like any other component.
func (a *App) Peek() bool {
	if !a.touched {
		return false
	}
	a.touched = false
	return true
}

// --- Accessors ---

// Running reports whether the loop should keep going.
func (a *App) Running() bool { return a.running }

// Stop ends the loop after the current frame. Teardown then delivers a quit
// event to components that have not seen one.
func (a *App) Stop() { a.running = false }

// Config returns the configuration the app was built with.
func (a *App) Config() Config { return a.cfg }

// Clock returns the app's clock.
func (a *App) Clock() Clock { return a.clock }

// Surface returns the render surface.
func (a *App) Surface() Surface { return a.surface }

// Input returns the input source.
func (a *App) Input() InputSource { return a.input }

// FrameDuration returns the fixed frame budget (1s / fps).
func (a *App) FrameDuration() time.Duration { return a.frameDuration }

// KeyPressed reports whether k is held down, from key events seen so far.
func (a *App) KeyPressed(k ebiten.Key) bool { return a.keys[k] }

// SetKeyPressed overrides the pressed state of k. Used by components that
// translate other devices into keys.
func (a *App) SetKeyPressed(k ebiten.Key, pressed bool) {
	if pressed {
		a.keys[k] = true
		return
	}
	delete(a.keys, k)
}

// SetEventStore sets the optional ECS bridge.
func (a *App) SetEventStore(store EventStore) {
	a.store = store
}

// OnTeardown registers fn to release an external resource when the app is
// torn down. Closers run in reverse registration order, after resources.
func (a *App) OnTeardown(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// --- Built-in handlers ---

func (a *App) onQuit(Event) error {
	a.running = false
	a.quitDelivered = true
	return nil
}

func (a *App) onWindow(Event) error {
	a.Touch()
	return nil
}

func (a *App) onKeyDown(ev Event) error {
	a.keys[ev.Key] = true
	return nil
}

func (a *App) onKeyUp(ev Event) error {
	delete(a.keys, ev.Key)
	return nil
}

// --- Activation engine ---

// ActiveComponents returns the effectively active components in depth-first
// insertion order, as of the last activation pass.
func (a *App) ActiveComponents() []Component {
	out := make([]Component, len(a.active))
	for i, b := range a.active {
		out[i] = b.self
	}
	return out
}

// componentsToPeek returns the active components implementing Peeker,
// rebuilding the cache after an activation change.
func (a *App) componentsToPeek() []*Base {
	if !a.peekValid {
		a.toPeek = a.toPeek[:0]
		for _, b := range a.active {
			if b.peeker != nil {
				a.toPeek = append(a.toPeek, b)
			}
		}
		a.peekValid = true
	}
	return a.toPeek
}

// componentsToRender returns the active components implementing Renderer.
func (a *App) componentsToRender() []*Base {
	if !a.renderValid {
		a.toRender = a.toRender[:0]
		for _, b := range a.active {
			if b.renderer != nil {
				a.toRender = append(a.toRender, b)
			}
		}
		a.renderValid = true
	}
	return a.toRender
}

// updateActiveComponents applies the pending activation map. The map is
// swapped out first, so requests made by Activate/Deactivate hooks land in
// the next frame's pass.
func (a *App) updateActiveComponents() bool {
	if a.pending.empty() {
		return false
	}
	batch := a.pending
	a.pending, a.spare = a.spare, batch
	defer batch.reset()

	changed := false
	for _, b := range batch.order {
		want := batch.desired[b]
		if b.active == want {
			continue
		}
		changed = true
		b.active = want
		if want {
			if b.activator != nil {
				b.activator.Activate()
			}
			a.rootLogger.Debug("component has been activated", "component", b.name, "id", b.id)
		} else {
			if b.deactivator != nil {
				b.deactivator.Deactivate()
			}
			a.rootLogger.Debug("component has been deactivated", "component", b.name, "id", b.id)
		}
	}
	if changed {
		a.active = collectActive(&a.Base, a.active[:0])
		a.peekValid = false
		a.renderValid = false
		a.Touch()
	}
	return changed
}

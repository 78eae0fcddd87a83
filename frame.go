package canopy

import (
	"errors"
	"fmt"
	"time"
)

// ErrTornDown is returned by Step and Loop once the app has been torn down.
var ErrTornDown = errors.New("canopy: app has been torn down")

// Step runs one frame without pacing: apply pending activation, drain and
// dispatch events, fire due timers, run the dirty check and render if any
// component asked for it. Used by drivers that pace frames themselves.
func (a *App) Step() error {
	if a.tornDown {
		return ErrTornDown
	}
	return a.step(a.clock.Now())
}

// Loop runs frames at the configured rate until the app stops. Teardown runs
// exactly once on every exit path: normal quit, a frame error (returned) or a
// panic (re-raised after teardown).
func (a *App) Loop() error {
	if a.tornDown {
		return ErrTornDown
	}
	defer func() {
		if r := recover(); r != nil {
			a.rootLogger.Error("unhandled failure in frame loop", "panic", r)
			a.shutdown()
			panic(r)
		}
	}()

	for a.running {
		start := a.clock.Now()
		if err := a.step(start); err != nil {
			a.rootLogger.Error("frame failed", "err", err)
			a.shutdown()
			return err
		}
		elapsed := a.clock.Now() - start
		if delay := a.frameDuration - elapsed; delay > 0 {
			a.clock.Sleep(delay)
		}
	}
	a.shutdown()
	return nil
}

// Frames returns the number of frames run so far.
func (a *App) Frames() uint64 { return a.frames }

// step runs one frame. start is the tick recorded at the top of the frame;
// it is the deadline reference for timers.
func (a *App) step(start time.Duration) error {
	a.frames++

	var stats frameStats
	var t0 time.Time
	if a.debug {
		t0 = time.Now()
	}

	stats.activationChanged = a.updateActiveComponents()

	if a.debug {
		stats.activationTime = time.Since(t0)
		t0 = time.Now()
	}

	if a.testRunner != nil {
		a.testRunner.step(a)
	}
	stats.events = a.pollEvents()

	if a.debug {
		stats.dispatchTime = time.Since(t0)
		t0 = time.Now()
	}

	stats.timers = a.timers.expire(start)

	if a.debug {
		stats.timerTime = time.Since(t0)
		t0 = time.Now()
	}

	dirty := a.peekComponents()
	stats.peeked = len(a.toPeek)

	if a.debug {
		stats.peekTime = time.Since(t0)
		t0 = time.Now()
	}

	if dirty {
		if err := a.renderComponents(); err != nil {
			return err
		}
		stats.rendered = len(a.toRender)
	}

	if a.debug {
		stats.renderTime = time.Since(t0)
		a.debugLog(stats)
	}
	return nil
}

// pollEvents drains the input source, then the events pushed during the
// previous frame, then at most one injected event, dispatching each in safe
// mode from the root.
func (a *App) pollEvents() int {
	n := 0
	for {
		ev, ok := a.input.PollEvent()
		if !ok {
			break
		}
		a.dispatch(ev)
		n++
	}

	if len(a.events) > 0 {
		a.inbox, a.events = a.events, a.inbox[:0]
		for i := range a.inbox {
			a.dispatch(a.inbox[i])
			n++
		}
		clear(a.inbox)
		a.inbox = a.inbox[:0]
	}

	if len(a.injectQueue) > 0 {
		ev := a.injectQueue[0]
		copy(a.injectQueue, a.injectQueue[1:])
		a.injectQueue = a.injectQueue[:len(a.injectQueue)-1]
		if ev.Timestamp == 0 {
			ev.Timestamp = a.clock.Now()
		}
		a.dispatch(ev)
		n++
	}
	return n
}

// dispatch delivers ev to the active tree and then to the event store.
func (a *App) dispatch(ev Event) {
	a.PollSafe(ev)
	if a.store != nil {
		a.store.EmitEvent(ev)
	}
}

// peekComponents asks every peek-eligible component whether it needs a
// redraw. Every Peek runs, even after one returned true.
func (a *App) peekComponents() bool {
	dirty := false
	for _, b := range a.componentsToPeek() {
		if b.peeker.Peek() {
			dirty = true
		}
	}
	return dirty
}

// renderComponents clears the surface, renders every active renderer in
// tree order and presents the result.
func (a *App) renderComponents() error {
	a.surface.Clear()
	for _, b := range a.componentsToRender() {
		if err := b.renderer.Render(); err != nil {
			return fmt.Errorf("canopy: render %s: %w", b.name, err)
		}
	}
	a.surface.Present()
	return nil
}

// --- Teardown ---

// TornDown reports whether teardown has run.
func (a *App) TornDown() bool { return a.tornDown }

// quit flushes pending input and dispatches a synthetic quit event in safe
// mode so components can release what they hold.
func (a *App) quit() {
	if f, ok := a.input.(Flusher); ok {
		f.Flush()
	}
	clear(a.events)
	a.events = a.events[:0]
	a.injectQueue = a.injectQueue[:0]
	a.dispatch(Event{Type: EventQuit, Timestamp: a.clock.Now(), Synthetic: true})
}

// shutdown runs the teardown sequence once: a synthetic quit for components
// that have not seen one, then resource and collaborator release.
func (a *App) shutdown() {
	if a.tornDown {
		return
	}
	a.tornDown = true
	a.running = false
	if !a.quitDelivered {
		a.quit()
	}
	a.cleanUp()
}

// cleanUp closes loaded resources, then runs teardown closers in reverse
// acquisition order. A failing or panicking release is logged and the rest
// still run.
func (a *App) cleanUp() {
	a.rootLogger.Info("destroying application", "name", a.cfg.Name)
	a.closeResources()
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		a.releaseSafe("resource", c.name, c.fn)
	}
	a.closers = nil
}

// releaseSafe runs fn, logging an error or a panic under kind=name.
func (a *App) releaseSafe(kind, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			a.rootLogger.Error("teardown failed", kind, name, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		a.rootLogger.Error("teardown failed", kind, name, "err", err)
	}
}

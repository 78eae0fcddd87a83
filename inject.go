package canopy

import "github.com/hajimehoshi/ebiten/v2"

// PushEvent queues ev for the next frame's event drain. Events pushed while a
// frame is dispatching are not seen until the following frame.
func (a *App) PushEvent(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = a.clock.Now()
	}
	ev.Synthetic = true
	a.events = append(a.events, ev)
}

// PushUserEvent queues an EventUser carrying code and data.
func (a *App) PushUserEvent(code int, data any) {
	a.PushEvent(Event{Type: EventUser, Code: code, Data: data})
}

// InjectKeyDown queues a synthetic key press. Injected events are consumed one
// per frame, after the input source and pushed events.
func (a *App) InjectKeyDown(k ebiten.Key) {
	a.inject(Event{Type: EventKeyDown, Key: k})
}

// InjectKeyUp queues a synthetic key release.
func (a *App) InjectKeyUp(k ebiten.Key) {
	a.inject(Event{Type: EventKeyUp, Key: k})
}

// InjectKey is a convenience that queues a press followed by a release of k.
// Consumes two frames.
func (a *App) InjectKey(k ebiten.Key) {
	a.InjectKeyDown(k)
	a.InjectKeyUp(k)
}

// InjectText queues a synthetic text input event.
func (a *App) InjectText(text string) {
	a.inject(Event{Type: EventTextInput, Text: text})
}

// InjectQuit queues a synthetic quit event.
func (a *App) InjectQuit() {
	a.inject(Event{Type: EventQuit})
}

// PendingInjections returns the number of injected events not yet consumed.
func (a *App) PendingInjections() int {
	return len(a.injectQueue)
}

func (a *App) inject(ev Event) {
	ev.Synthetic = true
	a.injectQueue = append(a.injectQueue, ev)
}

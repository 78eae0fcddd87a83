// Package canopy is a component scheduling engine for [Ebitengine] apps.
//
// An app is a tree of components. Each frame canopy applies pending
// activation changes, dispatches queued events to the active components,
// fires due timers, asks every active component whether it needs a redraw
// and, only when something changed, clears the surface and renders the active
// components in tree order.
//
// # Quick start
//
// The simplest way to get started is [Run], which opens a window and drives
// the frame loop for you:
//
//	cfg := canopy.DefaultConfig()
//	cfg.Name = "My App"
//	canopy.Run(cfg, func(app *canopy.App) error {
//		return app.AddComponent(&hud{}, canopy.Props{"name": "hud"})
//	})
//
// For tests and headless tools, build the app with [NewApp] and your own
// [Clock], [Surface] and [InputSource], then call [App.Step] once per frame.
//
// # Components
//
// A component embeds [Base] and implements any of the optional hooks:
// [Initializer], [Activator], [Deactivator], [Peeker], [Renderer] and
// [DefaultEnabler]. Props are fixed at attach time; state changes go through
// [Base.SetState], which marks the app dirty when the state actually changed.
//
//	type hud struct{ canopy.Base }
//
//	func (h *hud) EnabledByDefault() bool { return true }
//	func (h *hud) Render() error {
//		return h.App().Write(canopy.DefaultFontKey, 10, 10, "hello")
//	}
//
// # Activation
//
// [Base.Enable], [Base.Disable] and [Base.Toggle] only record a request. The
// requests are applied at the start of the next frame, the last one per
// component winning. A component is effectively active when it and all of
// its ancestors are active; inactive subtrees receive no events, peeks or
// renders.
//
// # Events and timers
//
// Handlers registered with [Base.RegisterEventHandler] run in tree order.
// [Base.Poll] stops at the first handler error; [Base.PollSafe] logs it and
// carries on. [App.AddTimer] schedules a callback after a delay, measured on
// the app [Clock].
//
// # Resources
//
// Images, fonts and sounds are loaded by file extension from the search path
// with [App.LoadResource] and released in reverse order at teardown. Sounds
// play through a [Mixer] built on [beep].
//
// # Scripted runs
//
// [LoadTestScript] reads a JSON script of key presses, text input, waits and
// activation toggles, and [TestRunner] injects it into a running app.
//
// [Ebitengine]: https://ebitengine.org
// [beep]: https://github.com/gopxl/beep
package canopy

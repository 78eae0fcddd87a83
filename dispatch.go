package canopy

import (
	"fmt"
	"reflect"
	"runtime"
)

// HandlerError is returned by Poll when an event handler fails. Dispatch of
// that event stops at the failing handler.
type HandlerError struct {
	Component string
	Handler   string
	Event     EventType
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("canopy: %s handler %s on %s: %v", e.Event, e.Handler, e.Component, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// handlerName returns the function name of h for logging.
func handlerName(h Handler) string {
	fn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

// Poll dispatches ev to this component's handlers for ev.Type, then to each
// child in insertion order. Inactive components skip their whole subtree. The
// first handler error aborts the remaining dispatch and is returned.
func (b *Base) Poll(ev Event) error {
	if !b.active {
		return nil
	}
	for _, h := range b.handlers[ev.Type] {
		if err := h.fn(ev); err != nil {
			return &HandlerError{
				Component: b.name,
				Handler:   handlerName(h.fn),
				Event:     ev.Type,
				Err:       err,
			}
		}
	}
	for _, child := range b.children {
		if err := child.Poll(ev); err != nil {
			return err
		}
	}
	return nil
}

// PollSafe is Poll for the steady-state loop: a failing or panicking handler
// is logged and dispatch continues with the remaining handlers and children.
func (b *Base) PollSafe(ev Event) {
	if !b.active {
		return
	}
	for _, h := range b.handlers[ev.Type] {
		b.callSafe(h.fn, ev)
	}
	for _, child := range b.children {
		child.PollSafe(ev)
	}
}

func (b *Base) callSafe(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("error during execution of event handler",
				"handler", handlerName(h), "event", ev.Type.String(), "panic", r)
		}
	}()
	if err := h(ev); err != nil {
		b.logger.Error("error during execution of event handler",
			"handler", handlerName(h), "event", ev.Type.String(), "err", err)
	}
}

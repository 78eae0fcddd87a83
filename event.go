package canopy

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// EventType identifies a kind of input or system event.
type EventType uint8

const (
	EventQuit             EventType = iota // the application is shutting down
	EventWindow                            // window resized, focused, exposed, ...
	EventKeyDown                           // a key was pressed
	EventKeyUp                             // a key was released
	EventTextInput                         // characters were typed
	EventMouseButtonDown                   // a mouse button was pressed
	EventMouseButtonUp                     // a mouse button was released
	EventMouseMotion                       // the cursor moved
	EventMouseWheel                        // the wheel scrolled
	EventJoyDeviceAdded                    // a joystick was connected
	EventJoyDeviceRemoved                  // a joystick was disconnected
	EventJoyButtonDown                     // a joystick button was pressed
	EventJoyButtonUp                       // a joystick button was released
	EventJoyAxisMotion                     // a joystick axis moved past the dead zone
	EventUser                              // application-defined payload
)

var eventTypeNames = [...]string{
	EventQuit:             "quit",
	EventWindow:           "window",
	EventKeyDown:          "key-down",
	EventKeyUp:            "key-up",
	EventTextInput:        "text-input",
	EventMouseButtonDown:  "mouse-button-down",
	EventMouseButtonUp:    "mouse-button-up",
	EventMouseMotion:      "mouse-motion",
	EventMouseWheel:       "mouse-wheel",
	EventJoyDeviceAdded:   "joy-device-added",
	EventJoyDeviceRemoved: "joy-device-removed",
	EventJoyButtonDown:    "joy-button-down",
	EventJoyButtonUp:      "joy-button-up",
	EventJoyAxisMotion:    "joy-axis-motion",
	EventUser:             "user",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("event(%d)", uint8(t))
}

// WindowEvent distinguishes EventWindow payloads.
type WindowEvent uint8

const (
	WindowExposed     WindowEvent = iota // contents need to be redrawn
	WindowResized                        // Width/Height carry the new size
	WindowFocusGained                    // the window gained keyboard focus
	WindowFocusLost                      // the window lost keyboard focus
)

// Event is a single input or system event. Type selects which payload fields
// are meaningful.
type Event struct {
	Type      EventType
	Timestamp time.Duration // clock reading when the event was queued
	Synthetic bool          // generated by canopy rather than the input library

	// EventWindow
	Window        WindowEvent
	Width, Height int

	// EventKeyDown, EventKeyUp
	Key    ebiten.Key
	Repeat bool

	// EventTextInput
	Text string

	// EventMouseButtonDown, EventMouseButtonUp, EventMouseMotion, EventMouseWheel
	X, Y           int
	MouseButton    ebiten.MouseButton
	WheelX, WheelY float64

	// EventJoyDeviceAdded, EventJoyDeviceRemoved, EventJoyButton*, EventJoyAxisMotion.
	// Which is the device index for added events and the instance id otherwise.
	Which  int
	Button ebiten.GamepadButton
	Axis   int
	Value  float64

	// EventUser
	Code int
	Data any
}

// Handler reacts to an event. A returned error is a handler failure: logged
// and skipped by PollSafe, propagated by Poll.
type Handler func(Event) error

// EventStore is the interface for optional ECS integration. When set on an
// App, every dispatched event is forwarded to it after the tree has seen it.
type EventStore interface {
	EmitEvent(event Event)
}

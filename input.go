package canopy

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// InputSource yields pending events one at a time. The scheduler drains it
// completely at the start of every frame.
type InputSource interface {
	PollEvent() (Event, bool)
}

// Flusher is implemented by input sources that can drop pending events. The
// quit sequence flushes the source before dispatching its synthetic quit.
type Flusher interface {
	Flush()
}

// EventQueue is a FIFO InputSource fed by Push. It is the default source for
// headless apps and tests.
type EventQueue struct {
	events []Event
	head   int
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Push appends events to the queue.
func (q *EventQueue) Push(events ...Event) {
	q.events = append(q.events, events...)
}

// PollEvent pops the oldest event.
func (q *EventQueue) PollEvent() (Event, bool) {
	if q.head >= len(q.events) {
		return Event{}, false
	}
	ev := q.events[q.head]
	q.events[q.head] = Event{}
	q.head++
	if q.head == len(q.events) {
		q.events = q.events[:0]
		q.head = 0
	}
	return ev, true
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return len(q.events) - q.head
}

// Flush drops every pending event.
func (q *EventQueue) Flush() {
	clear(q.events)
	q.events = q.events[:0]
	q.head = 0
}

// --- Ebitengine input ---

const (
	// keyRepeatDelay and keyRepeatInterval are in ticks.
	keyRepeatDelay    = 30
	keyRepeatInterval = 3

	// axisThreshold is the minimum change that produces an axis event.
	axisThreshold = 0.05
)

// ebitenInput turns Ebitengine's polled input state into events. capture runs
// once per Ebitengine tick, before the frame drains the queue.
type ebitenInput struct {
	EventQueue
	clock Clock

	width, height int
	focused       bool
	cursorX       int
	cursorY       int
	closing       bool

	keyBuf   []ebiten.Key
	runeBuf  []rune
	padBuf   []ebiten.GamepadID
	rawBuf   []ebiten.GamepadButton
	gamepads []ebiten.GamepadID
	axes     map[ebiten.GamepadID][]float64
}

func newEbitenInput(clock Clock) *ebitenInput {
	w, h := ebiten.WindowSize()
	return &ebitenInput{
		clock:   clock,
		width:   w,
		height:  h,
		focused: true,
		axes:    make(map[ebiten.GamepadID][]float64),
	}
}

func (in *ebitenInput) emit(ev Event) {
	ev.Timestamp = in.clock.Now()
	in.Push(ev)
}

// capture reads the current Ebitengine input state and queues an event for
// every change since the previous tick.
func (in *ebitenInput) capture() {
	in.captureWindow()
	in.captureKeys()
	in.captureMouse()
	in.captureGamepads()
}

func (in *ebitenInput) captureWindow() {
	if ebiten.IsWindowBeingClosed() && !in.closing {
		in.closing = true
		in.emit(Event{Type: EventQuit})
	}
	if w, h := ebiten.WindowSize(); w != in.width || h != in.height {
		in.width, in.height = w, h
		in.emit(Event{Type: EventWindow, Window: WindowResized, Width: w, Height: h})
	}
	if f := ebiten.IsFocused(); f != in.focused {
		in.focused = f
		we := WindowFocusLost
		if f {
			we = WindowFocusGained
		}
		in.emit(Event{Type: EventWindow, Window: we})
	}
}

func (in *ebitenInput) captureKeys() {
	in.keyBuf = inpututil.AppendJustPressedKeys(in.keyBuf[:0])
	for _, k := range in.keyBuf {
		in.emit(Event{Type: EventKeyDown, Key: k})
	}
	in.keyBuf = inpututil.AppendPressedKeys(in.keyBuf[:0])
	for _, k := range in.keyBuf {
		if keyRepeats(inpututil.KeyPressDuration(k)) {
			in.emit(Event{Type: EventKeyDown, Key: k, Repeat: true})
		}
	}
	in.keyBuf = inpututil.AppendJustReleasedKeys(in.keyBuf[:0])
	for _, k := range in.keyBuf {
		in.emit(Event{Type: EventKeyUp, Key: k})
	}
	in.runeBuf = ebiten.AppendInputChars(in.runeBuf[:0])
	if len(in.runeBuf) > 0 {
		in.emit(Event{Type: EventTextInput, Text: string(in.runeBuf)})
	}
}

// keyRepeats reports whether a key held for d ticks produces a repeat event
// on this tick.
func keyRepeats(d int) bool {
	return d > keyRepeatDelay && (d-keyRepeatDelay)%keyRepeatInterval == 0
}

var mouseButtons = [...]ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

func (in *ebitenInput) captureMouse() {
	x, y := ebiten.CursorPosition()
	if x != in.cursorX || y != in.cursorY {
		in.cursorX, in.cursorY = x, y
		in.emit(Event{Type: EventMouseMotion, X: x, Y: y})
	}
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			in.emit(Event{Type: EventMouseButtonDown, X: x, Y: y, MouseButton: b})
		}
		if inpututil.IsMouseButtonJustReleased(b) {
			in.emit(Event{Type: EventMouseButtonUp, X: x, Y: y, MouseButton: b})
		}
	}
	if wx, wy := ebiten.Wheel(); wx != 0 || wy != 0 {
		in.emit(Event{Type: EventMouseWheel, X: x, Y: y, WheelX: wx, WheelY: wy})
	}
}

func (in *ebitenInput) captureGamepads() {
	in.padBuf = inpututil.AppendJustConnectedGamepadIDs(in.padBuf[:0])
	for _, id := range in.padBuf {
		in.gamepads = append(in.gamepads, id)
		in.emit(Event{Type: EventJoyDeviceAdded, Which: int(id)})
	}

	kept := in.gamepads[:0]
	for _, id := range in.gamepads {
		if inpututil.IsGamepadJustDisconnected(id) {
			delete(in.axes, id)
			in.emit(Event{Type: EventJoyDeviceRemoved, Which: int(id)})
			continue
		}
		kept = append(kept, id)
	}
	in.gamepads = kept

	for _, id := range in.gamepads {
		in.rawBuf = inpututil.AppendJustPressedGamepadButtons(id, in.rawBuf[:0])
		for _, b := range in.rawBuf {
			in.emit(Event{Type: EventJoyButtonDown, Which: int(id), Button: b})
		}
		in.rawBuf = inpututil.AppendJustReleasedGamepadButtons(id, in.rawBuf[:0])
		for _, b := range in.rawBuf {
			in.emit(Event{Type: EventJoyButtonUp, Which: int(id), Button: b})
		}
		in.captureAxes(id)
	}
}

func (in *ebitenInput) captureAxes(id ebiten.GamepadID) {
	n := ebiten.GamepadAxisCount(id)
	last := in.axes[id]
	if len(last) != n {
		last = make([]float64, n)
		in.axes[id] = last
	}
	for axis := 0; axis < n; axis++ {
		v := ebiten.GamepadAxisValue(id, axis)
		if axisMoved(last[axis], v) {
			last[axis] = v
			in.emit(Event{Type: EventJoyAxisMotion, Which: int(id), Axis: axis, Value: v})
		}
	}
}

// axisMoved reports whether an axis moved far enough from its last reported
// value to be worth an event. Returning to rest always counts.
func axisMoved(last, v float64) bool {
	if v == 0 {
		return last != 0
	}
	return math.Abs(v-last) >= axisThreshold
}

package canopy

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// gamepadInfo answers device questions about gamepads. Ebitengine in
// production; a fake in tests.
type gamepadInfo interface {
	Name(id int) string
	GUID(id int) string
	Connected(id int) bool
	IDs() []int
}

type ebitenGamepads struct {
	buf []ebiten.GamepadID
}

func (g *ebitenGamepads) Name(id int) string { return ebiten.GamepadName(ebiten.GamepadID(id)) }
func (g *ebitenGamepads) GUID(id int) string { return ebiten.GamepadSDLID(ebiten.GamepadID(id)) }

func (g *ebitenGamepads) Connected(id int) bool {
	return slices.Contains(g.IDs(), id)
}

func (g *ebitenGamepads) IDs() []int {
	g.buf = ebiten.AppendGamepadIDs(g.buf[:0])
	ids := make([]int, len(g.buf))
	for i, id := range g.buf {
		ids[i] = int(id)
	}
	return ids
}

// Joystick is a gamepad known to the JoystickManager. It is created closed;
// Open binds it to the device so button and axis events can be matched
// against ID.
type Joystick struct {
	index  int
	id     int
	name   string
	guid   string
	info   gamepadInfo
	logger *slog.Logger
}

// newJoystick describes the device at index. A GUID already in existing gets
// a "-<index>" suffix so identical controllers stay distinguishable.
func newJoystick(info gamepadInfo, logger *slog.Logger, index int, existing []string) *Joystick {
	j := &Joystick{
		index:  index,
		id:     -1,
		name:   info.Name(index),
		guid:   info.GUID(index),
		info:   info,
		logger: logger,
	}
	if slices.Contains(existing, j.guid) {
		j.guid = fmt.Sprintf("%s-%d", j.guid, index)
	}
	return j
}

// Index returns the device index the joystick was added with.
func (j *Joystick) Index() int { return j.index }

// ID returns the instance id events carry, or -1 while closed.
func (j *Joystick) ID() int { return j.id }

// Name returns the device name.
func (j *Joystick) Name() string { return j.name }

// GUID returns the SDL-compatible device GUID, deduplicated.
func (j *Joystick) GUID() string { return j.guid }

// Opened reports whether the joystick is open and still attached.
func (j *Joystick) Opened() bool {
	return j.id >= 0 && j.info.Connected(j.id)
}

// Open binds the joystick to its device. No-op when already open.
func (j *Joystick) Open() {
	if j.Opened() {
		return
	}
	if !j.info.Connected(j.index) {
		j.logger.Warn("could not open joystick", "index", j.index)
		return
	}
	j.id = j.index
	j.logger.Info("joystick opened", "index", j.index, "name", j.name, "guid", j.guid)
}

// Close releases the joystick. No-op when not open.
func (j *Joystick) Close() {
	if j.id < 0 {
		return
	}
	j.logger.Info("joystick removed", "index", j.index, "name", j.name)
	j.id = -1
}

// JoystickManager keeps the list of attached joysticks up to date from device
// events. Its handlers are registered on the app, so they run whether or not
// the manager itself is active.
type JoystickManager struct {
	Base
	joysticks map[int]*Joystick
	info      gamepadInfo
}

// NewJoystickManager creates a manager reading Ebitengine's gamepad state.
func NewJoystickManager() *JoystickManager {
	return &JoystickManager{info: &ebitenGamepads{}}
}

func (m *JoystickManager) Init() error {
	m.joysticks = make(map[int]*Joystick)
	app := m.App()
	app.RegisterEventHandler(EventQuit, m.onQuit)
	app.RegisterEventHandler(EventJoyDeviceAdded, m.onAdded)
	app.RegisterEventHandler(EventJoyDeviceRemoved, m.onRemoved)
	return nil
}

// onAdded creates an unopened Joystick. Which is the device index.
func (m *JoystickManager) onAdded(ev Event) error {
	m.add(ev.Which)
	return nil
}

func (m *JoystickManager) add(index int) {
	existing := make([]string, 0, len(m.joysticks))
	for _, j := range m.joysticks {
		existing = append(existing, j.guid)
	}
	m.joysticks[index] = newJoystick(m.info, m.Logger(), index, existing)
}

// onRemoved drops the joystick whose instance id is Which.
func (m *JoystickManager) onRemoved(ev Event) error {
	for index, j := range m.joysticks {
		if j.id == ev.Which {
			delete(m.joysticks, index)
		}
	}
	return nil
}

func (m *JoystickManager) onQuit(Event) error {
	for _, j := range m.joysticks {
		j.Close()
	}
	return nil
}

// Get returns the joystick added with index.
func (m *JoystickManager) Get(index int) (*Joystick, bool) {
	j, ok := m.joysticks[index]
	return j, ok
}

// Find returns the open joystick with instance id, or nil.
func (m *JoystickManager) Find(id int) *Joystick {
	for _, j := range m.joysticks {
		if j.id == id {
			return j
		}
	}
	return nil
}

// Joysticks returns every known joystick ordered by index.
func (m *JoystickManager) Joysticks() []*Joystick {
	out := make([]*Joystick, 0, len(m.joysticks))
	for _, j := range m.joysticks {
		out = append(out, j)
	}
	slices.SortFunc(out, func(a, b *Joystick) int { return a.index - b.index })
	return out
}

// Reload forgets every joystick and re-adds the connected devices.
func (m *JoystickManager) Reload() {
	for _, j := range m.joysticks {
		j.Close()
	}
	clear(m.joysticks)
	for _, id := range m.info.IDs() {
		m.add(id)
	}
}

// JoystickKeys translates the buttons of one joystick into key events, so
// keyboard-driven components work with a gamepad. The "index" prop selects
// the joystick instance id. It starts enabled.
type JoystickKeys struct {
	Base
	mapping map[ebiten.GamepadButton]ebiten.Key
	which   int
}

// NewJoystickKeys creates a translator for mapping.
func NewJoystickKeys(mapping map[ebiten.GamepadButton]ebiten.Key) *JoystickKeys {
	return &JoystickKeys{mapping: mapping}
}

func (k *JoystickKeys) EnabledByDefault() bool { return true }

func (k *JoystickKeys) Init() error {
	k.which = k.Props().Int("index", 0)
	k.RegisterEventHandler(EventJoyButtonDown, k.onButtonDown)
	k.RegisterEventHandler(EventJoyButtonUp, k.onButtonUp)
	return nil
}

func (k *JoystickKeys) onButtonDown(ev Event) error {
	if ev.Which != k.which {
		return nil
	}
	key, ok := k.mapping[ev.Button]
	if !ok {
		k.Logger().Debug("button not mapped", "button", int(ev.Button), "joystick", ev.Which)
		return nil
	}
	k.App().PushEvent(Event{Type: EventKeyDown, Key: key})
	return nil
}

func (k *JoystickKeys) onButtonUp(ev Event) error {
	if ev.Which != k.which {
		return nil
	}
	if key, ok := k.mapping[ev.Button]; ok {
		k.App().PushEvent(Event{Type: EventKeyUp, Key: key})
	}
	return nil
}

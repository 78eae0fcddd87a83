package canopy

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Component is a node in the UI tree. Implement it by embedding Base:
//
//	type Menu struct {
//		canopy.Base
//	}
//
// Behavior is opted into with the capability interfaces below; they are
// checked once, when the component is attached to its parent.
type Component interface {
	base() *Base
}

// Initializer runs one-time setup right after the component is attached.
type Initializer interface {
	Init() error
}

// Activator is notified when the component becomes active.
type Activator interface {
	Activate()
}

// Deactivator is notified when the component becomes inactive.
type Deactivator interface {
	Deactivate()
}

// Peeker reports once per frame whether the component needs to be redrawn.
// Peek may have side effects; it is called on every eligible component even
// after another one already answered true.
type Peeker interface {
	Peek() bool
}

// Renderer draws the component onto the app's surface.
type Renderer interface {
	Render() error
}

// DefaultEnabler marks component kinds that start enabled. The enable is
// still queued and applied with the next activation pass.
type DefaultEnabler interface {
	EnabledByDefault() bool
}

// componentIDCounter is a plain counter. canopy is single-threaded.
var componentIDCounter uint32

func nextComponentID() uint32 {
	componentIDCounter++
	return componentIDCounter
}

// Base carries the bookkeeping shared by every component: identity, tree
// links, activation flag, props, state and event handlers.
type Base struct {
	id     uint32
	name   string
	app    *App
	parent *Base
	self   Component
	active bool

	props    Props
	state    State
	equal    EqualFunc
	children []*Base
	handlers map[EventType][]handlerEntry
	logger   *slog.Logger

	// Capabilities resolved at attach time.
	peeker      Peeker
	renderer    Renderer
	activator   Activator
	deactivator Deactivator
}

func (b *Base) base() *Base { return b }

// attach wires a freshly constructed component into the tree. It does not
// call Init.
func (b *Base) attach(app *App, parent *Base, self Component, props Props) {
	if b.app != nil {
		panic("canopy: component is already attached")
	}
	if props == nil {
		props = Props{}
	}
	b.id = nextComponentID()
	b.app = app
	b.parent = parent
	b.self = self
	b.props = props
	b.state = State{}
	b.handlers = make(map[EventType][]handlerEntry)
	if b.equal == nil {
		b.equal = ValueEqual
	}
	b.name = props.String("name", typeName(self))
	b.logger = app.rootLogger.With("component", b.name, "id", b.id)

	b.peeker, _ = self.(Peeker)
	b.renderer, _ = self.(Renderer)
	b.activator, _ = self.(Activator)
	b.deactivator, _ = self.(Deactivator)
}

// typeName returns the bare type name of a component ("Menu" for *game.Menu).
func typeName(c Component) string {
	name := fmt.Sprintf("%T", c)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// ID returns the component's unique identifier. IDs are never reused.
func (b *Base) ID() uint32 { return b.id }

// Name returns the component's name: the "name" prop, or its type name.
func (b *Base) Name() string { return b.name }

// App returns the owning application.
func (b *Base) App() *App { return b.app }

// Parent returns the parent component, or nil for the app itself.
func (b *Base) Parent() Component {
	if b.parent == nil {
		return nil
	}
	return b.parent.self
}

// Active reports the component's own activation flag. A component is
// effectively active only when all of its ancestors are active too.
func (b *Base) Active() bool { return b.active }

// EffectivelyActive reports whether the component and every ancestor are active.
func (b *Base) EffectivelyActive() bool {
	for p := b; p != nil; p = p.parent {
		if !p.active {
			return false
		}
	}
	return true
}

// Props returns the props the component was added with.
func (b *Base) Props() Props { return b.props }

// State returns the component's state. The returned map MUST NOT be mutated;
// use SetState.
func (b *Base) State() State { return b.state }

// Logger returns the component's logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Children returns the child components in insertion order.
func (b *Base) Children() []Component {
	out := make([]Component, len(b.children))
	for i, c := range b.children {
		out[i] = c.self
	}
	return out
}

// NumChildren returns the number of children.
func (b *Base) NumChildren() int {
	return len(b.children)
}

// SetEqual replaces the comparator used by SetState. Pass IdentityEqual for
// components that treat every new object as a change.
func (b *Base) SetEqual(fn EqualFunc) {
	if fn == nil {
		fn = ValueEqual
	}
	b.equal = fn
}

// SetState merges partial into the state when at least one key is new or
// differs from the stored value under the comparator. The app is touched once
// per call that changes anything; unchanged calls do nothing.
func (b *Base) SetState(partial State) {
	for k, v := range partial {
		old, ok := b.state[k]
		if ok && b.equal(old, v) {
			continue
		}
		for pk, pv := range partial {
			b.state[pk] = pv
		}
		b.app.Touch()
		return
	}
}

// Touch marks the application dirty.
func (b *Base) Touch() {
	b.app.Touch()
}

// --- Activation requests ---

// Enable requests activation at the start of the next frame.
func (b *Base) Enable() {
	b.app.pending.set(b, true)
}

// Disable requests deactivation at the start of the next frame.
func (b *Base) Disable() {
	b.app.pending.set(b, false)
}

// Toggle requests the opposite of the current activation flag.
func (b *Base) Toggle() {
	b.app.pending.set(b, !b.active)
}

// --- Tree manipulation ---

// AddComponent attaches c as the last child of b with the given props and
// runs its Init hook. If Init fails the add is rolled back and the error is
// returned: the child and everything Init added below it leave the tree and
// the pending activation map, and the event handlers and timers registered
// while Init ran are dropped. Resources and teardown closers stay with the
// app. The same component may be added again afterwards.
func (b *Base) AddComponent(c Component, props Props) error {
	if c == nil {
		panic("canopy: cannot add nil component")
	}
	child := c.base()
	child.attach(b.app, b, c, props)
	b.children = append(b.children, child)
	if b.app.debug {
		debugCheckTreeDepth(b.app, child)
		debugCheckChildCount(b.app, b)
	}

	if in, ok := c.(Initializer); ok {
		app := b.app
		if err := app.runInit(child, in); err != nil {
			b.removeChild(child)
			app.rollback(child)
			return fmt.Errorf("canopy: init %s: %w", child.name, err)
		}
	}
	if de, ok := c.(DefaultEnabler); ok && de.EnabledByDefault() {
		child.Enable()
	}
	return nil
}

// runInit calls in.Init with child recorded as the owner of the handlers and
// timers registered meanwhile.
func (a *App) runInit(child *Base, in Initializer) error {
	a.initializing = append(a.initializing, child)
	defer func() { a.initializing = a.initializing[:len(a.initializing)-1] }()
	return in.Init()
}

// rollback undoes a failed add of child, which is already out of its
// parent's children.
func (a *App) rollback(child *Base) {
	failed := make(map[*Base]bool)
	walk(child, func(n *Base) { failed[n] = true })

	for n := range failed {
		a.pending.remove(n)
	}
	walk(&a.Base, func(n *Base) { n.dropHandlers(failed) })
	a.timers.drop(failed)
	walk(child, func(n *Base) { n.detach() })
}

// walk visits b and its descendants depth-first.
func walk(b *Base, fn func(*Base)) {
	fn(b)
	for _, child := range b.children {
		walk(child, fn)
	}
}

// detach clears the tree links so the component can be attached again.
func (b *Base) detach() {
	b.app = nil
	b.parent = nil
	b.children = nil
	b.handlers = nil
	b.active = false
}

// removeChild drops child from b.children. Uses copy+nil to avoid retaining a
// dangling pointer in the backing array.
func (b *Base) removeChild(child *Base) {
	for i, c := range b.children {
		if c == child {
			copy(b.children[i:], b.children[i+1:])
			b.children[len(b.children)-1] = nil
			b.children = b.children[:len(b.children)-1]
			return
		}
	}
}

// FindComponent returns the first component named name in depth-first
// order, starting with b itself, or nil.
func (b *Base) FindComponent(name string) Component {
	if b.name == name {
		return b.self
	}
	for _, child := range b.children {
		if c := child.FindComponent(name); c != nil {
			return c
		}
	}
	return nil
}

// collectActive appends b and its effectively active descendants in
// depth-first insertion order. Inactive nodes prune their whole subtree.
func collectActive(b *Base, buf []*Base) []*Base {
	if !b.active {
		return buf
	}
	buf = append(buf, b)
	for _, child := range b.children {
		buf = collectActive(child, buf)
	}
	return buf
}

// --- Event handlers ---

// handlerEntry is a registered handler and the component whose Init was
// running when it was registered, if any.
type handlerEntry struct {
	fn    Handler
	owner *Base
}

// RegisterEventHandler appends h to the handlers for t. Handlers of the same
// type run in registration order.
func (b *Base) RegisterEventHandler(t EventType, h Handler) {
	if h == nil {
		panic("canopy: cannot register nil handler")
	}
	b.handlers[t] = append(b.handlers[t], handlerEntry{fn: h, owner: b.app.initOwner()})
}

// dropHandlers removes the handlers owned by a component in owners.
func (b *Base) dropHandlers(owners map[*Base]bool) {
	for t, hs := range b.handlers {
		b.handlers[t] = slices.DeleteFunc(hs, func(e handlerEntry) bool {
			return e.owner != nil && owners[e.owner]
		})
	}
}

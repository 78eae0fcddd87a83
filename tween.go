package canopy

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween animates a value from the "from" prop to the "to" prop over the
// "duration" prop (default 1s) while it is active. Each frame's Peek advances
// the animation by the clock time since the previous Peek and reports dirty
// until it finishes. Activating the component restarts it.
type Tween struct {
	Base
	Easing   ease.TweenFunc
	OnUpdate func(value float64)
	OnDone   func()

	tween   *gween.Tween
	from    float64
	value   float64
	last    time.Duration
	running bool
}

// NewTween creates a Tween using fn, or linear easing when fn is nil.
func NewTween(fn ease.TweenFunc) *Tween {
	return &Tween{Easing: fn}
}

func (t *Tween) Init() error {
	if t.Easing == nil {
		t.Easing = ease.Linear
	}
	p := t.Props()
	t.from = p.Float("from", 0)
	to := p.Float("to", 1)
	d := p.Duration("duration", time.Second)
	t.tween = gween.New(float32(t.from), float32(to), float32(d.Seconds()), t.Easing)
	t.value = t.from
	return nil
}

func (t *Tween) Activate() { t.Restart() }

// Restart rewinds the animation to its start. It runs from the next Peek
// whether or not the previous run had finished.
func (t *Tween) Restart() {
	t.tween.Reset()
	t.value = t.from
	t.last = t.App().Clock().Now()
	t.running = true
	t.Touch()
}

func (t *Tween) Deactivate() {
	t.running = false
}

func (t *Tween) Peek() bool {
	if !t.running {
		return false
	}
	now := t.App().Clock().Now()
	dt := now - t.last
	t.last = now

	v, finished := t.tween.Update(float32(dt.Seconds()))
	t.value = float64(v)
	if t.OnUpdate != nil {
		t.OnUpdate(t.value)
	}
	if finished {
		t.running = false
		if t.OnDone != nil {
			t.OnDone()
		}
	}
	return true
}

// Value returns the current animated value.
func (t *Tween) Value() float64 { return t.value }

// Running reports whether the animation is still in progress.
func (t *Tween) Running() bool { return t.running }

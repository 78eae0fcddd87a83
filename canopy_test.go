package canopy

import (
	"image/color"
	"testing"
	"time"
)

// --- Rect ---

func TestRectContains(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"outside left", 9, 40, false},
		{"outside below", 50, 71, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.expect {
				t.Errorf("Rect%v.Contains(%v, %v) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}
}

func TestRectEmpty(t *testing.T) {
	if (Rect{0, 0, 1, 1}).Empty() {
		t.Error("1x1 rect reported empty")
	}
	if !(Rect{5, 5, 0, 10}).Empty() || !(Rect{0, 0, 3, -1}).Empty() {
		t.Error("degenerate rect not empty")
	}
}

// --- Color ---

func TestColorToRGBA(t *testing.T) {
	tests := []struct {
		name string
		in   Color
		want color.RGBA
	}{
		{"white", ColorWhite, color.RGBA{255, 255, 255, 255}},
		{"black", ColorBlack, color.RGBA{0, 0, 0, 255}},
		{"half red premultiplied", Color{1, 0, 0, 0.5}, color.RGBA{127, 0, 0, 127}},
		{"clamped", Color{2, -1, 0, 1}, color.RGBA{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		if got := tt.in.ToRGBA(); got != tt.want {
			t.Errorf("%s: ToRGBA() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRGBA(t *testing.T) {
	c := RGBA(255, 0, 51, 255)
	if c.R != 1 || c.G != 0 || c.B != 0.2 || c.A != 1 {
		t.Errorf("RGBA(255, 0, 51, 255) = %v", c)
	}
}

func TestZeroColorScaleIsIdentity(t *testing.T) {
	var zero Color
	cs := zero.colorScale()
	if cs.R() != 1 || cs.G() != 1 || cs.B() != 1 || cs.A() != 1 {
		t.Errorf("zero Color scale = %v, want identity", cs)
	}
	white := ColorWhite.colorScale()
	if white.R() != 1 || white.A() != 1 {
		t.Errorf("white scale = %v, want identity", white)
	}
}

// --- Props ---

func TestPropsAccessors(t *testing.T) {
	p := Props{
		"i":   3,
		"f":   1.5,
		"s":   "menu",
		"b":   true,
		"ms":  250,
		"dur": 2 * time.Second,
		"c":   ColorBlack,
	}
	if p.Int("i", 0) != 3 || p.Int("f", 0) != 1 || p.Int("missing", 7) != 7 || p.Int("s", 9) != 9 {
		t.Error("Int accessor")
	}
	if p.Float("f", 0) != 1.5 || p.Float("i", 0) != 3 || p.Float("s", -1) != -1 {
		t.Error("Float accessor")
	}
	if p.String("s", "") != "menu" || p.String("i", "x") != "x" {
		t.Error("String accessor")
	}
	if !p.Bool("b", false) || p.Bool("missing", false) {
		t.Error("Bool accessor")
	}
	if p.Duration("ms", 0) != 250*time.Millisecond || p.Duration("dur", 0) != 2*time.Second || p.Duration("s", time.Minute) != time.Minute {
		t.Error("Duration accessor")
	}
	if p.Color("c", ColorWhite) != ColorBlack || p.Color("missing", ColorWhite) != ColorWhite {
		t.Error("Color accessor")
	}
	var nilProps Props
	if nilProps.Int("x", 4) != 4 {
		t.Error("nil Props should return defaults")
	}
}

// --- Comparators ---

func TestValueEqual(t *testing.T) {
	if !ValueEqual([]int{1, 2}, []int{1, 2}) {
		t.Error("equal slices")
	}
	if ValueEqual(map[string]int{"a": 1}, map[string]int{"a": 2}) {
		t.Error("different maps")
	}
	if !ValueEqual(nil, nil) {
		t.Error("nil and nil")
	}
}

func TestIdentityEqual(t *testing.T) {
	a := []int{1, 2}
	m := map[string]int{}
	p := &struct{ n int }{}
	tests := []struct {
		name     string
		old, new any
		want     bool
	}{
		{"same slice", a, a, true},
		{"copied slice", a, []int{1, 2}, false},
		{"resliced", a, a[:1], false},
		{"same map", m, m, true},
		{"new map", m, map[string]int{}, false},
		{"same pointer", p, p, true},
		{"equal struct by pointer", p, &struct{ n int }{}, false},
		{"ints", 3, 3, true},
		{"strings", "x", "y", false},
		{"types", 1, int64(1), false},
		{"nil and nil", nil, nil, true},
		{"nil and value", nil, 1, false},
	}
	for _, tt := range tests {
		if got := IdentityEqual(tt.old, tt.new); got != tt.want {
			t.Errorf("%s: IdentityEqual = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// --- EventType ---

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		t    EventType
		want string
	}{
		{EventQuit, "quit"},
		{EventKeyDown, "key-down"},
		{EventJoyAxisMotion, "joy-axis-motion"},
		{EventUser, "user"},
		{EventType(200), "event(200)"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %q, want %q", uint8(tt.t), got, tt.want)
		}
	}
}

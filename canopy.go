package canopy

import (
	"image/color"
	"reflect"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
	A float64 `yaml:"a"`
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is the default clear color.
var ColorBlack = Color{0, 0, 0, 1}

// RGBA builds a Color from 8-bit channels.
func RGBA(r, g, b, a uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, float64(a) / 255}
}

// ToRGBA converts a Color to a premultiplied color.RGBA, for image.Fill and
// friends.
func (c Color) ToRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// colorScale converts a Color into an ebiten.ColorScale. The zero Color is
// treated as white so an unset tint leaves the image untouched.
func (c Color) colorScale() ebiten.ColorScale {
	var cs ebiten.ColorScale
	if c == (Color{}) {
		return cs
	}
	cs.ScaleWithColor(color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	})
	return cs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// --- Props ---

// Props is the externally supplied, read-mostly configuration of a component.
type Props map[string]any

// Int returns the int stored under key, or def when absent or of another type.
func (p Props) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Float returns the float64 stored under key, or def.
func (p Props) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

// String returns the string stored under key, or def.
func (p Props) String(key string, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the bool stored under key, or def.
func (p Props) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Duration returns the time.Duration stored under key, or def. Plain ints are
// read as milliseconds.
func (p Props) Duration(key string, def time.Duration) time.Duration {
	switch v := p[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	}
	return def
}

// Color returns the Color stored under key, or def.
func (p Props) Color(key string, def Color) Color {
	if v, ok := p[key].(Color); ok {
		return v
	}
	return def
}

// --- State ---

// State is the internally owned, key-compared state of a component.
type State map[string]any

// EqualFunc decides whether a stored state value and a new one are the same.
type EqualFunc func(old, new any) bool

// ValueEqual compares by value. It is the default comparator.
func ValueEqual(old, new any) bool {
	return reflect.DeepEqual(old, new)
}

// IdentityEqual compares reference kinds (pointers, maps, slices, funcs,
// channels) by identity, so a freshly built value counts as a change even when
// it is equal by value. Other kinds fall back to ==.
func IdentityEqual(old, new any) bool {
	if old == nil || new == nil {
		return old == nil && new == nil
	}
	ov, nv := reflect.ValueOf(old), reflect.ValueOf(new)
	if ov.Type() != nv.Type() {
		return false
	}
	switch ov.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return ov.Pointer() == nv.Pointer()
	case reflect.Slice:
		return ov.Pointer() == nv.Pointer() && ov.Len() == nv.Len()
	}
	if !ov.Type().Comparable() {
		return false
	}
	return old == new
}

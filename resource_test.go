package canopy

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// fakeResource records Close calls.
type fakeResource struct {
	name   string
	log    *[]string
	closed int
}

func (r *fakeResource) Close() error {
	r.closed++
	if r.log != nil {
		*r.log = append(*r.log, "close:"+r.name)
	}
	return nil
}

// fakeTintWriter is a TextWriter that records its last call.
type fakeTintWriter struct {
	fakeResource
	text string
	tint Color
}

func (w *fakeTintWriter) WriteText(_ *ebiten.Image, _, _ float64, text string, tint Color) error {
	w.text = text
	w.tint = tint
	return nil
}

// recordingTarget is a surface with a real target image.
type recordingTarget struct {
	recordingSurface
	img *ebiten.Image
}

func (s *recordingTarget) Target() *ebiten.Image {
	if s.img == nil {
		s.img = ebiten.NewImage(8, 8)
	}
	return s.img
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func writePNGFile(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return p
}

// --- LoaderRegistry ---

func TestMatchExtensions(t *testing.T) {
	match := MatchExtensions(".png", ".jpg")
	tests := []struct {
		name string
		want bool
	}{
		{"a.png", true},
		{"A.PNG", true},
		{"dir/b.jpg", true},
		{"c.jpeg", false},
		{"png", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := match(tt.name); got != tt.want {
			t.Errorf("match(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDefaultLoaders(t *testing.T) {
	r := DefaultLoaders()
	if got, want := r.Names(), []string{"image", "font", "audio"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	tests := []struct {
		file, loader string
	}{
		{"a.png", "image"},
		{"a.bmp", "image"},
		{"a.tiff", "image"},
		{"a.ttf", "font"},
		{"a.ogg", "audio"},
		{"a.flac", "audio"},
		{"a.mp3", "audio"},
		{"a.wav", "audio"},
	}
	for _, tt := range tests {
		l, ok := r.Lookup(tt.file)
		if !ok || l.Name != tt.loader {
			t.Errorf("Lookup(%q) = %q, %v; want %q", tt.file, l.Name, ok, tt.loader)
		}
	}
	if _, ok := r.Lookup("a.txt"); ok {
		t.Error("Lookup(a.txt) matched a loader")
	}
}

func TestLoaderPrecedence(t *testing.T) {
	r := NewLoaderRegistry()
	load := func(*App, string) (Resource, error) { return &fakeResource{}, nil }
	r.Register(Loader{Name: "first", Match: MatchExtensions(".dat"), Load: load})
	r.Register(Loader{Name: "second", Match: func(string) bool { return true }, Load: load})
	if l, _ := r.Lookup("x.dat"); l.Name != "first" {
		t.Errorf("Lookup(x.dat) = %q, want first", l.Name)
	}
	if l, _ := r.Lookup("x.bin"); l.Name != "second" {
		t.Errorf("Lookup(x.bin) = %q, want second", l.Name)
	}
}

func TestRegisterIncompleteLoaderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a loader without Load")
		}
	}()
	NewLoaderRegistry().Register(Loader{Name: "bad", Match: MatchExtensions(".x")})
}

// --- Search path ---

func TestSearchPathOrder(t *testing.T) {
	dir := t.TempDir()
	app := newTestApp(t, WithSearchPath(dir, dir, "."))
	path := app.SearchPath()
	if len(path) < 2 || path[0] != "." {
		t.Fatalf("SearchPath() = %v, want the working directory first", path)
	}
	if path[len(path)-1] != dir {
		t.Errorf("last entry = %q, want %q", path[len(path)-1], dir)
	}
	n := 0
	for _, p := range path {
		if p == dir {
			n++
		}
	}
	if n != 1 {
		t.Errorf("%q listed %d times, want once", dir, n)
	}
}

func TestFindResource(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeFile(t, second, "shared.txt", []byte("2"))
	want := writeFile(t, first, "shared.txt", []byte("1"))
	only := writeFile(t, second, "only.txt", []byte("2"))

	app := newTestApp(t, WithSearchPath(first, second))
	got, err := app.FindResource("shared.txt")
	if err != nil || got != want {
		t.Errorf("FindResource(shared.txt) = %q, %v; want %q", got, err, want)
	}
	got, err = app.FindResource("only.txt")
	if err != nil || got != only {
		t.Errorf("FindResource(only.txt) = %q, %v; want %q", got, err, only)
	}
	got, err = app.FindResource(only)
	if err != nil || got != only {
		t.Errorf("FindResource(abs) = %q, %v; want %q", got, err, only)
	}
	if _, err := app.FindResource("missing.txt"); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("FindResource(missing) error = %v, want ErrResourceNotFound", err)
	}
	if _, err := app.FindResource(filepath.Join(first, "missing.txt")); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("FindResource(abs missing) error = %v, want ErrResourceNotFound", err)
	}
}

// --- Resource table ---

func TestLoadResourceErrors(t *testing.T) {
	app := newTestApp(t, WithSearchPath(t.TempDir()))
	if err := app.LoadResource("x", "notes.txt"); !errors.Is(err, ErrUnknownResourceType) {
		t.Errorf("unknown type error = %v", err)
	}
	if err := app.LoadResource("x", "missing.png"); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := app.Resource("x"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("failed load registered a resource: %v", err)
	}
}

func TestLoadResourceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.png", []byte("not a png"))
	app := newTestApp(t, WithSearchPath(dir))
	if err := app.LoadResource("img", "broken.png"); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadResourceCustomLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "level.dat", []byte("data"))
	var gotPath string
	r := NewLoaderRegistry()
	r.Register(Loader{
		Name:  "level",
		Match: MatchExtensions(".dat"),
		Load: func(_ *App, path string) (Resource, error) {
			gotPath = path
			return &fakeResource{name: "level"}, nil
		},
	})
	app := newTestApp(t, WithLoaders(r), WithSearchPath(dir))
	if err := app.LoadResource("lvl", "level.dat"); err != nil {
		t.Fatal(err)
	}
	if gotPath != filepath.Join(dir, "level.dat") {
		t.Errorf("loader got path %q", gotPath)
	}
	res, err := app.Resource("lvl")
	if err != nil {
		t.Fatal(err)
	}
	if res.(*fakeResource).name != "level" {
		t.Errorf("Resource(lvl) = %#v", res)
	}
}

func TestLoadFontResource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "regular.ttf", goregular.TTF)
	app := newTestApp(t, WithSearchPath(dir))
	if err := app.LoadResource("body", "regular.ttf"); err != nil {
		t.Fatal(err)
	}
	res, _ := app.Resource("body")
	f, ok := res.(*Font)
	if !ok {
		t.Fatalf("Resource(body) = %T, want *Font", res)
	}
	if f.Size() != defaultFontSize {
		t.Errorf("Size() = %v, want %v", f.Size(), float64(defaultFontSize))
	}
	if err := app.Draw("body", DrawOptions{}); !errors.Is(err, ErrNotDrawable) {
		t.Errorf("Draw(font) error = %v, want ErrNotDrawable", err)
	}
	if _, err := app.Play("body", 0); !errors.Is(err, ErrNotPlayable) {
		t.Errorf("Play(font) error = %v, want ErrNotPlayable", err)
	}
	// The null surface has no target: writing succeeds without drawing.
	if err := app.Write("body", 0, 0, "hello"); err != nil {
		t.Errorf("Write on null surface = %v", err)
	}
}

func TestLoadImageResource(t *testing.T) {
	dir := t.TempDir()
	writePNGFile(t, dir, "tile.png", 4, 2)
	app := newTestApp(t, WithSearchPath(dir))
	if err := app.LoadResource("tile", "tile.png"); err != nil {
		t.Fatal(err)
	}
	res, _ := app.Resource("tile")
	img, ok := res.(*Image)
	if !ok {
		t.Fatalf("Resource(tile) = %T, want *Image", res)
	}
	if w, h := img.Size(); w != 4 || h != 2 {
		t.Errorf("Size() = %d, %d; want 4, 2", w, h)
	}
	if err := app.Write("tile", 0, 0, "x"); !errors.Is(err, ErrNotWritable) {
		t.Errorf("Write(non-font image) = %v, want ErrNotWritable", err)
	}
	if err := app.Draw("tile", DrawOptions{X: 1, Y: 1}); err != nil {
		t.Errorf("Draw on null surface = %v", err)
	}
}

func TestResourceKindErrors(t *testing.T) {
	app := newTestApp(t)
	app.AddResource("plain", &fakeResource{})
	if err := app.Draw("missing", DrawOptions{}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("Draw(missing) = %v", err)
	}
	if err := app.Write("plain", 0, 0, "x"); !errors.Is(err, ErrNotWritable) {
		t.Errorf("Write(plain) = %v", err)
	}
	if _, err := app.Play("plain", 0); !errors.Is(err, ErrNotPlayable) {
		t.Errorf("Play(plain) = %v", err)
	}
	app.AddResource("snd", NewSound(testFormat, silence(4)))
	if _, err := app.Play("snd", 0); !errors.Is(err, ErrNoMixer) {
		t.Errorf("Play without mixer = %v, want ErrNoMixer", err)
	}
}

func TestAddResourceReplaceClosesOld(t *testing.T) {
	app := newTestApp(t)
	var log []string
	old := &fakeResource{name: "old", log: &log}
	app.AddResource("k", old)
	app.AddResource("other", &fakeResource{name: "other", log: &log})
	app.AddResource("k", &fakeResource{name: "new", log: &log})
	if old.closed != 1 {
		t.Errorf("replaced resource closed %d times, want 1", old.closed)
	}
	log = log[:0]
	app.closeResources()
	// Replacement keeps the original position in the close order.
	if want := []string{"close:other", "close:new"}; !slices.Equal(log, want) {
		t.Errorf("close order = %v, want %v", log, want)
	}
}

// --- Tint ---

func TestTintStack(t *testing.T) {
	app := newTestApp(t)
	if app.Tint() != ColorWhite {
		t.Errorf("Tint() = %v, want white", app.Tint())
	}
	red := Color{1, 0, 0, 1}
	blue := Color{0, 0, 1, 1}
	var inner Color
	var depth int
	err := app.WithTint(red, func() error {
		return app.WithTint(blue, func() error {
			inner = app.Tint()
			depth = app.TintDepth()
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if inner != blue || depth != 2 {
		t.Errorf("inner tint = %v depth %d, want blue depth 2", inner, depth)
	}
	if app.TintDepth() != 0 {
		t.Errorf("TintDepth() = %d after scopes exit", app.TintDepth())
	}

	boom := errors.New("boom")
	if err := app.WithTint(red, func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("WithTint error = %v, want %v", err, boom)
	}
	if app.TintDepth() != 0 {
		t.Error("tint not popped after an error")
	}
}

func TestWriteUsesCurrentTint(t *testing.T) {
	target := &recordingTarget{}
	app := newTestApp(t, WithSurface(target))
	w := &fakeTintWriter{}
	app.AddResource("w", w)
	green := Color{0, 1, 0, 1}
	if err := app.WithTint(green, func() error { return app.Write("w", 1, 2, "hi") }); err != nil {
		t.Fatal(err)
	}
	if w.tint != green || w.text != "hi" {
		t.Errorf("writer got %q with %v", w.text, w.tint)
	}
}

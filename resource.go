package canopy

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Resource lookup and capability errors. They are returned synchronously to
// the caller and never retried.
var (
	ErrUnknownResourceType = errors.New("canopy: unknown resource type")
	ErrResourceNotFound    = errors.New("canopy: resource not found")
	ErrUnknownResource     = errors.New("canopy: unknown resource key")
	ErrNotDrawable         = errors.New("canopy: resource can not be drawn")
	ErrNotWritable         = errors.New("canopy: resource can not be written with")
	ErrNotPlayable         = errors.New("canopy: resource can not be played")
	ErrNoMixer             = errors.New("canopy: no mixer")
)

// Resource is a loaded asset registered under a key. What it can do is
// declared by the capability interfaces below.
type Resource interface {
	Close() error
}

// Drawable resources can be drawn onto the surface.
type Drawable interface {
	Draw(dst *ebiten.Image, opts DrawOptions)
}

// TextWriter resources can render text.
type TextWriter interface {
	WriteText(dst *ebiten.Image, x, y float64, text string, tint Color) error
}

// Playable resources can be played through the mixer.
type Playable interface {
	Play(m *Mixer, loops int) (*Channel, error)
}

// DrawOptions positions a Drawable on the target.
type DrawOptions struct {
	// X and Y are the top-left corner on the target.
	X, Y float64
	// Width and Height scale the drawn image. Zero keeps the source size.
	Width, Height float64
	// Src selects a region of the source. The zero rectangle draws it whole.
	Src image.Rectangle
	// Tint modulates the colors. App.Draw fills it from the tint stack.
	Tint Color
}

// Loader turns a file into a Resource.
type Loader struct {
	Name  string
	Match func(filename string) bool
	Load  func(a *App, path string) (Resource, error)
}

// LoaderRegistry is an ordered list of loaders. The first loader whose Match
// accepts a filename loads it.
type LoaderRegistry struct {
	loaders []Loader
}

// NewLoaderRegistry creates an empty registry.
func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{}
}

// DefaultLoaders returns a registry with the image, font and audio loaders.
func DefaultLoaders() *LoaderRegistry {
	r := NewLoaderRegistry()
	r.Register(Loader{Name: "image", Match: MatchExtensions(imageExtensions...), Load: loadImage})
	r.Register(Loader{Name: "font", Match: MatchExtensions(fontExtensions...), Load: loadFont})
	r.Register(Loader{Name: "audio", Match: MatchExtensions(audioExtensions...), Load: loadSound})
	return r
}

// Register appends l. Loaders registered earlier take precedence.
func (r *LoaderRegistry) Register(l Loader) {
	if l.Match == nil || l.Load == nil {
		panic("canopy: loader needs Match and Load")
	}
	r.loaders = append(r.loaders, l)
}

// Lookup returns the first loader accepting filename.
func (r *LoaderRegistry) Lookup(filename string) (Loader, bool) {
	for _, l := range r.loaders {
		if l.Match(filename) {
			return l, true
		}
	}
	return Loader{}, false
}

// Names returns the loader names in precedence order.
func (r *LoaderRegistry) Names() []string {
	names := make([]string, len(r.loaders))
	for i, l := range r.loaders {
		names[i] = l.Name
	}
	return names
}

// MatchExtensions returns a predicate accepting filenames that end in one of
// exts, case-insensitively. Extensions include the dot.
func MatchExtensions(exts ...string) func(string) bool {
	return func(filename string) bool {
		ext := strings.ToLower(filepath.Ext(filename))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}

// --- Search path ---

// resolveSearchPath returns the working directory, the executable's
// directory and then extra, without duplicates.
func resolveSearchPath(extra []string) []string {
	path := []string{"."}
	if exe, err := os.Executable(); err == nil {
		path = appendUnique(path, filepath.Dir(exe))
	}
	for _, dir := range extra {
		path = appendUnique(path, dir)
	}
	return path
}

func appendUnique(path []string, dir string) []string {
	clean := filepath.Clean(dir)
	for _, p := range path {
		if filepath.Clean(p) == clean {
			return path
		}
	}
	return append(path, dir)
}

// SearchPath returns the resource directories in lookup order.
func (a *App) SearchPath() []string {
	return a.searchPath
}

// FindResource returns the path of the first file named filename along the
// search path. Absolute names are checked as is.
func (a *App) FindResource(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if fileExists(filename) {
			return filename, nil
		}
		return "", fmt.Errorf("%w: %s", ErrResourceNotFound, filename)
	}
	for _, dir := range a.searchPath {
		p := filepath.Join(dir, filename)
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q in paths %v", ErrResourceNotFound, filename, a.searchPath)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// --- Resource table ---

// LoadResource finds filename on the search path, loads it with the first
// matching loader and registers it under key. A resource already registered
// under key is closed and replaced.
func (a *App) LoadResource(key, filename string) error {
	l, ok := a.loaders.Lookup(filename)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResourceType, filename)
	}
	path, err := a.FindResource(filename)
	if err != nil {
		return err
	}
	res, err := l.Load(a, path)
	if err != nil {
		return fmt.Errorf("canopy: load %s resource %q: %w", l.Name, filename, err)
	}
	a.AddResource(key, res)
	a.rootLogger.Debug("resource loaded", "key", key, "path", path, "loader", l.Name)
	return nil
}

// AddResource registers an already built resource under key, closing any
// resource it replaces.
func (a *App) AddResource(key string, res Resource) {
	if old, ok := a.resources[key]; ok {
		if err := old.Close(); err != nil {
			a.rootLogger.Error("closing replaced resource failed", "key", key, "err", err)
		}
	} else {
		a.resourceOrder = append(a.resourceOrder, key)
	}
	a.resources[key] = res
}

// Resource returns the resource registered under key.
func (a *App) Resource(key string) (Resource, error) {
	res, ok := a.resources[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, key)
	}
	return res, nil
}

// Draw draws the resource under key onto the surface with the current tint.
// Drawing on a surface without a target is a no-op.
func (a *App) Draw(key string, opts DrawOptions) error {
	res, err := a.Resource(key)
	if err != nil {
		return err
	}
	d, ok := res.(Drawable)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotDrawable, key)
	}
	dst := a.surface.Target()
	if dst == nil {
		return nil
	}
	opts.Tint = a.Tint()
	d.Draw(dst, opts)
	return nil
}

// Write renders text at (x, y) with the resource under key and the current
// tint.
func (a *App) Write(key string, x, y float64, text string) error {
	res, err := a.Resource(key)
	if err != nil {
		return err
	}
	w, ok := res.(TextWriter)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotWritable, key)
	}
	dst := a.surface.Target()
	if dst == nil {
		return nil
	}
	if err := w.WriteText(dst, x, y, text, a.Tint()); err != nil {
		return fmt.Errorf("canopy: write with %q: %w", key, err)
	}
	return nil
}

// Play plays the resource under key on the app's mixer.
func (a *App) Play(key string, loops int) (*Channel, error) {
	res, err := a.Resource(key)
	if err != nil {
		return nil, err
	}
	p, ok := res.(Playable)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotPlayable, key)
	}
	if a.mixer == nil {
		return nil, ErrNoMixer
	}
	return p.Play(a.mixer, loops)
}

// Mixer returns the mixer opened with NewMixer, or nil.
func (a *App) Mixer() *Mixer { return a.mixer }

// closeResources closes every resource in reverse load order.
func (a *App) closeResources() {
	for i := len(a.resourceOrder) - 1; i >= 0; i-- {
		key := a.resourceOrder[i]
		a.releaseSafe("key", key, a.resources[key].Close)
		delete(a.resources, key)
	}
	a.resourceOrder = nil
}

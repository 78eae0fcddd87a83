package canopy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultFPS      = 60
	defaultWidth    = 640
	defaultHeight   = 480
	defaultFontSize = 16
)

// ErrMissingOption is returned by Validate when a required option is absent.
var ErrMissingOption = errors.New("canopy: missing required option")

// Config holds the application settings. It can be built in code, starting
// from DefaultConfig, or loaded from a YAML file with LoadConfig.
type Config struct {
	// Name is the window title and the app component's name.
	Name string `yaml:"name"`

	// Width and Height are the logical surface size in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Zoom scales the window relative to the logical size. Zero means 1.
	Zoom float64 `yaml:"zoom"`

	// FPS is the target frame rate.
	FPS int `yaml:"fps"`

	Resizable  bool `yaml:"resizable"`
	Fullscreen bool `yaml:"fullscreen"`

	// ClearColor fills the surface before each render.
	ClearColor Color `yaml:"clear_color"`

	// SearchPath lists extra resource directories, searched after "." and
	// the executable's directory.
	SearchPath []string `yaml:"search_path"`

	// FontSize is the pixel size used for TTF fonts, including the built-in
	// "font" resource.
	FontSize float64 `yaml:"font_size"`

	// ShowFPS adds a Debugger overlay in Run.
	ShowFPS bool `yaml:"show_fps"`

	Debug bool `yaml:"debug"`

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Name:          "canopy",
		Width:         defaultWidth,
		Height:        defaultHeight,
		Zoom:          1,
		FPS:           defaultFPS,
		ClearColor:    ColorBlack,
		FontSize:      defaultFontSize,
		ScreenshotDir: "screenshots",
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys absent from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("canopy: load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("canopy: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first missing or out-of-range option. A windowed run
// needs a positive size.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingOption)
	}
	if c.Width <= 0 {
		return fmt.Errorf("%w: width", ErrMissingOption)
	}
	if c.Height <= 0 {
		return fmt.Errorf("%w: height", ErrMissingOption)
	}
	if c.FPS < 0 || c.FPS > 240 {
		return fmt.Errorf("canopy: fps %d out of range 1-240", c.FPS)
	}
	if c.Zoom < 0 {
		return fmt.Errorf("canopy: zoom %v must not be negative", c.Zoom)
	}
	return nil
}

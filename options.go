package canopy

import (
	"fmt"
	"log/slog"
)

// AppOption is a functional option for configuring an App.
type AppOption func(*App) error

// WithConfig replaces the whole configuration. Options applied after it
// override individual fields.
func WithConfig(cfg Config) AppOption {
	return func(a *App) error {
		a.cfg = cfg
		return nil
	}
}

// WithName sets the application name used in logs and as the window title.
func WithName(name string) AppOption {
	return func(a *App) error {
		if name == "" {
			return fmt.Errorf("application name must not be empty")
		}
		a.cfg.Name = name
		return nil
	}
}

// WithFPS sets the target frame rate. Default is 60. Valid range is 1-240.
func WithFPS(fps int) AppOption {
	return func(a *App) error {
		if fps < 1 {
			return fmt.Errorf("frame rate must be at least 1 fps")
		}
		if fps > 240 {
			return fmt.Errorf("frame rate cannot exceed 240 fps")
		}
		a.cfg.FPS = fps
		return nil
	}
}

// WithClock sets the tick source used for pacing and timer deadlines.
func WithClock(c Clock) AppOption {
	return func(a *App) error {
		if c == nil {
			return fmt.Errorf("clock must not be nil")
		}
		a.clock = c
		return nil
	}
}

// WithSurface sets the render surface. Default is a surface that discards
// everything.
func WithSurface(s Surface) AppOption {
	return func(a *App) error {
		if s == nil {
			return fmt.Errorf("surface must not be nil")
		}
		a.surface = s
		return nil
	}
}

// WithInput sets the input source. Default is an empty EventQueue.
func WithInput(in InputSource) AppOption {
	return func(a *App) error {
		if in == nil {
			return fmt.Errorf("input source must not be nil")
		}
		a.input = in
		return nil
	}
}

// WithLogger sets the logger handed to the app and every component.
func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		a.rootLogger = l
		return nil
	}
}

// WithSearchPath appends directories to the resource search path. They are
// searched after the working directory and the executable's directory.
func WithSearchPath(dirs ...string) AppOption {
	return func(a *App) error {
		a.cfg.SearchPath = append(a.cfg.SearchPath, dirs...)
		return nil
	}
}

// WithLoaders replaces the resource loader registry.
func WithLoaders(r *LoaderRegistry) AppOption {
	return func(a *App) error {
		if r == nil {
			return fmt.Errorf("loader registry must not be nil")
		}
		a.loaders = r
		return nil
	}
}

// WithInit sets the hook run once the app is enabled. It is the place to add
// the top-level components and load resources. A returned error aborts
// NewApp and tears the app down.
func WithInit(fn func(*App) error) AppOption {
	return func(a *App) error {
		a.initFn = fn
		return nil
	}
}

// WithDebug enables debug mode from the start.
func WithDebug(enabled bool) AppOption {
	return func(a *App) error {
		a.debug = enabled
		return nil
	}
}

// WithTestRunner attaches a scripted input runner.
func WithTestRunner(r *TestRunner) AppOption {
	return func(a *App) error {
		a.testRunner = r
		return nil
	}
}

// WithEventStore sets the ECS bridge that receives every dispatched event.
func WithEventStore(store EventStore) AppOption {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

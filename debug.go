package canopy

import (
	"time"
)

// frameStats holds per-frame timing and scheduling counts.
// Only populated when the app is in debug mode.
type frameStats struct {
	activationTime    time.Duration
	dispatchTime      time.Duration
	timerTime         time.Duration
	peekTime          time.Duration
	renderTime        time.Duration
	activationChanged bool
	events            int
	timers            int
	peeked            int
	rendered          int
}

// debugLog writes the frame's timing and counts to the app logger.
func (a *App) debugLog(stats frameStats) {
	if !a.debug {
		return
	}
	total := stats.activationTime + stats.dispatchTime + stats.timerTime + stats.peekTime + stats.renderTime
	a.rootLogger.Debug("frame",
		"frame", a.frames,
		"activation", stats.activationTime,
		"dispatch", stats.dispatchTime,
		"timers", stats.timerTime,
		"peek", stats.peekTime,
		"render", stats.renderTime,
		"total", total,
	)
	a.rootLogger.Debug("frame counts",
		"frame", a.frames,
		"active", len(a.active),
		"activation_changed", stats.activationChanged,
		"events", stats.events,
		"timers_fired", stats.timers,
		"timers_pending", a.timers.len(),
		"peeked", stats.peeked,
		"rendered", stats.rendered,
	)
	if total > a.frameDuration {
		a.rootLogger.Warn("frame over budget", "frame", a.frames, "total", total, "budget", a.frameDuration)
	}
}

// SetDebugMode enables or disables per-frame stats and tree sanity warnings.
func (a *App) SetDebugMode(enabled bool) {
	a.debug = enabled
}

// DebugMode reports whether debug mode is on.
func (a *App) DebugMode() bool { return a.debug }

// debugMaxTreeDepth is the depth past which AddComponent warns.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(a *App, b *Base) {
	depth := treeDepth(b)
	if depth > debugMaxTreeDepth {
		a.rootLogger.Warn("tree depth exceeds threshold",
			"component", b.name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// treeDepth counts b and its ancestors. The app has depth 1.
func treeDepth(b *Base) int {
	depth := 0
	for p := b; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// debugMaxChildCount is the child count past which AddComponent warns.
const debugMaxChildCount = 1000

func debugCheckChildCount(a *App, b *Base) {
	if len(b.children) > debugMaxChildCount {
		a.rootLogger.Warn("component has too many children",
			"component", b.name, "children", len(b.children), "threshold", debugMaxChildCount)
	}
}

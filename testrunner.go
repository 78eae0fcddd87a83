package canopy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action    string `json:"action"`
	Label     string `json:"label,omitempty"`
	Key       string `json:"key,omitempty"`
	Text      string `json:"text,omitempty"`
	Component string `json:"component,omitempty"`
	Frames    int    `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences injected input events, activation requests and
// screenshots across frames for automated testing. Attach it to an App with
// WithTestRunner or SetTestRunner.
//
// Supported actions: "key", "keydown", "keyup" (key), "text" (text),
// "wait" (frames), "screenshot" (label), "enable", "disable", "toggle"
// (component) and "quit".
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to an App.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("parse test script: step %d: %w", i, err)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

func (st testStep) validate() error {
	switch st.Action {
	case "key", "keydown", "keyup":
		if _, ok := keyByName(st.Key); !ok {
			return fmt.Errorf("unknown key %q", st.Key)
		}
	case "enable", "disable", "toggle":
		if st.Component == "" {
			return fmt.Errorf("%s: missing component", st.Action)
		}
	case "text", "wait", "screenshot", "quit":
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// keyByName resolves a key name as printed by ebiten.Key.String,
// case-insensitively.
func keyByName(name string) (ebiten.Key, bool) {
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, true
		}
	}
	return 0, false
}

// SetTestRunner attaches a TestRunner to the app. The runner's step method
// is called at the start of every frame, before events are drained.
func (a *App) SetTestRunner(runner *TestRunner) {
	a.testRunner = runner
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame.
func (r *TestRunner) step(a *App) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(a.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		a.Screenshot(st.Label)
	case "key":
		k, _ := keyByName(st.Key)
		a.InjectKey(k)
	case "keydown":
		k, _ := keyByName(st.Key)
		a.InjectKeyDown(k)
	case "keyup":
		k, _ := keyByName(st.Key)
		a.InjectKeyUp(k)
	case "text":
		a.InjectText(st.Text)
	case "quit":
		a.InjectQuit()
	case "enable", "disable", "toggle":
		r.activation(a, st)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(a.injectQueue) == 0 {
		r.done = true
	}
}

func (r *TestRunner) activation(a *App, st testStep) {
	c := a.FindComponent(st.Component)
	if c == nil {
		a.rootLogger.Warn("test script names unknown component", "component", st.Component)
		return
	}
	b := c.base()
	switch st.Action {
	case "enable":
		b.Enable()
	case "disable":
		b.Disable()
	case "toggle":
		b.Toggle()
	}
}

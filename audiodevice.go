package canopy

import (
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// AudioCallback fills samples with the next chunk of stereo audio in [-1, 1].
// The buffer is zeroed before each call. It runs on the audio goroutine.
type AudioCallback func(samples [][2]float64)

// AudioDevice is a callback-driven stream mixed into the Mixer's output, for
// generated audio such as emulator or synth output. It starts playing as soon
// as it is opened.
type AudioDevice struct {
	mixer  *Mixer
	ctrl   *beep.Ctrl
	volume *effects.Volume
	level  float64
	closed bool
}

// OpenDevice starts a callback stream at the mixer's sample rate.
func (m *Mixer) OpenDevice(cb AudioCallback) *AudioDevice {
	d := &AudioDevice{mixer: m, level: 1}
	stream := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		clear(samples)
		cb(samples)
		return len(samples), true
	})
	d.ctrl = &beep.Ctrl{Streamer: stream}
	d.volume = newVolume(d.ctrl, d.level)

	m.logger.Info("opening audio device", "index", len(m.devices))
	m.out.Lock()
	m.devices = append(m.devices, d)
	m.mixer.Add(d.volume)
	m.out.Unlock()
	return d
}

// Pause stops pulling samples from the callback.
func (d *AudioDevice) Pause() {
	d.mixer.out.Lock()
	d.ctrl.Paused = true
	d.mixer.out.Unlock()
}

// Resume continues pulling samples.
func (d *AudioDevice) Resume() {
	d.mixer.out.Lock()
	d.ctrl.Paused = false
	d.mixer.out.Unlock()
}

// Paused reports whether the device is paused.
func (d *AudioDevice) Paused() bool {
	d.mixer.out.Lock()
	defer d.mixer.out.Unlock()
	return d.ctrl.Paused
}

// Volume returns the device level in [0, 1].
func (d *AudioDevice) Volume() float64 { return d.level }

// SetVolume sets the device level, clamped to [0, 1].
func (d *AudioDevice) SetVolume(v float64) {
	d.level = clamp01(v)
	d.mixer.out.Lock()
	setVolume(d.volume, d.level)
	d.mixer.out.Unlock()
}

// Close removes the stream from the mixer. Safe to call more than once.
func (d *AudioDevice) Close() error {
	d.mixer.out.Lock()
	d.stop()
	d.mixer.out.Unlock()
	return nil
}

// stop detaches the callback. Caller holds the output lock.
func (d *AudioDevice) stop() {
	if d.closed {
		return
	}
	d.closed = true
	d.ctrl.Streamer = nil
}

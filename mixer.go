package canopy

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	defaultSampleRate    = 44100
	defaultMixerBuffer   = 100 * time.Millisecond
	defaultMixerChannels = 8
)

// ErrNoFreeChannel is returned by Mixer.Play when every channel is busy.
var ErrNoFreeChannel = errors.New("canopy: no free mixer channel")

// audioOutput is the sound device the mixer streams into. The speaker
// package in production; a recording fake in tests.
type audioOutput interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Close()               { speaker.Close() }

// MixerConfig configures the audio output. Zero fields take defaults.
type MixerConfig struct {
	SampleRate int           // samples per second, default 44100
	Buffer     time.Duration // output latency, default 100ms
	Channels   int           // simultaneous sounds, default 8
}

// Mixer plays sounds on a fixed number of channels through the speaker. All
// methods run on the app goroutine; the audio goroutine is locked out while
// they touch shared stream state.
type Mixer struct {
	out      audioOutput
	rate     beep.SampleRate
	mixer    *beep.Mixer
	channels []*Channel
	devices  []*AudioDevice
	logger   *slog.Logger
	closed   bool
}

// NewMixer opens the speaker, attaches the mixer to app for Play and
// registers it for teardown.
func NewMixer(app *App, cfg MixerConfig) (*Mixer, error) {
	return newMixer(app, cfg, speakerOutput{})
}

func newMixer(app *App, cfg MixerConfig, out audioOutput) (*Mixer, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultMixerBuffer
	}
	if cfg.Channels <= 0 {
		cfg.Channels = defaultMixerChannels
	}

	m := &Mixer{
		out:    out,
		rate:   beep.SampleRate(cfg.SampleRate),
		mixer:  &beep.Mixer{},
		logger: app.rootLogger.With("component", "mixer"),
	}
	m.logger.Info("initializing mixer", "rate", cfg.SampleRate, "channels", cfg.Channels)
	if err := out.Init(m.rate, m.rate.N(cfg.Buffer)); err != nil {
		return nil, fmt.Errorf("canopy: open mixer: %w", err)
	}
	m.channels = make([]*Channel, cfg.Channels)
	for i := range m.channels {
		m.channels[i] = &Channel{mixer: m, index: i, level: 1}
	}
	out.Play(m.mixer)

	app.mixer = m
	app.OnTeardown("mixer", m.Close)
	return m, nil
}

// SampleRate returns the output sample rate.
func (m *Mixer) SampleRate() beep.SampleRate { return m.rate }

// NumChannels returns the number of channels.
func (m *Mixer) NumChannels() int { return len(m.channels) }

// Channel returns channel i.
func (m *Mixer) Channel(i int) *Channel { return m.channels[i] }

// Play starts s on channel, or on the first free channel when channel is -1.
// A sound already playing on an explicit channel is halted first. loops is the
// number of extra repetitions; -1 loops forever.
func (m *Mixer) Play(s *Sound, channel, loops int) (*Channel, error) {
	if m.closed {
		return nil, fmt.Errorf("canopy: play on closed mixer")
	}
	m.out.Lock()
	defer m.out.Unlock()

	var ch *Channel
	if channel < 0 {
		for _, c := range m.channels {
			if !c.playing {
				ch = c
				break
			}
		}
		if ch == nil {
			return nil, ErrNoFreeChannel
		}
	} else {
		if channel >= len(m.channels) {
			return nil, fmt.Errorf("canopy: channel %d out of range 0-%d", channel, len(m.channels)-1)
		}
		ch = m.channels[channel]
		ch.halt()
	}

	var stream beep.Streamer = s.streamer(loops)
	if s.format.SampleRate != m.rate {
		stream = beep.Resample(4, s.format.SampleRate, m.rate, stream)
	}
	ch.start(stream)
	m.mixer.Add(ch.volume)
	return ch, nil
}

// Halt stops channel, or every channel when channel is -1.
func (m *Mixer) Halt(channel int) {
	m.out.Lock()
	defer m.out.Unlock()
	if channel >= 0 {
		m.channels[channel].halt()
		return
	}
	for _, c := range m.channels {
		c.halt()
	}
}

// Close halts every channel and device and closes the speaker. Safe to call
// more than once.
func (m *Mixer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("destroying mixer")
	m.out.Lock()
	for _, c := range m.channels {
		c.halt()
	}
	for _, d := range m.devices {
		d.stop()
	}
	m.mixer.Clear()
	m.out.Unlock()
	m.out.Close()
	return nil
}

// Channel is one mixer voice. The handle stays valid across sounds: playing
// a new sound on the same index reuses it.
type Channel struct {
	mixer   *Mixer
	index   int
	ctrl    *beep.Ctrl
	volume  *effects.Volume
	level   float64
	playing bool
}

// start replaces the channel's stream. Caller holds the output lock.
func (c *Channel) start(s beep.Streamer) {
	c.ctrl = &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() {
		c.playing = false
	}))}
	c.volume = newVolume(c.ctrl, c.level)
	c.playing = true
}

// halt drops the stream. Caller holds the output lock.
func (c *Channel) halt() {
	if c.ctrl != nil {
		c.ctrl.Streamer = nil
	}
	c.playing = false
}

// Index returns the channel number.
func (c *Channel) Index() int { return c.index }

// Halt stops the channel.
func (c *Channel) Halt() {
	c.mixer.out.Lock()
	c.halt()
	c.mixer.out.Unlock()
}

// Pause suspends playback, keeping the position.
func (c *Channel) Pause() {
	c.setPaused(true)
}

// Resume continues a paused channel.
func (c *Channel) Resume() {
	c.setPaused(false)
}

func (c *Channel) setPaused(paused bool) {
	c.mixer.out.Lock()
	defer c.mixer.out.Unlock()
	if c.ctrl != nil {
		c.ctrl.Paused = paused
	}
}

// Paused reports whether the channel is paused.
func (c *Channel) Paused() bool {
	c.mixer.out.Lock()
	defer c.mixer.out.Unlock()
	return c.ctrl != nil && c.ctrl.Paused
}

// Playing reports whether a sound is still playing (paused counts).
func (c *Channel) Playing() bool {
	c.mixer.out.Lock()
	defer c.mixer.out.Unlock()
	return c.playing
}

// Volume returns the channel level in [0, 1].
func (c *Channel) Volume() float64 { return c.level }

// SetVolume sets the channel level, clamped to [0, 1]. It applies to the
// current sound and to later ones.
func (c *Channel) SetVolume(v float64) {
	c.level = clamp01(v)
	c.mixer.out.Lock()
	defer c.mixer.out.Unlock()
	if c.volume != nil {
		setVolume(c.volume, c.level)
	}
}

// newVolume wraps s in a volume effect at a linear level. math.Log2(0) is
// -Inf, so a zero level is silent instead.
func newVolume(s beep.Streamer, level float64) *effects.Volume {
	v := &effects.Volume{Streamer: s, Base: 2}
	setVolume(v, level)
	return v
}

func setVolume(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Volume = 0
		v.Silent = true
		return
	}
	v.Volume = math.Log2(level)
	v.Silent = false
}

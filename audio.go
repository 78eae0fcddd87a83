package canopy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// audioExtensions lists the file types the audio loader accepts.
var audioExtensions = []string{".wav", ".mp3", ".ogg", ".flac"}

// Sound is a decoded audio resource held in memory. Play it through the
// app's Mixer.
type Sound struct {
	buf    *beep.Buffer
	format beep.Format
}

// NewSound wraps already decoded samples.
func NewSound(format beep.Format, s beep.Streamer) *Sound {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return &Sound{buf: buf, format: format}
}

// Format returns the sample format the sound was decoded with.
func (s *Sound) Format() beep.Format { return s.format }

// Len returns the length of the sound in samples.
func (s *Sound) Len() int { return s.buf.Len() }

// Play plays the sound on the first free mixer channel. loops is the number
// of extra repetitions; -1 loops forever.
func (s *Sound) Play(m *Mixer, loops int) (*Channel, error) {
	return m.Play(s, -1, loops)
}

// Close releases nothing; the samples are garbage collected.
func (s *Sound) Close() error { return nil }

// streamer returns a fresh stream over the samples repeated per loops.
func (s *Sound) streamer(loops int) beep.Streamer {
	src := s.buf.Streamer(0, s.buf.Len())
	switch {
	case loops < 0:
		return beep.Loop(-1, src)
	case loops == 0:
		return src
	default:
		return beep.Loop(loops+1, src)
	}
}

func loadSound(_ *App, path string) (Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	stream, format, err := decodeAudio(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer stream.Close()

	snd := NewSound(format, stream)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return snd, nil
}

// decodeAudio picks the beep decoder for ext.
func decodeAudio(rc io.ReadCloser, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return wav.Decode(rc)
	case ".mp3":
		return mp3.Decode(rc)
	case ".ogg":
		return vorbis.Decode(rc)
	case ".flac":
		return flac.Decode(rc)
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnknownResourceType, ext)
}

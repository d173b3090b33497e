// Package audio plays the short synthesized cues mirrorbox gives as
// feedback for toggles and captures.
package audio

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// ErrNotInitialized is returned by Play before Init.
var ErrNotInitialized = errors.New("audio: not initialized")

// Cue is a feedback sound.
type Cue int

const (
	CueMirrorOn Cue = iota
	CueMirrorOff
	CueCapture
)

type tone struct {
	freq     float64
	duration time.Duration
}

var cues = [...]tone{
	CueMirrorOn:  {880, 90 * time.Millisecond},
	CueMirrorOff: {440, 90 * time.Millisecond},
	CueCapture:   {1760, 40 * time.Millisecond},
}

func (c Cue) String() string {
	switch c {
	case CueMirrorOn:
		return "mirror-on"
	case CueMirrorOff:
		return "mirror-off"
	case CueCapture:
		return "capture"
	}
	return fmt.Sprintf("Cue(%d)", int(c))
}

// Manager mixes cues into the speaker.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate
	volume      float64 // 0.0 to 1.0

	mixer *beep.Mixer
}

// New creates a manager with the given volume (0.0 to 1.0).
func New(volume float64) *Manager {
	return &Manager{
		sampleRate: DefaultSampleRate,
		volume:     clamp(volume, 0, 1),
		mixer:      &beep.Mixer{},
	}
}

// Init opens the speaker.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.mixer)

	m.initialized = true
	return nil
}

// Close shuts down the audio system.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	m.initialized = false
}

// IsInitialized returns whether the speaker is open.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetVolume sets the cue volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp(vol, 0, 1)
}

// Volume returns the cue volume.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Play mixes cue into the output.
func (m *Manager) Play(c Cue) error {
	m.mu.RLock()
	initialized := m.initialized
	m.mu.RUnlock()

	if !initialized {
		return ErrNotInitialized
	}

	s, err := m.stream(c)
	if err != nil {
		return err
	}
	speaker.Lock()
	m.mixer.Add(s)
	speaker.Unlock()
	return nil
}

// stream builds the finite, volume-adjusted streamer for c.
func (m *Manager) stream(c Cue) (beep.Streamer, error) {
	if c < 0 || int(c) >= len(cues) {
		return nil, fmt.Errorf("audio: unknown cue %s", c)
	}
	t := cues[c]
	n := m.sampleRate.N(t.duration)
	streamer := beep.Take(n, sine(m.sampleRate, t.freq, n))

	vol := m.Volume()
	if vol <= 0 {
		return &effects.Volume{Streamer: streamer, Base: 2, Silent: true}, nil
	}
	return &effects.Volume{Streamer: streamer, Base: 2, Volume: gomath.Log2(vol)}, nil
}

// sine generates a tone that fades out linearly over length samples.
func sine(sr beep.SampleRate, freq float64, length int) beep.Streamer {
	step := 2 * gomath.Pi * freq / float64(sr)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			fade := 1 - float64(pos)/float64(max(length, 1))
			v := gomath.Sin(step*float64(pos)) * max(fade, 0)
			samples[i][0], samples[i][1] = v, v
			pos++
		}
		return len(samples), true
	})
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Package audio plays the wind ambience whose loudness follows the wind
// strength and gusts.
package audio

import (
	"bytes"
	"fmt"
	"io"
	gomath "math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/Faultbox/lsystree/internal/tree/sway"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// strengthGain maps wind strength to loudness; the reference 0.05 is half.
const strengthGain = 10

// Manager owns the speaker and the single ambience stream.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate

	ctrl   *beep.Ctrl
	gain   *effects.Volume
	file   beep.StreamSeekCloser // decoded WAV, nil for procedural noise
	volume float64               // master, 0..1

	level atomic.Uint64 // float64 bits of the wind loudness, 0..1
}

// New creates a manager at full master volume.
func New() *Manager {
	return &Manager{volume: 1}
}

// Init opens the audio device.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}

	m.sampleRate = DefaultSampleRate
	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	m.initialized = true
	return nil
}

// Close stops playback and the speaker.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return
	}
	m.stop()
	speaker.Close()
	m.initialized = false
}

// PlayNoise starts the procedural wind ambience.
func (m *Manager) PlayNoise(seed uint64) error {
	return m.play(newWindNoise(seed, m.Level), nil)
}

// PlayFile loops a WAV recording as the ambience, scaled by the wind level.
func (m *Manager) PlayFile(data []byte) error {
	m.mu.RLock()
	rate := m.sampleRate
	m.mu.RUnlock()

	loop, file, err := decodeLoop(data, rate)
	if err != nil {
		return err
	}
	return m.play(&levelScaler{Streamer: loop, level: m.Level}, file)
}

func (m *Manager) play(s beep.Streamer, file beep.StreamSeekCloser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		if file != nil {
			file.Close()
		}
		return fmt.Errorf("audio not initialized")
	}

	m.stop()
	m.ctrl = &beep.Ctrl{Streamer: s}
	m.gain = &effects.Volume{Streamer: m.ctrl, Base: 10}
	m.file = file
	m.applyVolume()
	speaker.Play(m.gain)
	return nil
}

// Stop silences the ambience.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop()
}

func (m *Manager) stop() {
	speaker.Clear()
	if m.file != nil {
		m.file.Close()
		m.file = nil
	}
	m.ctrl = nil
	m.gain = nil
}

// SetPaused pauses or resumes the ambience.
func (m *Manager) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctrl == nil {
		return
	}
	speaker.Lock()
	m.ctrl.Paused = paused
	speaker.Unlock()
}

// SetVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp(vol, 0, 1)
	m.applyVolume()
}

// Volume returns the master volume.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

func (m *Manager) applyVolume() {
	if m.gain == nil {
		return
	}
	if m.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	m.gain.Silent = m.volume <= 0
	m.gain.Volume = volumeToDb(m.volume) / 20
}

// SetWind updates the ambience loudness from the current wind. It is cheap
// and safe to call every frame.
func (m *Manager) SetWind(w sway.Wind) {
	m.level.Store(gomath.Float64bits(WindLevel(w)))
}

// Level returns the current wind loudness.
func (m *Manager) Level() float64 {
	return gomath.Float64frombits(m.level.Load())
}

// WindLevel maps wind strength and gust noise to a 0..1 loudness.
func WindLevel(w sway.Wind) float64 {
	base := clamp(w.Strength*strengthGain, 0, 1)
	return base * clamp(0.75+w.Noise*0.5, 0, 1)
}

// volumeToDb converts a 0-1 volume to decibel scale.
func volumeToDb(vol float64) float64 {
	if vol <= 0 {
		return -100
	}
	return 20 * gomath.Log10(vol)
}

func clamp(v, lo, hi float64) float64 {
	return gomath.Max(lo, gomath.Min(hi, v))
}

// decodeLoop decodes WAV data into an endless stream at rate.
func decodeLoop(data []byte, rate beep.SampleRate) (beep.Streamer, beep.StreamSeekCloser, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("decode wav: %w", err)
	}

	var resampled beep.Streamer = streamer
	if rate != 0 && format.SampleRate != rate {
		resampled = beep.Resample(4, format.SampleRate, rate, streamer)
	}
	return &loopStreamer{streamer: streamer, resampled: resampled}, streamer, nil
}

// loopStreamer rewinds its source whenever it drains.
type loopStreamer struct {
	streamer  beep.StreamSeekCloser
	resampled beep.Streamer
}

func (l *loopStreamer) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		n, ok := l.resampled.Stream(samples[filled:])
		filled += n
		if !ok || n == 0 {
			if l.streamer.Len() == 0 {
				return filled, filled > 0
			}
			if err := l.streamer.Seek(0); err != nil {
				return filled, false
			}
		}
	}
	return filled, true
}

func (l *loopStreamer) Err() error {
	return l.streamer.Err()
}

// levelScaler multiplies a stream by the smoothed wind level.
type levelScaler struct {
	beep.Streamer
	level   func() float64
	current float64
}

func (s *levelScaler) Stream(samples [][2]float64) (int, bool) {
	n, ok := s.Streamer.Stream(samples)
	target := s.level()
	for i := 0; i < n; i++ {
		s.current += (target - s.current) * 0.001
		samples[i][0] *= s.current
		samples[i][1] *= s.current
	}
	return n, ok
}

package audio

import (
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"

	"github.com/Faultbox/lsystree/internal/tree/sway"
)

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		vol float64
		min float64
		max float64
	}{
		{1.0, -1, 1},     // Full volume should be ~0dB
		{0.5, -8, -4},    // Half volume should be around -6dB
		{0.25, -14, -10}, // Quarter volume should be around -12dB
		{0.0, -200, -90}, // Zero volume should be very negative
	}

	for _, tt := range tests {
		db := volumeToDb(tt.vol)
		if db < tt.min || db > tt.max {
			t.Errorf("volumeToDb(%f) = %f, want between %f and %f", tt.vol, db, tt.min, tt.max)
		}
	}
}

func TestSetVolumeClamps(t *testing.T) {
	m := New()
	if m.Volume() != 1.0 {
		t.Errorf("default volume = %f, want 1.0", m.Volume())
	}

	m.SetVolume(0.5)
	if m.Volume() != 0.5 {
		t.Errorf("volume = %f, want 0.5", m.Volume())
	}
	m.SetVolume(2.0)
	if m.Volume() != 1.0 {
		t.Errorf("volume = %f, want 1.0 (clamped)", m.Volume())
	}
	m.SetVolume(-1.0)
	if m.Volume() != 0.0 {
		t.Errorf("volume = %f, want 0.0 (clamped)", m.Volume())
	}
}

func TestWindLevel(t *testing.T) {
	tests := []struct {
		name string
		wind sway.Wind
		want float64
	}{
		{"calm", sway.Wind{}, 0},
		{"reference", sway.Wind{Strength: 0.05}, 0.5 * 0.75},
		{"storm saturates", sway.Wind{Strength: 5, Noise: 1}, 1},
		{"lull", sway.Wind{Strength: 0.1, Noise: -0.5}, 0.5},
	}
	for _, tt := range tests {
		if got := WindLevel(tt.wind); gomath.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: WindLevel = %v, want %v", tt.name, got, tt.want)
		}
	}

	m := New()
	m.SetWind(sway.Wind{Strength: 0.05})
	if got := m.Level(); gomath.Abs(got-0.375) > 1e-12 {
		t.Errorf("Level() = %v, want 0.375", got)
	}
}

func TestWindNoiseFollowsLevel(t *testing.T) {
	level := 0.0
	n := newWindNoise(7, func() float64 { return level })
	buf := make([][2]float64, 4096)

	n.Stream(buf)
	for i, s := range buf {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("sample %d = %v with zero level", i, s)
		}
	}

	level = 1
	for i := 0; i < 20; i++ {
		n.Stream(buf)
	}
	var energy float64
	for _, s := range buf {
		if gomath.Abs(s[0]) > 4 || gomath.Abs(s[1]) > 4 {
			t.Fatalf("sample out of range: %v", s)
		}
		energy += s[0] * s[0]
	}
	if energy == 0 {
		t.Error("no output at full level")
	}
}

func TestDecodeLoopRepeats(t *testing.T) {
	format := beep.Format{SampleRate: DefaultSampleRate, NumChannels: 2, Precision: 2}
	tone, err := generators.SineTone(format.SampleRate, 440)
	if err != nil {
		t.Fatalf("sine tone: %v", err)
	}

	path := filepath.Join(t.TempDir(), "wind.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.Encode(f, beep.Take(100, tone), format); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	loop, file, err := decodeLoop(data, DefaultSampleRate)
	if err != nil {
		t.Fatalf("decodeLoop: %v", err)
	}
	defer file.Close()

	buf := make([][2]float64, 350)
	n, ok := loop.Stream(buf)
	if n != len(buf) || !ok {
		t.Errorf("Stream = %d, %v; want %d, true", n, ok, len(buf))
	}
}

func TestDecodeLoopRejectsGarbage(t *testing.T) {
	if _, _, err := decodeLoop([]byte("not a wav"), DefaultSampleRate); err == nil {
		t.Error("expected decode error")
	}
}

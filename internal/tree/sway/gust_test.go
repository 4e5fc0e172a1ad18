package sway

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGustBoundedAndContinuous(t *testing.T) {
	g := DefaultGust()
	prev := g.Sample(0)
	for i := 1; i < 5000; i++ {
		v := g.Sample(float64(i) * 0.01)
		assert.LessOrEqual(t, gomath.Abs(v), g.Amplitude)
		assert.Less(t, gomath.Abs(v-prev), 0.05, "jump at t=%v", float64(i)*0.01)
		prev = v
	}
}

func TestGustDeterministicPerSeed(t *testing.T) {
	a, b := DefaultGust(), DefaultGust()
	assert.Equal(t, a.Sample(12.3), b.Sample(12.3))

	b.Seed = 99
	diff := 0
	for i := 0; i < 20; i++ {
		if a.Sample(float64(i)*2.9) != b.Sample(float64(i)*2.9) {
			diff++
		}
	}
	assert.Greater(t, diff, 10)
}

func TestGustApplySetsNoise(t *testing.T) {
	g := DefaultGust()
	w := g.Apply(eastWind, 4)
	assert.Equal(t, g.Sample(4), w.Noise)
	assert.Equal(t, eastWind.Direction, w.Direction)
}

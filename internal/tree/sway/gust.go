package sway

import (
	gomath "math"
)

// Gust is smooth 1D value noise over time, suitable for Wind.Noise.
type Gust struct {
	Seed      uint64
	Frequency float64 // lattice points per second
	Amplitude float64 // output range is [-Amplitude, Amplitude]
}

// DefaultGust returns gusts changing roughly every three seconds.
func DefaultGust() Gust {
	return Gust{Seed: 1, Frequency: 0.35, Amplitude: 0.5}
}

// Sample returns the gust value at time t. It is continuous in t and a pure
// function of the Gust and t.
func (g Gust) Sample(t float64) float64 {
	x := t * g.Frequency
	i := gomath.Floor(x)
	f := x - i
	f = f * f * (3 - 2*f)

	a := g.lattice(int64(i))
	b := g.lattice(int64(i) + 1)
	return (a + (b-a)*f) * g.Amplitude
}

// lattice hashes a lattice point into [-1, 1] with splitmix64.
func (g Gust) lattice(i int64) float64 {
	z := g.Seed + uint64(i)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11)/float64(1<<53)*2 - 1
}

// Apply returns w with Noise set to the gust at t.
func (g Gust) Apply(w Wind, t float64) Wind {
	w.Noise = g.Sample(t)
	return w
}

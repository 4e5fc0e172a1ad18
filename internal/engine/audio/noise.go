package audio

// windNoise is low-passed white noise whose gain follows a level source.
// Each channel has its own generator so the wind sounds wide.
type windNoise struct {
	state   [2]uint64
	lowpass [2]float64
	level   func() float64
	current float64
}

func newWindNoise(seed uint64, level func() float64) *windNoise {
	return &windNoise{
		state: [2]uint64{seed*2 + 1, seed*2 + 0x9e3779b97f4a7c15},
		level: level,
	}
}

// next returns a uniform sample in [-1, 1) from channel c's xorshift state.
func (w *windNoise) next(c int) float64 {
	x := w.state[c]
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	w.state[c] = x
	return float64(x>>11)/float64(1<<52) - 1
}

func (w *windNoise) Stream(samples [][2]float64) (int, bool) {
	target := w.level()
	for i := range samples {
		w.current += (target - w.current) * 0.0005
		// Cutoff follows the level so gusts sound brighter.
		alpha := 0.01 + 0.04*w.current
		for c := 0; c < 2; c++ {
			w.lowpass[c] += (w.next(c) - w.lowpass[c]) * alpha
			samples[i][c] = w.lowpass[c] * w.current * 4
		}
	}
	return len(samples), true
}

func (w *windNoise) Err() error {
	return nil
}

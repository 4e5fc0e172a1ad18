package framebuffer

import "testing"

func TestFlipRows(t *testing.T) {
	// Two rows of one pixel, bottom row first as GL returns them.
	pixels := []byte{
		1, 2, 3, 4, // bottom
		5, 6, 7, 8, // top
	}
	img := FlipRows(pixels, 1, 2)

	if got := img.Pix[0:4]; got[0] != 5 || got[3] != 8 {
		t.Errorf("top row = %v, want [5 6 7 8]", got)
	}
	if got := img.Pix[img.Stride : img.Stride+4]; got[0] != 1 {
		t.Errorf("bottom row = %v, want [1 2 3 4]", got)
	}
}

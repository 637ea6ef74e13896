package imaging

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// BorderLightness returns the mean CIE L* lightness (0 = black, 1 = white) of
// the pixels on the outermost ring of img.
//
// Drawings rarely touch the canvas edge, so the border ring is a cheap
// estimate of the background. Fully transparent pixels count as white.
// An empty image reports 1.
func BorderLightness(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 1
	}

	var sum float64
	var n int
	sample := func(x, y int) {
		n++
		c, ok := colorful.MakeColor(img.At(x, y))
		if !ok {
			sum++
			return
		}
		l, _, _ := c.Lab()
		sum += l
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		sample(x, b.Min.Y)
		if b.Dy() > 1 {
			sample(x, b.Max.Y-1)
		}
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		sample(b.Min.X, y)
		if b.Dx() > 1 {
			sample(b.Max.X-1, y)
		}
	}

	return sum / float64(n)
}

// DarkBackground reports whether the border of img is darker than mid-gray,
// meaning strokes are expected to be lighter than the background.
func DarkBackground(img image.Image) bool {
	return BorderLightness(img) < 0.5
}

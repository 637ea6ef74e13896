package detection

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
	"github.com/ironsheep/shape-moments-mcp/internal/imaging"
)

// Luminance weights (ITU-R BT.601), the usual RGB to gray conversion.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// DefaultThreshold separates ink from paper on the 0-255 gray scale.
const DefaultThreshold = 128

// Polarity says which side of the threshold counts as foreground.
type Polarity int

const (
	// DarkInk treats pixels with gray <= threshold as foreground: dark
	// strokes on a light canvas.
	DarkInk Polarity = iota

	// LightInk treats pixels with gray > threshold as foreground: light
	// strokes on a dark canvas.
	LightInk

	// AutoPolarity picks DarkInk or LightInk from the lightness of the
	// image border.
	AutoPolarity
)

var polarityNames = map[Polarity]string{
	DarkInk:      "dark",
	LightInk:     "light",
	AutoPolarity: "auto",
}

func (p Polarity) String() string {
	if name, ok := polarityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Polarity(%d)", int(p))
}

// ParsePolarity accepts "dark", "light" or "auto", case-insensitively.
// An empty string means DarkInk.
func ParsePolarity(s string) (Polarity, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return DarkInk, nil
	}
	for p, n := range polarityNames {
		if n == name {
			return p, nil
		}
	}
	return DarkInk, apperrors.NewValidationError(fmt.Sprintf("unknown polarity %q: want dark, light or auto", s), nil)
}

// MaskOptions tunes how a drawing is reduced to a single filled shape.
type MaskOptions struct {
	// Threshold is the gray level splitting ink from background.
	Threshold uint8

	// Polarity selects which side of Threshold is ink.
	Polarity Polarity

	// CloseRadius is the radius of the square structuring element used to
	// close small gaps in strokes. 1 means a 3x3 element; 0 disables closing.
	CloseRadius int
}

// DefaultMaskOptions returns the settings for dark strokes on a white canvas.
func DefaultMaskOptions() MaskOptions {
	return MaskOptions{
		Threshold:   DefaultThreshold,
		Polarity:    DarkInk,
		CloseRadius: 1,
	}
}

// Shape is the output of BuildMask.
type Shape struct {
	// Mask has the same size as the input image. The selected region and
	// everything it encloses is 255; all other pixels are 0. When no region
	// encloses a positive area the mask is entirely 0.
	Mask *image.Gray

	// Contour is the outer boundary of the selected region, or nil when
	// the mask is empty.
	Contour *Contour

	// Regions is the number of separate ink regions found after closing.
	Regions int

	// Filled is the number of 255 pixels in Mask.
	Filled int

	// Polarity is the polarity actually applied, after resolving AutoPolarity.
	Polarity Polarity
}

// Empty reports whether no shape was found.
func (s *Shape) Empty() bool {
	return s.Contour == nil
}

// BuildMask reduces a drawing to a binary mask of its dominant shape.
//
// Steps:
//
//  1. Convert to gray using BT.601 luminance weights
//  2. Threshold into ink and background according to opts.Polarity
//  3. Morphologically close the ink (dilate then erode) to bridge small gaps
//  4. Find the outer contours of the 8-connected ink regions
//  5. Keep the contour enclosing the largest area (the first one wins ties)
//  6. Fill that contour, holes included
//
// Contours enclosing no area (isolated pixels, one-pixel lines) are never
// selected, so a blank canvas or a drawing made only of such strokes yields
// an all-zero mask rather than an error.
func BuildMask(img *image.RGBA, opts MaskOptions) *Shape {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	polarity := opts.Polarity
	if polarity == AutoPolarity {
		polarity = DarkInk
		if imaging.DarkBackground(img) {
			polarity = LightInk
		}
	}

	shape := &Shape{
		Mask:     image.NewGray(image.Rect(0, 0, w, h)),
		Polarity: polarity,
	}
	if w == 0 || h == 0 {
		return shape
	}

	ink := threshold(img, opts.Threshold, polarity)
	fg := closeInk(ink, opts.CloseRadius)

	contours, comp := findContours(fg, w, h)
	shape.Regions = len(contours)

	best := largestContour(contours)
	if best < 0 {
		return shape
	}

	selected := contours[best]
	shape.Contour = &selected
	shape.Mask = fillRegion(comp, selected.label)
	for _, v := range shape.Mask.Pix {
		if v != 0 {
			shape.Filled++
		}
	}
	return shape
}

// threshold converts img to gray and marks ink pixels as 255.
func threshold(img *image.RGBA, t uint8, polarity Polarity) *image.Gray {
	gray := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	ink := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		out := ink.Pix[y*ink.Stride : y*ink.Stride+w]
		for x := 0; x < w; x++ {
			k := row[x*4]
			on := k <= t
			if polarity == LightInk {
				on = k > t
			}
			if on {
				out[x] = 255
			}
		}
	}
	return ink
}

// closeInk applies a morphological closing with a (2r+1)x(2r+1) square and
// returns the result as a foreground bitmap in row-major order.
func closeInk(ink *image.Gray, radius int) []bool {
	w, h := ink.Rect.Dx(), ink.Rect.Dy()
	fg := make([]bool, w*h)

	if radius <= 0 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				fg[y*w+x] = ink.Pix[y*ink.Stride+x] != 0
			}
		}
		return fg
	}

	closed := effect.Erode(effect.Dilate(ink, float64(radius)), float64(radius))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fg[y*w+x] = closed.Pix[y*closed.Stride+x*4] >= 128
		}
	}
	return fg
}

// MaskResult describes a built mask for display to a client.
type MaskResult struct {
	// Width and Height are the mask dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Found is false when no shape enclosing a positive area was detected.
	Found bool `json:"found"`

	// ContourArea is the polygon area of the selected outer contour.
	ContourArea float64 `json:"contour_area"`

	// ContourPoints is the number of boundary pixels on the selected contour.
	ContourPoints int `json:"contour_points"`

	// FilledPixels is the number of foreground pixels in the mask.
	FilledPixels int `json:"filled_pixels"`

	// Regions is the number of ink regions found after closing.
	Regions int `json:"regions"`

	// Polarity is the ink polarity that was applied.
	Polarity string `json:"polarity"`

	// ImageBase64 is the PNG-encoded mask as a base64 string.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// Render encodes the shape's mask as a PNG and summarizes it.
func Render(shape *Shape) (*MaskResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, shape.Mask); err != nil {
		return nil, apperrors.NewInternalError("failed to encode mask", err)
	}

	res := &MaskResult{
		Width:        shape.Mask.Rect.Dx(),
		Height:       shape.Mask.Rect.Dy(),
		Found:        !shape.Empty(),
		FilledPixels: shape.Filled,
		Regions:      shape.Regions,
		Polarity:     shape.Polarity.String(),
		ImageBase64:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:     "image/png",
	}
	if shape.Contour != nil {
		res.ContourArea = shape.Contour.Area
		res.ContourPoints = len(shape.Contour.Points)
	}
	return res, nil
}

package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
)

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// CanvasOptions controls how a RawImage is turned into the canvas the mask
// builder works on.
type CanvasOptions struct {
	// Region, when set, restricts classification to that part of the drawing.
	Region *Region

	// MaxDimension, when positive, downscales the canvas so neither side
	// exceeds it. Hu invariants are scale invariant, so this only trades
	// precision for speed on large inputs.
	MaxDimension int
}

// Canvas validates raw and returns an opaque RGBA copy anchored at (0,0),
// cropped and downscaled according to opts.
func Canvas(raw *RawImage, opts CanvasOptions) (*image.RGBA, error) {
	rgba, err := raw.RGBA()
	if err != nil {
		return nil, err
	}
	if opts.Region == nil && (opts.MaxDimension <= 0 || fits(rgba.Bounds(), opts.MaxDimension)) {
		return rgba, nil
	}

	var img image.Image = rgba
	if opts.Region != nil {
		cropped, err := cropRegion(rgba, *opts.Region)
		if err != nil {
			return nil, err
		}
		img = cropped
	}
	if opts.MaxDimension > 0 && !fits(img.Bounds(), opts.MaxDimension) {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}
	return opaqueRGBA(imaging.Clone(img)), nil
}

func fits(b image.Rectangle, limit int) bool {
	return b.Dx() <= limit && b.Dy() <= limit
}

func cropRegion(img image.Image, r Region) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y), nil)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return nil, apperrors.NewValidationError("invalid region: x1 must be < x2, y1 must be < y2", nil)
	}
	return imaging.Crop(img, r.Rect()), nil
}

// opaqueRGBA copies an NRGBA image into an RGBA one, forcing alpha to 255.
// The source is already opaque, so color channels are copied unchanged.
func opaqueRGBA(src *image.NRGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		copy(d, s)
		for i := 3; i < len(d); i += 4 {
			d[i] = 0xFF
		}
	}
	return dst
}

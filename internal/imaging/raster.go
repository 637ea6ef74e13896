package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
)

// PixelFormat declares the byte layout of a RawImage buffer.
type PixelFormat int

const (
	// FormatUnknown is the zero value and is always rejected.
	FormatUnknown PixelFormat = iota

	// FormatRGBA8888 stores 4 bytes per pixel in the order R, G, B, A.
	FormatRGBA8888

	// FormatBGRA8888 stores 4 bytes per pixel in the order B, G, R, A.
	FormatBGRA8888

	// FormatGray8 stores 1 byte of luminance per pixel. Declarable, but not
	// accepted by the classifier.
	FormatGray8

	// FormatRGB565 stores 2 bytes per pixel. Declarable, but not accepted by
	// the classifier.
	FormatRGB565
)

var formatNames = map[PixelFormat]string{
	FormatUnknown:  "unknown",
	FormatRGBA8888: "rgba8888",
	FormatBGRA8888: "bgra8888",
	FormatGray8:    "gray8",
	FormatRGB565:   "rgb565",
}

func (f PixelFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// BytesPerPixel returns the declared pixel size, or 0 for FormatUnknown.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888, FormatBGRA8888:
		return 4
	case FormatRGB565:
		return 2
	case FormatGray8:
		return 1
	}
	return 0
}

// Supported reports whether the classifier accepts this format.
func (f PixelFormat) Supported() bool {
	return f == FormatRGBA8888 || f == FormatBGRA8888
}

// ParsePixelFormat accepts the names produced by PixelFormat.String,
// case-insensitively.
func ParsePixelFormat(s string) (PixelFormat, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == name && f != FormatUnknown {
			return f, nil
		}
	}
	return FormatUnknown, apperrors.NewImageFormatError(fmt.Sprintf("unknown pixel format %q", s), nil)
}

// RawImage is a caller-supplied pixel buffer with an explicit layout.
//
// Only FormatRGBA8888 and FormatBGRA8888 (8 bits per channel) are accepted
// for classification. The alpha byte is ignored: every pixel is treated as
// opaque, so callers that draw on a transparent canvas should flatten it
// first (FromImage does this onto white).
type RawImage struct {
	Width  int
	Height int

	// Stride is the number of bytes between the starts of consecutive rows.
	// Zero means tightly packed (Width * BytesPerPixel).
	Stride int

	Format PixelFormat
	Pix    []byte
}

// PixelSupplier yields a validated pixel buffer for one classification
// request. Implementations must not return a buffer they will later mutate.
type PixelSupplier interface {
	Pixels() (*RawImage, error)
}

// Pixels validates the buffer and returns it, so a *RawImage is its own
// PixelSupplier.
func (r *RawImage) Pixels() (*RawImage, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RawImage) stride() int {
	if r.Stride != 0 {
		return r.Stride
	}
	return r.Width * r.Format.BytesPerPixel()
}

// Validate checks that the declared format is supported and that the buffer
// is large enough for the declared geometry.
func (r *RawImage) Validate() error {
	if r == nil {
		return apperrors.NewImageFormatError("no pixel data", nil)
	}
	if !r.Format.Supported() {
		return apperrors.NewImageFormatError(
			fmt.Sprintf("unsupported pixel format %s: need %s or %s", r.Format, FormatRGBA8888, FormatBGRA8888), nil)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return apperrors.NewImageFormatError(fmt.Sprintf("invalid dimensions %dx%d", r.Width, r.Height), nil)
	}

	rowBytes := r.Width * r.Format.BytesPerPixel()
	stride := r.stride()
	if stride < rowBytes {
		return apperrors.NewImageFormatError(fmt.Sprintf("stride %d shorter than row of %d bytes", stride, rowBytes), nil)
	}
	need := stride*(r.Height-1) + rowBytes
	if len(r.Pix) < need {
		return apperrors.NewImageFormatError(
			fmt.Sprintf("buffer holds %d bytes, %dx%d %s needs %d", len(r.Pix), r.Width, r.Height, r.Format, need), nil)
	}
	return nil
}

// RGBA converts the buffer into an opaque *image.RGBA anchored at (0,0).
func (r *RawImage) RGBA() (*image.RGBA, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	stride := r.stride()
	ri, bi := 0, 2
	if r.Format == FormatBGRA8888 {
		ri, bi = 2, 0
	}

	for y := 0; y < r.Height; y++ {
		src := r.Pix[y*stride : y*stride+r.Width*4]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+r.Width*4]
		for x := 0; x < r.Width; x++ {
			s := src[x*4 : x*4+4]
			d := row[x*4 : x*4+4]
			d[0] = s[ri]
			d[1] = s[1]
			d[2] = s[bi]
			d[3] = 0xFF
		}
	}
	return dst, nil
}

// imageSupplier adapts a decoded image to PixelSupplier.
type imageSupplier struct {
	img image.Image
}

// FromImage converts any decoded image into an RGBA8888 RawImage.
// Transparent and translucent pixels are composited onto white, the same
// background a freshly cleared drawing canvas has.
func FromImage(img image.Image) *RawImage {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	return &RawImage{
		Width:  flat.Bounds().Dx(),
		Height: flat.Bounds().Dy(),
		Stride: flat.Stride,
		Format: FormatRGBA8888,
		Pix:    flat.Pix,
	}
}

// Supplier wraps a decoded image as a PixelSupplier. Conversion happens on
// each call to Pixels.
func Supplier(img image.Image) PixelSupplier {
	return imageSupplier{img: img}
}

func (s imageSupplier) Pixels() (*RawImage, error) {
	if s.img == nil {
		return nil, apperrors.NewImageFormatError("no image", nil)
	}
	return FromImage(s.img).Pixels()
}

// Package detection isolates the dominant shape in a hand-drawn image.
//
// BuildMask turns an RGBA drawing into a binary mask holding exactly one
// filled region: the ink region whose outer contour encloses the largest
// area. The mask is what moment extraction runs on.
//
// # Algorithm Overview
//
//  1. Grayscale: BT.601 luminance, rounded to 8 bits
//  2. Threshold: gray <= 128 is ink for dark strokes on a light canvas
//     (configurable, and invertible for light-on-dark drawings)
//  3. Closing: 3x3 dilation followed by 3x3 erosion bridges one-pixel gaps
//  4. Contours: 8-connected regions are labeled by flood fill and their
//     outer boundaries traced with Moore-neighbor tracing
//  5. Selection: the contour with the largest enclosed area wins, first
//     found on ties; contours enclosing no area are never selected
//  6. Fill: the winning region and all pixels it encloses become 255
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Empty Masks
//
// A blank canvas, or one containing only dots and one-pixel lines, produces
// an all-zero mask and a Shape whose Empty method reports true. This is not
// an error; downstream moment extraction handles it.
package detection

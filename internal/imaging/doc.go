// Package imaging turns caller-supplied drawings into canvases the shape
// pipeline can work on.
//
// # Pixel Contract
//
// The classifier consumes RawImage values: an explicit width, height, stride,
// byte buffer and declared PixelFormat. Only FormatRGBA8888 and
// FormatBGRA8888 are accepted; any other declared layout, or a buffer whose
// length does not match the declared geometry, fails with an image format
// error instead of being reinterpreted. The alpha byte is ignored.
//
// Decoded images (PNG, JPEG, GIF) are adapted through FromImage, which
// composites transparency onto white and emits RGBA8888. ImageCache loads
// files from disk and caches the decoded result by path.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. For regions, (x1,y1) is
// inclusive and (x2,y2) is exclusive. Canvases returned by Canvas always
// start at (0,0).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and never mutate their inputs.
package imaging

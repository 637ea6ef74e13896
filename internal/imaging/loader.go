package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
)

// ImageCache provides thread-safe caching of decoded drawings to avoid
// redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path,
// together with the file's modification time and size when it was read. A
// Load whose file still has the same modification time and size returns the
// cached copy; a drawing saved again to the same path is decoded afresh.
// Cached images are never mutated; every classification converts them into a
// fresh RawImage.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear(). Long-running servers handling many drawings should evict them once
// classified.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage
}

type cachedImage struct {
	img     image.Image
	modTime time.Time
	size    int64
}

func (c cachedImage) matches(fi os.FileInfo) bool {
	return c.modTime.Equal(fi.ModTime()) && c.size == fi.Size()
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cachedImage),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not
// cached or changed on disk since it was cached.
//
// Supported formats are PNG, JPEG, and GIF. A missing file or an undecodable
// one is reported as an image format error, since from the classifier's point
// of view the pixel data is inaccessible.
func (c *ImageCache) Load(path string) (image.Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewImageFormatError("failed to open image", err)
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.matches(fi) {
		return entry.img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewImageFormatError("failed to open image", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.NewImageFormatError("failed to decode image", err)
	}

	c.mu.Lock()
	c.images[path] = cachedImage{img: img, modTime: fi.ModTime(), size: fi.Size()}
	c.mu.Unlock()

	return img, nil
}

// Pixels loads the image at path and returns it as an RGBA8888 RawImage.
func (c *ImageCache) Pixels(path string) (*RawImage, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img).Pixels()
}

// File returns a PixelSupplier reading path through the cache.
func (c *ImageCache) File(path string) PixelSupplier {
	return fileSupplier{cache: c, path: path}
}

type fileSupplier struct {
	cache *ImageCache
	path  string
}

func (s fileSupplier) Pixels() (*RawImage, error) {
	return s.cache.Pixels(s.path)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a loaded drawing.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	// Transparent areas are treated as white background when classifying.
	HasAlpha bool `json:"has_alpha"`

	// PixelFormat is the layout the image is handed to the classifier in.
	PixelFormat string `json:"pixel_format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Paletted:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		PixelFormat:   FormatRGBA8888.String(),
		FileSizeBytes: stat.Size(),
	}, nil
}

package analyzer

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned when a file decodes to a format that is
// not in the configured list.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageAnalyzer loads and validates the photos handed to the clusterer
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	AutoOrientation  bool
}

// DefaultConfig returns the loader defaults
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"jpeg", "png", "gif", "bmp", "tiff", "webp"},
		MinImageSize:     1,
		AutoOrientation:  true,
	}
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{config: DefaultConfig()}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// LoadImage opens and decodes an image file, honoring EXIF orientation.
func (a *ImageAnalyzer) LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, err := a.LoadImageFromReader(file)
	if err != nil {
		return nil, err
	}
	if err := a.ValidateImage(img); err != nil {
		return nil, err
	}

	info := a.GetImageInfo(img)
	log.Debug().
		Str("path", path).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("aspect", info.AspectRatio).
		Msg("image loaded")

	return img, nil
}

// LoadImageFromReader decodes an image from a seekable reader
func (a *ImageAnalyzer) LoadImageFromReader(reader io.ReadSeeker) (image.Image, error) {
	_, format, err := image.DecodeConfig(reader)
	if err != nil {
		// x/image/webp rejects some extended files; let libwebp try.
		if _, serr := reader.Seek(0, io.SeekStart); serr == nil {
			if img, werr := webp.Decode(reader); werr == nil && a.isFormatSupported("webp") {
				return img, nil
			}
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if !a.isFormatSupported(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image: %w", err)
	}

	img, err := imaging.Decode(reader, imaging.AutoOrientation(a.config.AutoOrientation))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	if strings.EqualFold(format, "jpg") {
		format = "jpeg"
	}
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(supported, "jpg") {
			supported = "jpeg"
		}
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	info := a.GetImageInfo(img)
	if info.Width < a.config.MinImageSize || info.Height < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			info.Width, info.Height, a.config.MinImageSize)
	}
	return nil
}

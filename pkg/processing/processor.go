package processing

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Default canonical resolution both images are resized to before comparison
const (
	DefaultCanonicalWidth  = 200
	DefaultCanonicalHeight = 200
	DefaultThumbnailSize   = 100
)

// ErrUnknownFilter is returned by ParseFilter for names it does not know.
var ErrUnknownFilter = errors.New("unknown resample filter")

// Canonical is an image reduced to the canonical grid with alpha dropped.
// Pix holds one 8-bit R, G, B triple per pixel, row-major, so a cached
// 200x200 grid takes 120 KB.
type Canonical struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewCanonical allocates a black width x height grid
func NewCanonical(width, height int) *Canonical {
	return &Canonical{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// Len returns the number of pixels in the grid
func (c *Canonical) Len() int {
	return len(c.Pix) / 3
}

// At returns the color at (x, y) of the canonical grid
func (c *Canonical) At(x, y int) colorful.Color {
	i := (y*c.Width + x) * 3
	return colorful.Color{
		R: float64(c.Pix[i+0]) / 255.0,
		G: float64(c.Pix[i+1]) / 255.0,
		B: float64(c.Pix[i+2]) / 255.0,
	}
}

// Set stores col at (x, y), rounded to 8 bits per channel
func (c *Canonical) Set(x, y int, col colorful.Color) {
	i := (y*c.Width + x) * 3
	c.Pix[i+0], c.Pix[i+1], c.Pix[i+2] = col.Clamped().RGB255()
}

// Processor handles image processing operations
type Processor struct {
	filter imaging.ResampleFilter
}

// NewProcessor creates a processor that resamples with Lanczos
func NewProcessor() *Processor {
	return &Processor{filter: imaging.Lanczos}
}

// NewProcessorWithFilter creates a processor with the named resample filter
func NewProcessorWithFilter(name string) (*Processor, error) {
	filter, err := ParseFilter(name)
	if err != nil {
		return nil, err
	}
	return &Processor{filter: filter}, nil
}

// ParseFilter maps a filter name to an imaging filter. Nearest-neighbor is
// not accepted: canonicalization needs a smoothing filter.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lanczos":
		return imaging.Lanczos, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "mitchellnetravali":
		return imaging.MitchellNetravali, nil
	case "linear", "bilinear":
		return imaging.Linear, nil
	case "box":
		return imaging.Box, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
}

// Canonicalize resizes img to width x height and converts it to 3-channel
// colors. Alpha is discarded, grayscale expands to equal RGB channels.
func (p *Processor) Canonicalize(img image.Image, width, height int) (*Canonical, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid canonical size %dx%d", width, height)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot canonicalize empty image")
	}

	resized := imaging.Resize(img, width, height, p.filter)
	b := resized.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("resize produced %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}

	out := NewCanonical(width, height)
	j := 0
	for y := 0; y < height; y++ {
		i := y * resized.Stride
		for x := 0; x < width; x++ {
			out.Pix[j+0] = resized.Pix[i+0]
			out.Pix[j+1] = resized.Pix[i+1]
			out.Pix[j+2] = resized.Pix[i+2]
			i += 4
			j += 3
		}
	}
	return out, nil
}

// Thumbnail scales img to fit within a size x size box, keeping aspect ratio
func (p *Processor) Thumbnail(img image.Image, size int) image.Image {
	if size < 1 {
		size = DefaultThumbnailSize
	}
	return imaging.Fit(img, size, size, imaging.Linear)
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// FormatExtension normalizes an output format name to a file extension
func FormatExtension(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "jpg"
	}
}

// Package vision rates photos by how much fine detail they hold, so the
// sharpest frame of a cluster can be suggested as the one to keep.
package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultSampleSize bounds the longer side of the image before scoring
const DefaultSampleSize = 256

// Config holds configuration for sharpness scoring
type Config struct {
	// SampleSize is the box the image is fitted into before scoring.
	// Zero scores the image at full resolution.
	SampleSize int
}

// DefaultConfig returns the default scoring configuration
func DefaultConfig() Config {
	return Config{SampleSize: DefaultSampleSize}
}

// Scorer computes edge-energy sharpness scores
type Scorer struct {
	config Config
}

// New creates a Scorer with default configuration
func New() *Scorer {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Scorer with custom configuration
func NewWithConfig(config Config) *Scorer {
	return &Scorer{config: config}
}

var neighbors = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

// Sharpness returns the mean edge strength of img in [0, 1]. Every interior
// pixel is compared with its eight neighbors on a grayscale copy; border
// pixels are skipped. Images narrower or shorter than three pixels score 0.
func (s *Scorer) Sharpness(img image.Image) float64 {
	b := img.Bounds()
	if s.config.SampleSize > 0 && (b.Dx() > s.config.SampleSize || b.Dy() > s.config.SampleSize) {
		img = imaging.Fit(img, s.config.SampleSize, s.config.SampleSize, imaging.Box)
	}
	gray := imaging.Grayscale(img)

	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	// imaging.Grayscale leaves R, G and B equal, so R alone is the luminance
	lum := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x*4])
	}

	var total float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := lum(x, y)
			var edge float64
			for _, n := range neighbors {
				edge += math.Abs(center - lum(x+n[0], y+n[1]))
			}
			total += edge / (8 * 255)
		}
	}

	return total / float64((width-2)*(height-2))
}

// Best returns the index of the highest score, preferring the earliest on
// ties. It returns -1 for an empty slice.
func Best(scores []float64) int {
	best := -1
	for i, score := range scores {
		if best == -1 || score > scores[best] {
			best = i
		}
	}
	return best
}

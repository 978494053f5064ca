package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

// createCheckerboard creates a black and white checkerboard with square cells
func createCheckerboard(width, height, cell int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func createSolid(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNew(t *testing.T) {
	scorer := New()
	if scorer == nil {
		t.Fatal("New() returned nil")
	}
	if scorer.config.SampleSize != DefaultSampleSize {
		t.Errorf("Expected sample size %d, got %d", DefaultSampleSize, scorer.config.SampleSize)
	}
}

func TestSharpnessUniform(t *testing.T) {
	score := New().Sharpness(createSolid(64, 64, color.RGBA{120, 80, 200, 255}))
	if score != 0 {
		t.Errorf("Expected 0 for a uniform image, got %f", score)
	}
}

func TestSharpnessPixelCheckerboard(t *testing.T) {
	// Every pixel differs from its four edge neighbors and matches its four
	// diagonal ones, so the score is exactly one half.
	score := New().Sharpness(createCheckerboard(32, 32, 1))
	if score != 0.5 {
		t.Errorf("Expected 0.5, got %f", score)
	}
}

func TestSharpnessBlurLowersScore(t *testing.T) {
	sharp := createCheckerboard(120, 80, 8)
	blurred := imaging.Blur(sharp, 3)

	scorer := New()
	sharpScore := scorer.Sharpness(sharp)
	blurredScore := scorer.Sharpness(blurred)

	if sharpScore <= 0 {
		t.Fatalf("Expected a positive score for the sharp image, got %f", sharpScore)
	}
	if blurredScore >= sharpScore {
		t.Errorf("Expected blurred score %f to be below sharp score %f", blurredScore, sharpScore)
	}
}

func TestSharpnessTinyImage(t *testing.T) {
	if score := New().Sharpness(createCheckerboard(2, 10, 1)); score != 0 {
		t.Errorf("Expected 0 for a two pixel wide image, got %f", score)
	}
}

func TestSharpnessFullResolution(t *testing.T) {
	img := createCheckerboard(300, 300, 1)
	full := NewWithConfig(Config{}).Sharpness(img)
	if full != 0.5 {
		t.Errorf("Expected 0.5 at full resolution, got %f", full)
	}
}

func TestBest(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   int
	}{
		{"empty", nil, -1},
		{"single", []float64{0.2}, 0},
		{"last", []float64{0.1, 0.2, 0.3}, 2},
		{"tie keeps first", []float64{0.4, 0.1, 0.4}, 0},
		{"all zero", []float64{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Best(tt.scores); got != tt.want {
				t.Errorf("Best(%v) = %d, want %d", tt.scores, got, tt.want)
			}
		})
	}
}

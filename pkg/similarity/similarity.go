// Package similarity decides whether two canonical images look alike by
// averaging a per-pixel Delta-E color difference.
//
// The comparison is purely positional: pixel (x, y) of one image is
// compared with pixel (x, y) of the other. Shots that differ by camera
// movement or reframing will score as different even when the subject is
// the same.
package similarity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/photo-assistant/pkg/processing"
)

const (
	// DefaultThreshold is the average Delta-E below which two images are
	// considered similar.
	DefaultThreshold = 15.0

	// DefaultMetric is the Delta-E formula used when none is configured.
	DefaultMetric = CIEDE2000
)

var (
	// ErrSizeMismatch is returned when the canonical grids differ.
	ErrSizeMismatch = errors.New("canonical images differ in size")
	// ErrEmptyImage is returned when a canonical image has no pixels.
	ErrEmptyImage = errors.New("canonical image has no pixels")
	// ErrUnknownMetric is returned by ParseMetric.
	ErrUnknownMetric = errors.New("unknown color difference metric")
)

// Metric selects a Delta-E formula
type Metric string

const (
	CIE76     Metric = "cie76"
	CIE94     Metric = "cie94"
	CIEDE2000 Metric = "ciede2000"
)

// ParseMetric maps a metric name to a Metric. An empty name selects the default.
func ParseMetric(name string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultMetric, nil
	case CIE76:
		return CIE76, nil
	case CIE94:
		return CIE94, nil
	case CIEDE2000, "de2000":
		return CIEDE2000, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// Distance returns the color difference on the L* 0..100 scale.
// go-colorful works with L* in 0..1, hence the factor of 100.
func (m Metric) Distance(a, b colorful.Color) float64 {
	switch m {
	case CIE76:
		return a.DistanceCIE76(b) * 100
	case CIE94:
		return a.DistanceCIE94(b) * 100
	default:
		return a.DistanceCIEDE2000(b) * 100
	}
}

// Comparator compares canonical images
type Comparator struct {
	// Threshold is the exclusive upper bound on the average difference for
	// two images to count as similar.
	//
	// If this is 0 or negative, DefaultThreshold is used.
	Threshold float64

	// Metric is the per-pixel formula.
	//
	// If this is empty, DefaultMetric is used.
	Metric Metric
}

// New creates a comparator with the default threshold and metric
func New() *Comparator {
	return &Comparator{Threshold: DefaultThreshold, Metric: DefaultMetric}
}

// AverageDifference averages the per-pixel difference over the whole grid,
// visiting pixels in row-major order.
func (c *Comparator) AverageDifference(a, b *processing.Canonical) (float64, error) {
	if a == nil || b == nil || a.Len() == 0 || b.Len() == 0 {
		return 0, ErrEmptyImage
	}
	if a.Width != b.Width || a.Height != b.Height || a.Len() != b.Len() || a.Len() != a.Width*a.Height {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, a.Width, a.Height, b.Width, b.Height)
	}

	metric := c.metric()
	var sum float64
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			sum += metric.Distance(a.At(x, y), b.At(x, y))
		}
	}
	return sum / float64(a.Len()), nil
}

// Similar reports whether the average difference is strictly below the threshold.
func (c *Comparator) Similar(a, b *processing.Canonical) (bool, error) {
	diff, err := c.AverageDifference(a, b)
	if err != nil {
		return false, err
	}
	return diff < c.threshold(), nil
}

func (c *Comparator) threshold() float64 {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

func (c *Comparator) metric() Metric {
	if c.Metric == "" {
		return DefaultMetric
	}
	return c.Metric
}

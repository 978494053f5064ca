// Package photoassistant groups near-duplicate photos so a user can keep
// the best shot of each burst.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		photoassistant "github.com/menta2k/photo-assistant"
//	)
//
//	func main() {
//		pa := photoassistant.New()
//
//		res, err := pa.Cluster(context.Background(), []string{"a.jpg", "b.jpg", "c.jpg"})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		for i, c := range res.Clusters {
//			fmt.Printf("cluster %d: %v\n", i+1, c)
//		}
//	}
//
// The package wires together:
//
// 1. Analyzer (pkg/analyzer): decodes JPEG, PNG, GIF, BMP, TIFF and WebP files
// 2. Processing (pkg/processing): canonical resize and thumbnails
// 3. Similarity (pkg/similarity): average Delta-E between canonical images
// 4. Cluster (pkg/cluster): the greedy first-match clustering pass
// 5. Runner (pkg/runner): one background run at a time
// 6. Export (pkg/export): thumbnails per cluster and a JSON report
// 7. Vision (pkg/vision): sharpness scores used to suggest the best shot
//
// Two images are similar when, after both are resized to the canonical
// resolution (200x200 by default), the mean per-pixel CIEDE2000 difference
// is below the threshold (15 by default). Pixels are compared by position
// only, so the method suits burst shots taken from the same spot.
package photoassistant

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/photo-assistant/pkg/analyzer"
	"github.com/menta2k/photo-assistant/pkg/cluster"
	"github.com/menta2k/photo-assistant/pkg/export"
	"github.com/menta2k/photo-assistant/pkg/processing"
	"github.com/menta2k/photo-assistant/pkg/runner"
	"github.com/menta2k/photo-assistant/pkg/types"
)

// Version of the photo assistant library
const Version = "1.0.0"

// PhotoAssistant provides a high-level interface for clustering and export
type PhotoAssistant struct {
	analyzer  *analyzer.ImageAnalyzer
	clusterer *cluster.Clusterer
	runner    *runner.Runner
	exporter  *export.Exporter
}

// New creates a new PhotoAssistant with default configuration
func New() *PhotoAssistant {
	pa, _ := NewWithConfig(analyzer.DefaultConfig(), cluster.DefaultConfig(), export.DefaultConfig(), "lanczos")
	return pa
}

// NewWithConfig creates a new PhotoAssistant with custom configuration.
// filter names the resample filter used for canonical resizing.
func NewWithConfig(analyzerConfig analyzer.Config, clusterConfig cluster.Config, exportConfig export.Config, filter string) (*PhotoAssistant, error) {
	processor, err := processing.NewProcessorWithFilter(filter)
	if err != nil {
		return nil, err
	}
	loader := analyzer.NewWithConfig(analyzerConfig)
	clusterer := cluster.NewWithConfig(clusterConfig, loader, processor)

	return &PhotoAssistant{
		analyzer:  loader,
		clusterer: clusterer,
		runner:    runner.New(clusterer),
		exporter:  export.NewWithConfig(exportConfig, loader, processor),
	}, nil
}

// SetProgress installs a callback invoked after each input image
func (pa *PhotoAssistant) SetProgress(fn cluster.ProgressFunc) {
	pa.clusterer.SetProgress(fn)
}

// LoadImage loads an image from file
func (pa *PhotoAssistant) LoadImage(path string) (image.Image, error) {
	return pa.analyzer.LoadImage(path)
}

// Cluster groups paths on the calling goroutine
func (pa *PhotoAssistant) Cluster(ctx context.Context, paths []string) (types.Result, error) {
	return pa.clusterer.Cluster(ctx, paths)
}

// ClusterAsync runs Cluster in the background. It fails with runner.ErrBusy
// while an earlier asynchronous run is still going.
func (pa *PhotoAssistant) ClusterAsync(ctx context.Context, paths []string) (<-chan runner.Outcome, error) {
	return pa.runner.Submit(ctx, paths)
}

// Busy reports whether an asynchronous run is in flight
func (pa *PhotoAssistant) Busy() bool {
	return pa.runner.Busy()
}

// Cancel stops the asynchronous run, if any
func (pa *PhotoAssistant) Cancel() {
	pa.runner.Cancel()
}

// Export writes thumbnails and the JSON report for res into outputDir
func (pa *PhotoAssistant) Export(ctx context.Context, res types.Result, outputDir string) (*export.Report, error) {
	rep, err := pa.exporter.Export(ctx, res, outputDir)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}
	return rep, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

// Package export writes a finished clustering run to an output folder:
// one sub-folder of thumbnails per cluster and a clusters.json report.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/photo-assistant/pkg/analyzer"
	"github.com/menta2k/photo-assistant/pkg/processing"
	"github.com/menta2k/photo-assistant/pkg/types"
	"github.com/menta2k/photo-assistant/pkg/vision"
)

// ReportFile is the name of the JSON report written next to the cluster folders
const ReportFile = "clusters.json"

// ErrNoOutputDir is returned when no output folder is given and it cannot
// be derived from the input.
var ErrNoOutputDir = errors.New("no output directory")

// Loader decodes an image file
type Loader interface {
	LoadImage(path string) (image.Image, error)
}

// Config holds configuration for export
type Config struct {
	ThumbnailSize int
	Format        string
	Quality       int
	Concurrency   int
}

// DefaultConfig returns 100px JPEG thumbnails written by four workers
func DefaultConfig() Config {
	return Config{
		ThumbnailSize: processing.DefaultThumbnailSize,
		Format:        "jpg",
		Quality:       85,
		Concurrency:   4,
	}
}

// Exporter renders clustering results to disk
type Exporter struct {
	loader    Loader
	processor *processing.Processor
	scorer    *vision.Scorer
	config    Config
}

// New creates an Exporter with default configuration
func New() *Exporter {
	return NewWithConfig(DefaultConfig(), analyzer.New(), processing.NewProcessor())
}

// NewWithConfig creates an Exporter with custom configuration
func NewWithConfig(config Config, loader Loader, processor *processing.Processor) *Exporter {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Exporter{loader: loader, processor: processor, scorer: vision.New(), config: config}
}

// Report is the JSON document describing a run
type Report struct {
	ID           string         `json:"id"`
	Status       types.Status   `json:"status"`
	Total        int            `json:"total"`
	ClusterCount int            `json:"cluster_count"`
	Duration     string         `json:"duration"`
	Clusters     []ClusterEntry `json:"clusters"`
	Errors       []ErrorEntry   `json:"errors,omitempty"`
}

// ClusterEntry describes one cluster in a Report
type ClusterEntry struct {
	Index          int      `json:"index"`
	Representative string   `json:"representative"`
	Members        []Member `json:"members"`

	// Best is the sharpest member with a thumbnail, set by Export
	Best string `json:"best,omitempty"`
}

// Member is one image of a cluster and, after export, its thumbnail and
// sharpness score
type Member struct {
	Path      string  `json:"path"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Sharpness float64 `json:"sharpness,omitempty"`
}

// ErrorEntry is the serializable form of types.ImageError
type ErrorEntry struct {
	Path    string      `json:"path"`
	Stage   types.Stage `json:"stage"`
	Against string      `json:"against,omitempty"`
	Message string      `json:"message"`
}

// BuildReport converts a Result into a Report without touching the disk
func BuildReport(res types.Result) *Report {
	rep := &Report{
		ID:           res.ID,
		Status:       res.Status,
		Total:        res.Total,
		ClusterCount: len(res.Clusters),
		Duration:     res.Duration.String(),
		Clusters:     make([]ClusterEntry, 0, len(res.Clusters)),
	}
	for i, c := range res.Clusters {
		entry := ClusterEntry{
			Index:          i + 1,
			Representative: c.Representative(),
			Members:        make([]Member, 0, len(c)),
		}
		for _, p := range c {
			entry.Members = append(entry.Members, Member{Path: p})
		}
		rep.Clusters = append(rep.Clusters, entry)
	}
	for _, e := range res.Errors {
		if e == nil {
			continue
		}
		rep.Errors = append(rep.Errors, ErrorEntry{
			Path:    e.Path,
			Stage:   e.Stage,
			Against: e.Against,
			Message: e.Message(),
		})
	}
	return rep
}

// Marshal encodes the report as indented JSON
func (r *Report) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ResolveOutputDir picks the export folder. An explicit dir wins; otherwise,
// with auto enabled, the folder of the first input path is used.
func ResolveOutputDir(explicit string, auto bool, inputs []string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if auto && len(inputs) > 0 {
		return filepath.Dir(inputs[0]), nil
	}
	return "", ErrNoOutputDir
}

// Export writes thumbnails for every clustered image and the JSON report.
// Each member is scored for sharpness and the sharpest one of a cluster is
// reported as Best. Images that can no longer be read are listed without a
// thumbnail or score.
func (e *Exporter) Export(ctx context.Context, res types.Result, outputDir string) (*Report, error) {
	if outputDir == "" {
		return nil, ErrNoOutputDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	rep := BuildReport(res)
	ext := processing.FormatExtension(e.config.Format)

	// All folders exist before the first worker starts, so an error here
	// leaves no goroutine behind.
	clusterDirs := make([]string, len(rep.Clusters))
	for ci := range rep.Clusters {
		clusterDirs[ci] = filepath.Join(outputDir, fmt.Sprintf("cluster_%03d", ci+1))
		if err := os.MkdirAll(clusterDirs[ci], 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cluster directory: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	for ci := range rep.Clusters {
		clusterDir := clusterDirs[ci]
		for mi := range rep.Clusters[ci].Members {
			member := &rep.Clusters[ci].Members[mi]
			name := fmt.Sprintf("%04d_%s.%s", mi+1, baseName(member.Path), ext)
			target := filepath.Join(clusterDir, name)

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				img, err := e.loader.LoadImage(member.Path)
				if err != nil {
					log.Warn().Err(err).Str("path", member.Path).Msg("no thumbnail for image")
					return nil
				}
				thumb := e.processor.Thumbnail(img, e.config.ThumbnailSize)
				if err := e.processor.SaveImage(thumb, target, e.config.Format, e.config.Quality, false); err != nil {
					return fmt.Errorf("failed to save thumbnail %s: %w", target, err)
				}
				member.Thumbnail = target
				member.Sharpness = e.scorer.Sharpness(img)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for ci := range rep.Clusters {
		rep.Clusters[ci].Best = bestMember(rep.Clusters[ci].Members)
	}

	data, err := rep.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, ReportFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	log.Debug().Str("dir", outputDir).Int("clusters", rep.ClusterCount).Msg("export written")
	return rep, nil
}

// bestMember returns the path of the sharpest member that was exported
func bestMember(members []Member) string {
	var paths []string
	var scores []float64
	for _, m := range members {
		if m.Thumbnail == "" {
			continue
		}
		paths = append(paths, m.Path)
		scores = append(scores, m.Sharpness)
	}
	if i := vision.Best(scores); i >= 0 {
		return paths[i]
	}
	return ""
}

// baseName extracts the base filename without extension
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Package cluster groups photos into near-duplicate clusters.
//
// Clustering is a single greedy pass over the input. Each image is compared
// with the representative (first member) of every existing cluster in
// creation order and joins the first one it is similar to; if none matches
// it starts a new cluster. Membership is never revisited, so the result
// depends on input order.
package cluster

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/photo-assistant/pkg/analyzer"
	"github.com/menta2k/photo-assistant/pkg/processing"
	"github.com/menta2k/photo-assistant/pkg/similarity"
	"github.com/menta2k/photo-assistant/pkg/types"
)

// Loader decodes an image file
type Loader interface {
	LoadImage(path string) (image.Image, error)
}

// Comparer decides whether a candidate matches a representative
type Comparer interface {
	Similar(candidate, representative *processing.Canonical) (bool, error)
}

// ProgressFunc is called after each input image has been placed or rejected
type ProgressFunc func(done, total int)

// Config holds the clustering parameters
type Config struct {
	Threshold       float64
	Metric          similarity.Metric
	CanonicalWidth  int
	CanonicalHeight int
}

// DefaultConfig returns threshold 15, CIEDE2000 and a 200x200 canonical grid
func DefaultConfig() Config {
	return Config{
		Threshold:       similarity.DefaultThreshold,
		Metric:          similarity.DefaultMetric,
		CanonicalWidth:  processing.DefaultCanonicalWidth,
		CanonicalHeight: processing.DefaultCanonicalHeight,
	}
}

// Clusterer runs the greedy clustering pass. It keeps no state between
// calls, so one Clusterer may serve sequential runs.
type Clusterer struct {
	loader    Loader
	processor *processing.Processor
	comparer  Comparer
	width     int
	height    int
	progress  ProgressFunc
}

// New creates a Clusterer with default configuration
func New() *Clusterer {
	return NewWithConfig(DefaultConfig(), analyzer.New(), processing.NewProcessor())
}

// NewWithConfig creates a Clusterer from explicit parts. A threshold of
// zero or below and a missing metric or size fall back to the defaults.
func NewWithConfig(cfg Config, loader Loader, processor *processing.Processor) *Clusterer {
	if cfg.Threshold <= 0 {
		cfg.Threshold = similarity.DefaultThreshold
	}
	if cfg.Metric == "" {
		cfg.Metric = similarity.DefaultMetric
	}
	if cfg.CanonicalWidth < 1 {
		cfg.CanonicalWidth = processing.DefaultCanonicalWidth
	}
	if cfg.CanonicalHeight < 1 {
		cfg.CanonicalHeight = processing.DefaultCanonicalHeight
	}
	return &Clusterer{
		loader:    loader,
		processor: processor,
		comparer:  &similarity.Comparator{Threshold: cfg.Threshold, Metric: cfg.Metric},
		width:     cfg.CanonicalWidth,
		height:    cfg.CanonicalHeight,
	}
}

// SetComparer replaces the similarity predicate
func (c *Clusterer) SetComparer(comparer Comparer) {
	c.comparer = comparer
}

// SetProgress installs a progress callback
func (c *Clusterer) SetProgress(fn ProgressFunc) {
	c.progress = fn
}

// Cluster partitions paths into clusters of similar images.
//
// Images that cannot be loaded are left out and reported in Result.Errors;
// the run then finishes with StatusPartial. A failed comparison against
// one representative counts as "not similar" for that pair only. The
// context is checked before each image.
func (c *Clusterer) Cluster(ctx context.Context, paths []string) (types.Result, error) {
	start := time.Now()
	res := types.Result{
		ID:       uuid.NewString(),
		Status:   types.StatusDone,
		Clusters: types.ClusterSet{},
		Total:    len(paths),
	}
	logger := log.With().Str("run", res.ID).Logger()

	if len(paths) == 0 {
		res.Status = types.StatusEmpty
		logger.Debug().Msg("nothing to cluster")
		return res, nil
	}

	// Canonical form of each cluster's representative, indexed like res.Clusters.
	var reps []*processing.Canonical

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Debug().Err(err).Int("done", i).Msg("clustering cancelled")
			return types.Result{}, err
		}

		canon, ierr := c.canonical(path)
		if ierr != nil {
			logger.Warn().Err(ierr.Err).Str("path", path).Str("stage", string(ierr.Stage)).Msg("skipping image")
			res.Errors = append(res.Errors, ierr)
			c.report(i+1, len(paths))
			continue
		}

		placed := false
		for k, rep := range reps {
			ok, err := c.comparer.Similar(canon, rep)
			if err != nil {
				against := res.Clusters[k].Representative()
				logger.Warn().Err(err).Str("path", path).Str("against", against).Msg("comparison failed")
				res.Errors = append(res.Errors, &types.ImageError{
					Path:    path,
					Stage:   types.StageCompare,
					Against: against,
					Err:     err,
				})
				continue
			}
			if ok {
				res.Clusters[k] = append(res.Clusters[k], path)
				placed = true
				break
			}
		}
		if !placed {
			res.Clusters = append(res.Clusters, types.Cluster{path})
			reps = append(reps, canon)
		}

		c.report(i+1, len(paths))
	}

	if len(res.Errors) > 0 {
		res.Status = types.StatusPartial
	}
	res.Duration = time.Since(start)

	logger.Debug().
		Int("images", len(paths)).
		Int("clusters", len(res.Clusters)).
		Int("errors", len(res.Errors)).
		Dur("took", res.Duration).
		Msg("clustering finished")

	return res, nil
}

func (c *Clusterer) canonical(path string) (*processing.Canonical, *types.ImageError) {
	img, err := c.loader.LoadImage(path)
	if err != nil {
		return nil, &types.ImageError{Path: path, Stage: types.StageDecode, Err: err}
	}
	canon, err := c.processor.Canonicalize(img, c.width, c.height)
	if err != nil {
		return nil, &types.ImageError{Path: path, Stage: types.StageCanonicalize, Err: err}
	}
	return canon, nil
}

func (c *Clusterer) report(done, total int) {
	if c.progress != nil {
		c.progress(done, total)
	}
}

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	photoassistant "github.com/menta2k/photo-assistant"
	"github.com/menta2k/photo-assistant/internal/config"
	"github.com/menta2k/photo-assistant/internal/utils"
	"github.com/menta2k/photo-assistant/pkg/analyzer"
	"github.com/menta2k/photo-assistant/pkg/cluster"
	"github.com/menta2k/photo-assistant/pkg/export"
	"github.com/menta2k/photo-assistant/pkg/similarity"
	"github.com/menta2k/photo-assistant/pkg/types"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster <file|dir>...",
	Short: "Group similar photos into clusters",
	Long: `Cluster the given photos. Directories are expanded into the image files
they contain (sorted by name); explicit files are used as given. Each photo
joins the first earlier cluster whose first photo it resembles, or starts a
new cluster.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCluster,
}

func init() {
	registerClusterFlags(clusterCmd)
	rootCmd.AddCommand(clusterCmd)
}

func registerClusterFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", 0, "average Delta-E below which photos are similar (default from config, 15)")
	cmd.Flags().Int("size", 0, "canonical comparison size in pixels, square (default from config, 200)")
	cmd.Flags().String("metric", "", "color difference: cie76, cie94, ciede2000")
	cmd.Flags().String("filter", "", "resample filter: lanczos, catmullrom, mitchellnetravali, linear, box")
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringP("output", "o", "", "output folder for --export (default: folder of the first photo)")
	cmd.Flags().Bool("export", false, "write thumbnails per cluster and clusters.json")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
}

// applyClusterFlags overlays explicitly set flags on cfg
func applyClusterFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("threshold") {
		cfg.Clustering.Threshold = mustGetFloat64(cmd, "threshold")
	}
	if cmd.Flags().Changed("size") {
		size := mustGetInt(cmd, "size")
		cfg.Clustering.CanonicalWidth = size
		cfg.Clustering.CanonicalHeight = size
	}
	if cmd.Flags().Changed("metric") {
		cfg.Clustering.Metric = mustGetString(cmd, "metric")
	}
	if cmd.Flags().Changed("filter") {
		cfg.Clustering.Filter = mustGetString(cmd, "filter")
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Input.Recursive = mustGetBool(cmd, "recursive")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = mustGetString(cmd, "output")
	}
}

// newAssistant builds a PhotoAssistant from a validated config
func newAssistant(cfg *config.Config) (*photoassistant.PhotoAssistant, error) {
	metric, err := similarity.ParseMetric(cfg.Clustering.Metric)
	if err != nil {
		return nil, err
	}

	analyzerConfig := analyzer.DefaultConfig()
	analyzerConfig.SupportedFormats = cfg.Input.SupportedFormats
	analyzerConfig.MinImageSize = cfg.Input.MinImageSize

	clusterConfig := cluster.Config{
		Threshold:       cfg.Clustering.Threshold,
		Metric:          metric,
		CanonicalWidth:  cfg.Clustering.CanonicalWidth,
		CanonicalHeight: cfg.Clustering.CanonicalHeight,
	}

	exportConfig := export.Config{
		ThumbnailSize: cfg.Output.ThumbnailSize,
		Format:        cfg.Output.Format,
		Quality:       cfg.Output.Quality,
		Concurrency:   cfg.Output.Concurrency,
	}

	return photoassistant.NewWithConfig(analyzerConfig, clusterConfig, exportConfig, cfg.Clustering.Filter)
}

func runCluster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyClusterFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	paths, err := utils.ExpandInputs(args, cfg.Input.Recursive, cfg.Input.SupportedFormats...)
	if err != nil {
		return err
	}

	pa, err := newAssistant(cfg)
	if err != nil {
		return err
	}

	jsonOutput := mustGetBool(cmd, "json")
	bar := newClusterProgressBar(len(paths), jsonOutput || mustGetBool(cmd, "no-progress"))
	if bar != nil {
		pa.SetProgress(func(done, total int) {
			_ = bar.Set(done)
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug().Int("images", len(paths)).Float64("threshold", cfg.Clustering.Threshold).Str("metric", cfg.Clustering.Metric).Msg("clustering")

	outcomes, err := pa.ClusterAsync(ctx, paths)
	if err != nil {
		return err
	}
	outcome := <-outcomes
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if outcome.Err != nil {
		return fmt.Errorf("clustering failed: %w", outcome.Err)
	}
	res := outcome.Result

	var rep *export.Report
	if mustGetBool(cmd, "export") && res.Status != types.StatusEmpty {
		dir, err := export.ResolveOutputDir(cfg.Output.Dir, cfg.Output.AutoOutputFolder, paths)
		if err != nil {
			return err
		}
		rep, err = pa.Export(ctx, res, dir)
		if err != nil {
			return err
		}
		log.Info().Str("dir", dir).Msg("clusters exported")
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if rep == nil {
			rep = export.BuildReport(res)
		}
		data, err := rep.Marshal()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	printResult(out, res)
	if rep != nil {
		printBest(out, rep)
	}
	return nil
}

// newClusterProgressBar creates a progress bar for clustering, or nil if hidden.
func newClusterProgressBar(count int, hidden bool) *progressbar.ProgressBar {
	if hidden || count == 0 {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Clustering"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

// printResult writes clusters separated by rules, then the totals
func printResult(w io.Writer, res types.Result) {
	if res.Status == types.StatusEmpty {
		fmt.Fprintln(w, "Nothing to cluster.")
		return
	}

	rule := strings.Repeat("-", 40)
	for i, c := range res.Clusters {
		fmt.Fprintf(w, "Cluster %d (%d photos)\n", i+1, len(c))
		for j, p := range c {
			marker := " "
			if j == 0 {
				marker = "*"
			}
			fmt.Fprintf(w, " %s %s\n", marker, filepath.Base(p))
		}
		fmt.Fprintln(w, rule)
	}

	fmt.Fprintf(w, "%d clusters from %d photos\n", len(res.Clusters), res.Total)
	if len(res.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors: %d\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  - %v\n", e)
		}
	}
}

// printBest lists the sharpest photo of every exported cluster with more
// than one member
func printBest(w io.Writer, rep *export.Report) {
	header := false
	for _, c := range rep.Clusters {
		if len(c.Members) < 2 || c.Best == "" {
			continue
		}
		if !header {
			fmt.Fprintln(w, "\nSharpest per cluster:")
			header = true
		}
		fmt.Fprintf(w, "  Cluster %d: %s\n", c.Index, filepath.Base(c.Best))
	}
}

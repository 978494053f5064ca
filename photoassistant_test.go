package photoassistant

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/menta2k/photo-assistant/pkg/analyzer"
	"github.com/menta2k/photo-assistant/pkg/cluster"
	"github.com/menta2k/photo-assistant/pkg/export"
	"github.com/menta2k/photo-assistant/pkg/types"
)

// createTestImage creates a solid test image with a bright square whose
// position depends on offset
func createTestImage(width, height int, bg color.RGBA, offset int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3+offset && x < 2*width/3+offset && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, bg)
			}
		}
	}

	return img
}

func saveTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixtures(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	green := color.RGBA{30, 140, 60, 255}
	purple := color.RGBA{120, 40, 160, 255}
	return dir, []string{
		saveTestImage(t, dir, "burst_1.png", createTestImage(300, 200, green, 0)),
		saveTestImage(t, dir, "other.png", createTestImage(300, 200, purple, 0)),
		saveTestImage(t, dir, "burst_2.png", createTestImage(300, 200, green, 2)),
	}
}

func TestNew(t *testing.T) {
	pa := New()
	if pa == nil {
		t.Fatal("New() returned nil")
	}
	if pa.analyzer == nil || pa.clusterer == nil || pa.runner == nil || pa.exporter == nil {
		t.Error("component is nil")
	}
}

func TestNewWithConfigRejectsFilter(t *testing.T) {
	_, err := NewWithConfig(analyzer.DefaultConfig(), cluster.DefaultConfig(), export.DefaultConfig(), "nearest")
	if err == nil {
		t.Error("Expected error for nearest-neighbor filter")
	}
}

func TestCluster(t *testing.T) {
	_, paths := fixtures(t)
	pa := New()

	var progress int
	pa.SetProgress(func(done, total int) { progress = done })

	res, err := pa.Cluster(context.Background(), paths)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}
	if res.Status != types.StatusDone {
		t.Errorf("Expected status done, got %s", res.Status)
	}
	if len(res.Clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d: %v", len(res.Clusters), res.Clusters)
	}
	if len(res.Clusters[0]) != 2 || res.Clusters[0][1] != paths[2] {
		t.Errorf("Expected bursts together, got %v", res.Clusters[0])
	}
	if progress != 3 {
		t.Errorf("Expected progress to reach 3, got %d", progress)
	}
}

func TestClusterEmpty(t *testing.T) {
	res, err := New().Cluster(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != types.StatusEmpty || len(res.Clusters) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestClusterAsyncAndExport(t *testing.T) {
	dir, paths := fixtures(t)
	pa := New()

	ch, err := pa.ClusterAsync(context.Background(), paths)
	if err != nil {
		t.Fatalf("ClusterAsync failed: %v", err)
	}

	var res types.Result
	select {
	case o := <-ch:
		if o.Err != nil {
			t.Fatalf("async run failed: %v", o.Err)
		}
		res = o.Result
	case <-time.After(30 * time.Second):
		t.Fatal("timed out")
	}
	if pa.Busy() {
		t.Error("runner should be idle after delivering the outcome")
	}

	out := filepath.Join(dir, "out")
	rep, err := pa.Export(context.Background(), res, out)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if rep.ClusterCount != len(res.Clusters) {
		t.Errorf("Expected %d clusters in report, got %d", len(res.Clusters), rep.ClusterCount)
	}
	if _, err := os.Stat(filepath.Join(out, export.ReportFile)); err != nil {
		t.Errorf("report missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "cluster_001", "0002_burst_2.jpg")); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("Expected %s, got %s", Version, GetVersion())
	}
}

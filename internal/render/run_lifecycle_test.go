package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"montage/internal/history"
	"montage/internal/testsupport"
)

// The stub ffmpeg exits immediately, so the encode sink dies under the first
// frames. The run must fail, record the failure, remove the partial output,
// and release the work directory.
func TestRunRecordsFailureAndCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	editPath := testsupport.WriteEditFile(t, testsupport.MinimalEdit)
	outputPath := filepath.Join(testsupport.BaseDir(cfg), "out.mp4")

	result, err := Run(context.Background(), RunConfig{
		EditPath:      editPath,
		OutputPath:    outputPath,
		WorkDir:       cfg.Paths.WorkDir,
		HistoryDB:     cfg.Paths.HistoryDB,
		FFmpegBinary:  cfg.Tools.FFmpeg,
		FFprobeBinary: cfg.Tools.FFprobe,
		Grace:         time.Second,
		Fallback: Options{
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
			FPS:    cfg.Render.FPS,
		},
		AudioEnabled: cfg.Audio.Enabled,
	})
	if err == nil {
		t.Fatal("expected run against stub ffmpeg to fail")
	}
	if result.RunID == "" {
		t.Fatal("failed run should still carry a run id")
	}

	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Errorf("partial output should be removed: %v", statErr)
	}

	store, openErr := history.Open(cfg.Paths.HistoryDB)
	if openErr != nil {
		t.Fatalf("open history: %v", openErr)
	}
	defer store.Close()
	run, found, getErr := store.Get(context.Background(), result.RunID)
	if getErr != nil || !found {
		t.Fatalf("history row missing: found=%v err=%v", found, getErr)
	}
	if run.Status != history.StatusFailed {
		t.Errorf("status = %q, want %q", run.Status, history.StatusFailed)
	}
	if run.Error == "" {
		t.Error("failure reason not recorded")
	}

	// Scratch directories are cleaned after the run.
	entries, readErr := os.ReadDir(filepath.Join(cfg.Paths.WorkDir, "runs"))
	if readErr == nil && len(entries) != 0 {
		t.Errorf("scratch not cleaned: %d entries remain", len(entries))
	}
}

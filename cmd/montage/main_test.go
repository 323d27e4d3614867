package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"montage/internal/services/ffmpeg"
	"montage/internal/timeline"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	want := []string{"render", "probe", "history", "config"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing %q subcommand", name)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"1", "2"}, {"3"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "A") || !strings.Contains(out, "3") {
		t.Errorf("table output missing cells:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("empty headers should render nothing")
	}
}

func TestProbeRow(t *testing.T) {
	row := probeRow("clip.mp4", ffmpeg.Info{
		DurationSeconds: 12.5,
		Width:           1920,
		Height:          1080,
		FPS:             29.97,
		HasVideo:        true,
		HasAudio:        true,
	})
	if row[0] != "clip.mp4" {
		t.Errorf("path column = %q", row[0])
	}
	if row[2] != "1920x1080" {
		t.Errorf("size column = %q", row[2])
	}
	if row[4] != "video+audio" {
		t.Errorf("streams column = %q", row[4])
	}

	audioOnly := probeRow("song.mp3", ffmpeg.Info{DurationSeconds: 3, HasAudio: true})
	if audioOnly[2] != "-" || audioOnly[4] != "audio" {
		t.Errorf("audio-only row = %v", audioOnly)
	}
}

func TestTimelineRows(t *testing.T) {
	tl, err := timeline.Parse([]byte(`
width = 640
height = 360
fps = 10.0

[[clips]]
duration = 2.0

  [[clips.layers]]
  type = "fill-color"
  color = "#102030"

  [clips.transition]
  name = "fade"
  duration = 1.0

[[clips]]
duration = 3.0

  [[clips.layers]]
  type = "linear-gradient"

  [[clips.layers]]
  type = "title"
  text = "Hi"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rows := timelineRows(tl)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	first := rows[0]
	if first[1] != "2s" || first[2] != "20" {
		t.Errorf("first clip duration/frames = %q/%q", first[1], first[2])
	}
	if first[4] != "fade 1s" {
		t.Errorf("transition column = %q", first[4])
	}
	// fade of 10 frames between 20- and 30-frame clips clamps to 5.
	if first[5] != "5" {
		t.Errorf("overlap column = %q", first[5])
	}
	last := rows[1]
	if last[3] != "linear-gradient, title" {
		t.Errorf("layers column = %q", last[3])
	}
	if last[4] != "-" || last[5] != "-" {
		t.Errorf("final clip transition/overlap = %q/%q", last[4], last[5])
	}
}

func TestTransitionSummary(t *testing.T) {
	if got := transitionSummary(nil); got != "cut" {
		t.Errorf("nil transition = %q", got)
	}
	if got := transitionSummary(&timeline.Transition{Name: timeline.TransitionCut, Duration: 2}); got != "cut" {
		t.Errorf("explicit cut = %q", got)
	}
	if got := transitionSummary(&timeline.Transition{Name: timeline.TransitionWipeLeft, Duration: 0.5}); got != "wipe-left 0.5s" {
		t.Errorf("wipe = %q", got)
	}
}

func TestDisplayStatus(t *testing.T) {
	if got := displayStatus("completed"); got != "Completed" {
		t.Errorf("displayStatus = %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestConfigValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[render]\nwidth = 640\nheight = 360\nfps = 30.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newConfigValidateCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(buf.String(), "is valid") {
		t.Errorf("output = %q", buf.String())
	}
	if !strings.Contains(buf.String(), "640x360") {
		t.Errorf("output missing raster: %q", buf.String())
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cmd := newConfigInitCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--path", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(raw), "[tools]") {
		t.Error("sample missing tools section")
	}

	// Second init against the same path must refuse.
	again := newConfigInitCommand()
	again.SetOut(&buf)
	again.SetErr(&buf)
	again.SetArgs([]string{"--path", path})
	if err := again.Execute(); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestRenderCommandRequiresOutput(t *testing.T) {
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"render", "edit.toml"})
	if err := root.Execute(); err == nil {
		t.Fatal("render without --output should fail")
	}
}

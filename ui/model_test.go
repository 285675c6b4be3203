package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/lepinkainen/rasterproj/batch"
	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/raster/rastertest"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func scriptedRun() []batch.Event {
	a := raster.Job{Input: "/in/a.tif", Output: "/out/a_reprojected.tif"}
	b := raster.Job{Input: "/in/b.tif", Output: "/out/b_reprojected.tif"}
	failed := raster.Result{Job: b, Outcome: raster.Failed, Error: errors.Join(raster.ErrRead, errors.New("not a tiff"))}
	ok := raster.Result{Job: a, Outcome: raster.Success}
	return []batch.Event{
		{Kind: batch.EventBatchStarted, Total: 2, Message: "Reprojecting 2 files"},
		{Kind: batch.EventJobStarted, Index: 1, Total: 2, Job: a},
		{Kind: batch.EventJobProgress, Index: 1, Total: 2, Job: a, Band: 1, Bands: 3},
		{Kind: batch.EventJobFinished, Index: 1, Total: 2, Job: a, Result: &ok},
		{Kind: batch.EventJobStarted, Index: 2, Total: 2, Job: b},
		{Kind: batch.EventJobWarning, Index: 2, Total: 2, Job: b, Level: batch.LevelWarn, Message: "Output exists, overwriting"},
		{Kind: batch.EventJobFinished, Index: 2, Total: 2, Job: b, Result: &failed, Level: batch.LevelError},
		{Kind: batch.EventSummary, Total: 2, Message: "Processed 2 files", Summary: &batch.Summary{Total: 2, Success: 1, Failed: 1}},
	}
}

func scriptedStart(calls *int) StartFunc {
	return func() <-chan batch.Event {
		*calls++
		events := scriptedRun()
		ch := make(chan batch.Event, len(events))
		for _, ev := range events {
			ch <- ev
		}
		close(ch)
		return ch
	}
}

// step feeds the result of cmd back into the model once
func step(t *testing.T, m BatchModel, cmd tea.Cmd) (BatchModel, tea.Cmd, tea.Msg) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	next, c := m.Update(msg)
	return next.(BatchModel), c, msg
}

// drain runs cmd until the event stream closes
func drain(t *testing.T, m BatchModel, cmd tea.Cmd) BatchModel {
	t.Helper()
	for cmd != nil {
		var msg tea.Msg
		m, cmd, msg = step(t, m, cmd)
		if _, ok := msg.(RunClosedMsg); ok {
			break
		}
	}
	return m
}

func press(m BatchModel, k string) (BatchModel, tea.Cmd) {
	next, cmd := m.Update(key(k))
	return next.(BatchModel), cmd
}

func TestBatchModelStartKeyDisabledWhileRunning(t *testing.T) {
	calls := 0
	m := NewBatchModel(scriptedStart(&calls), false, "test")

	if cmd := m.Init(); cmd != nil {
		t.Error("Expected no initial command without auto start")
	}

	m, cmd := press(m, "s")
	if !m.Running() || calls != 1 {
		t.Fatalf("Expected run to start, running=%v calls=%d", m.Running(), calls)
	}

	m, cmd, _ = step(t, m, cmd)

	// start again mid-run is ignored
	m2, extra := press(m, "s")
	if extra != nil || calls != 1 || !m2.Running() {
		t.Errorf("Expected start key to be ignored while running, calls=%d", calls)
	}

	// quitting mid-run is refused too
	m2, quit := press(m2, "q")
	if quit != nil || m2.quitting {
		t.Error("Expected quit to be refused while running")
	}
	if !strings.Contains(m2.View(), "cannot be cancelled") {
		t.Error("Expected the view to explain why quit was refused")
	}

	m = drain(t, m, cmd)
	if m.Running() {
		t.Error("Expected run to be finished after the summary")
	}
	if s := m.Summary(); s == nil || s.Total != 2 || s.Failed != 1 {
		t.Errorf("Unexpected summary: %+v", s)
	}

	// start is enabled again
	m, cmd = press(m, "s")
	if calls != 2 || !m.Running() {
		t.Errorf("Expected a second run after the summary, calls=%d", calls)
	}
	m = drain(t, m, cmd)
	if m.runs != 2 {
		t.Errorf("Expected 2 runs, got %d", m.runs)
	}
}

func TestBatchModelTracksEvents(t *testing.T) {
	calls := 0
	m := NewBatchModel(scriptedStart(&calls), true, "test")

	first := m.Init()
	if first == nil {
		t.Fatal("Expected auto start command")
	}
	m, cmd, _ := step(t, m, first)

	// batch started, job started, progress
	for i := 0; i < 3; i++ {
		m, cmd, _ = step(t, m, cmd)
	}
	if m.currentFile != "a.tif" || m.band != 1 || m.bands != 3 {
		t.Errorf("Expected band progress for a.tif, got %q %d/%d", m.currentFile, m.band, m.bands)
	}
	if !strings.Contains(m.View(), "band 1/3") {
		t.Error("Expected band progress in the view")
	}

	m = drain(t, m, cmd)

	if len(m.entries) != 2 {
		t.Fatalf("Expected 2 file entries, got %d", len(m.entries))
	}
	if m.entries[0].Outcome != raster.Success {
		t.Errorf("Expected first entry to succeed, got %v", m.entries[0].Outcome)
	}
	if !strings.Contains(m.entries[1].Description(), "ReadError") {
		t.Errorf("Expected failure description to name the error kind, got %q", m.entries[1].Description())
	}
	if len(m.warnings) != 1 {
		t.Errorf("Expected 1 warning, got %d", len(m.warnings))
	}
	if m.finished != 2 || m.total != 2 {
		t.Errorf("Expected 2/2 finished, got %d/%d", m.finished, m.total)
	}

	view := m.View()
	if !strings.Contains(view, "1 reprojected, 0 skipped, 1 failed of 2") {
		t.Errorf("Expected summary in view, got:\n%s", view)
	}

	next, quit := m.Update(key("q"))
	if quit == nil || !next.(BatchModel).quitting {
		t.Error("Expected quit once idle")
	}
}

func TestBatchModelWarningsAreCapped(t *testing.T) {
	m := NewBatchModel(nil, false, "test")
	for i := 0; i < maxWarnings+3; i++ {
		m.apply(batch.Event{Kind: batch.EventJobWarning, Message: string(rune('a' + i))})
	}
	if len(m.warnings) != maxWarnings {
		t.Fatalf("Expected %d warnings, got %d", maxWarnings, len(m.warnings))
	}
	if m.warnings[0] != "d" {
		t.Errorf("Expected oldest warnings to be dropped, first is %q", m.warnings[0])
	}

	// nil start never runs
	m, cmd := press(m, "s")
	if cmd != nil || m.Running() {
		t.Error("Expected no run without a start function")
	}
}

func TestBatchModelWithOrchestrator(t *testing.T) {
	backend := rastertest.New()
	inDir, outDir := t.TempDir(), t.TempDir()
	var inputs []string
	for _, name := range []string{"a.tif", "b.tif"} {
		path := filepath.Join(inDir, name)
		if err := backend.AddRaster(path, rastertest.Meta(rastertest.WebMercator, 1)); err != nil {
			t.Fatal(err)
		}
		inputs = append(inputs, path)
	}
	req, err := batch.NewRequest(inputs, outDir, rastertest.WGS84, raster.Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	orch := batch.NewOrchestrator(raster.NewReprojector(backend, zerolog.Nop()), zerolog.Nop(), batch.Options{})

	start := func() <-chan batch.Event {
		sink := batch.NewChannelSink(0)
		orch.Start(req, sink)
		return sink.Events()
	}

	m := NewBatchModel(start, true, "test")
	m = drain(t, m, m.Init())

	if s := m.Summary(); s == nil || s.Success != 2 {
		t.Fatalf("Expected 2 successes, got %+v", s)
	}
	if m.Running() {
		t.Error("Expected model to be idle after the run")
	}
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"logsift/internal/analyzer"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	store := NewRunStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testStats() *analyzer.Stats {
	return &analyzer.Stats{
		TotalEntries:     10,
		MalformedEntries: 2,
		LevelCounts: map[string]analyzer.LevelCount{
			"INFO":  {Count: 7, Percentage: 70.0},
			"ERROR": {Count: 3, Percentage: 30.0},
		},
		TopIPs: []analyzer.RankedItem{
			{Value: "10.0.0.1", Count: 6, Percentage: 60.0},
		},
		FlaggedIPs: []analyzer.FlaggedIP{
			{IP: "10.0.0.1", ErrorCount: 3, TotalRequests: 6, ErrorRate: 50.0},
		},
		StatusCodes:    map[string]int{"200": 7, "500": 3},
		ErrorThreshold: 2,
		TopN:           10,
	}
}

func TestRunStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveRun(ctx, testStats(), "access.log")
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatal("SaveRun returned empty id")
	}

	run, stats, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Source != "access.log" {
		t.Errorf("Source = %q, want %q", run.Source, "access.log")
	}
	if run.TotalEntries != 10 || run.Malformed != 2 {
		t.Errorf("counts = (%d, %d), want (10, 2)", run.TotalEntries, run.Malformed)
	}
	if run.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3", run.ErrorCount)
	}
	if run.FlaggedIPs != 1 {
		t.Errorf("FlaggedIPs = %d, want 1", run.FlaggedIPs)
	}
	if stats.StatusCodes["500"] != 3 {
		t.Errorf("restored stats StatusCodes = %v", stats.StatusCodes)
	}
	if len(stats.TopIPs) != 1 || stats.TopIPs[0].Value != "10.0.0.1" {
		t.Errorf("restored stats TopIPs = %+v", stats.TopIPs)
	}
}

func TestRunStore_GetByPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveRun(ctx, testStats(), "a.log")
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, _, err := store.GetRun(ctx, id[:8])
	if err != nil {
		t.Fatalf("GetRun by prefix: %v", err)
	}
	if run.ID != id {
		t.Errorf("ID = %q, want %q", run.ID, id)
	}
}

func TestRunStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.GetRun(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestRunStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, source := range []string{"a.log", "b.log", "c.log"} {
		if _, err := store.SaveRun(ctx, testStats(), source); err != nil {
			t.Fatalf("SaveRun(%s): %v", source, err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}

	runs, err = store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns limit: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("len(runs) = %d, want 2", len(runs))
	}
}

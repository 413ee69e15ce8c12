package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/wcagscan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// createTestRun creates a run with one passing and one failing target.
func createTestRun(started time.Time) *model.RunReport {
	clean := model.NewScanResult("https://a.test")
	clean.ScannedAt = started.Add(time.Second)

	dirty := model.NewScanResult("https://b.test")
	dirty.ScannedAt = started.Add(2 * time.Second)
	dirty.Violations = []model.Finding{
		{RuleID: "image-alt", Impact: model.ImpactCritical, Elements: []string{"img"}},
		{RuleID: "color-contrast", Impact: model.ImpactSerious, Elements: []string{"p"}},
		{RuleID: "label", Impact: model.ImpactCritical, Elements: []string{"input"}},
	}

	return &model.RunReport{
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Results:    []model.ScanResult{*clean, *dirty},
		Outcomes: []model.TestOutcome{
			{Title: "Check accessibility for https://a.test", URL: "https://a.test", Status: model.StatusPassed},
			{Title: "Check accessibility for https://b.test", URL: "https://b.test", Status: model.StatusFailed, FailureMessages: []string{"3 violations"}},
			{Title: "Check accessibility for https://c.test", URL: "https://c.test", Status: model.StatusFailed, FailureMessages: []string{"navigation failed"}},
		},
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dbDir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveRun tests storing and reading back runs.
func TestSaveRun(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		run := createTestRun(started)

		id, err := db.SaveRun(ctx, run)
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		got, err := db.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if diff := cmp.Diff(run, got); diff != "" {
			t.Errorf("run mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		_, err := db.GetRun(context.Background(), 42)
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

// TestListRuns tests run listing order, counters and limits.
func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	for i := range 3 {
		if _, err := db.SaveRun(ctx, createTestRun(base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	tests := []struct {
		name      string
		limit     int
		wantCount int
	}{
		{name: "all runs", limit: 0, wantCount: 3},
		{name: "limited", limit: 2, wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runs, err := db.ListRuns(ctx, tt.limit)
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != tt.wantCount {
				t.Fatalf("got %d runs, want %d", len(runs), tt.wantCount)
			}

			latest := runs[0]
			if !latest.StartedAt.Equal(base.Add(2 * time.Hour)) {
				t.Errorf("latest run started at %v", latest.StartedAt)
			}
			if latest.Tests != 3 || latest.Failures != 2 || latest.Violations != 3 {
				t.Errorf("counters = %d/%d/%d, want 3/2/3", latest.Tests, latest.Failures, latest.Violations)
			}
		})
	}
}

// TestTargetHistory tests the per-URL index.
func TestTargetHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	firstID, err := db.SaveRun(ctx, createTestRun(started))
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	secondID, err := db.SaveRun(ctx, createTestRun(started.Add(time.Hour)))
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	t.Run("lists targets", func(t *testing.T) {
		t.Parallel()

		urls, err := db.ListTargets(ctx)
		if err != nil {
			t.Fatalf("failed to list targets: %v", err)
		}
		want := []string{"https://a.test", "https://b.test", "https://c.test"}
		if diff := cmp.Diff(want, urls); diff != "" {
			t.Errorf("targets mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("scanned target", func(t *testing.T) {
		t.Parallel()

		records, err := db.TargetHistory(ctx, "https://b.test")
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		if records[0].RunID != secondID || records[1].RunID != firstID {
			t.Errorf("records not newest first: %d, %d", records[0].RunID, records[1].RunID)
		}

		want := TargetRecord{
			RunID:         secondID,
			URL:           "https://b.test",
			Status:        model.StatusFailed,
			Violations:    3,
			ImpactSummary: map[string]int{"critical": 2, "serious": 1},
			TestedAt:      started.Add(time.Hour + 2*time.Second),
		}
		if diff := cmp.Diff(want, records[0]); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("target that was never scanned", func(t *testing.T) {
		t.Parallel()

		records, err := db.TargetHistory(ctx, "https://c.test")
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		if records[0].Violations != 0 || len(records[0].ImpactSummary) != 0 {
			t.Errorf("unexpected record: %+v", records[0])
		}
		if !records[0].TestedAt.Equal(started.Add(time.Hour)) {
			t.Errorf("TestedAt = %v, want run start", records[0].TestedAt)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()

		records, err := db.TargetHistory(ctx, "https://unknown.test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})
}

// TestParseTimestamp tests tolerant timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "RFC3339Nano", input: "2026-03-04T05:06:07.5Z", want: time.Date(2026, 3, 4, 5, 6, 7, 500000000, time.UTC)},
		{name: "SQLite default", input: "2026-03-04 05:06:07", want: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)},
		{name: "invalid", input: "yesterday", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

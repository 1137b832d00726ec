package predlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCSVStore_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waste_log.csv")
	store := NewCSVStore(path)
	ctx := context.Background()

	e := Entry{Timestamp: time.Now(), ServiceLabel: "crm", Cost: 100, Prediction: 0.4}
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)

	if n := strings.Count(content, "date,service_label,cost,prediction"); n != 1 {
		t.Errorf("expected exactly one header row, found %d", n)
	}
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header + 2 rows, got %d lines", len(lines))
	}
}

func TestCSVStore_RecentNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waste_log.csv")
	store := NewCSVStore(path)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := Entry{
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			ServiceLabel: "svc",
			Cost:         float64(i),
			Prediction:   float64(i) / 10,
		}
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Cost != 4 || entries[2].Cost != 2 {
		t.Errorf("entries not newest-first: %+v", entries)
	}
}

func TestCSVStore_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waste_log.csv")
	store := NewCSVStore(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Append(ctx, Entry{Timestamp: time.Now(), ServiceLabel: "crm"})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("cancelled append must not create the log file")
	}

	if _, err := store.Recent(ctx, 10); err == nil {
		t.Error("expected error from cancelled context on Recent")
	}
}

func TestCSVStore_RecentOnMissingFile(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "never_written.csv"))

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent on missing file: %v", err)
	}
	if entries != nil {
		t.Errorf("expected no entries, got %+v", entries)
	}
}

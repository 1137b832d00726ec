// internal/predlog/csv.go
package predlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{"date", "service_label", "cost", "prediction"}

// CSVStore appends prediction entries to a local CSV file. The header
// row is written exactly once, when the file is first created.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore creates a CSV-backed prediction log at path. The file is
// created lazily on first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Append writes one entry. Appends are serialized so concurrent
// requests never interleave rows. A cancelled context aborts before
// the file is touched.
func (s *CSVStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640) // #nosec G304 - path comes from operator config
	if err != nil {
		return fmt.Errorf("open prediction log: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat prediction log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write log header: %w", err)
		}
	}
	row := []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.ServiceLabel,
		strconv.FormatFloat(e.Cost, 'f', -1, 64),
		strconv.FormatFloat(e.Prediction, 'f', -1, 64),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("append log row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Recent reads back up to n entries, newest first. Unparseable rows
// are skipped; an audit log read should not fail because one row was
// hand-edited.
func (s *CSVStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path) // #nosec G304 - path comes from operator config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open prediction log: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read prediction log: %w", err)
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			continue
		}
		cost, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue
		}
		pred, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Timestamp:    ts,
			ServiceLabel: row[1],
			Cost:         cost,
			Prediction:   pred,
		})
	}

	// Newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

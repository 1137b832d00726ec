// internal/predlog/predlog.go
package predlog

import (
	"context"
	"time"
)

// Entry is one scored prediction, appended after every successful
// scoring. Entries are never updated or deleted here; retention is an
// operational concern.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	ServiceLabel string    `json:"service_label"`
	Cost         float64   `json:"cost"`
	Prediction   float64   `json:"prediction"`
}

// Store is an append-only prediction log. Append order is the only
// ordering guarantee between entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
}

// internal/model/artifact.go
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save persists the model as a JSON artifact. The write goes to a temp
// file in the target directory first and is renamed into place, so a
// failed or concurrent run never leaves readers with a half-written
// artifact.
func (m *WasteModel) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Load reads a persisted artifact. Missing or corrupt artifacts return
// ErrModelUnavailable (wrapped) — the caller decides whether that is
// fatal; the serving process treats it as "no model loaded".
func Load(path string) (*WasteModel, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from operator config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no artifact at %s", ErrModelUnavailable, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}

	var m WasteModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: corrupt artifact %s: %v", ErrModelUnavailable, path, err)
	}
	if m.InputWidth <= 0 || len(m.Trees) == 0 {
		return nil, fmt.Errorf("%w: artifact %s has no trained trees", ErrModelUnavailable, path)
	}
	return &m, nil
}

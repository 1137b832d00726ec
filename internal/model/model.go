// internal/model/model.go
package model

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientData means fit was called with no usable rows or
	// mismatched features/targets.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrShapeMismatch means a feature vector's width disagrees with
	// the width the model was trained on.
	ErrShapeMismatch = errors.New("feature width mismatch")

	// ErrModelUnavailable means no artifact could be loaded. Callers
	// must treat this as "no model", not crash.
	ErrModelUnavailable = errors.New("model unavailable")
)

// Mode selects what a trained model emits.
type Mode string

const (
	// ModeRegression emits a continuous non-negative waste score.
	ModeRegression Mode = "regression"
	// ModeClassification emits a binary label, 1 = waste detected.
	ModeClassification Mode = "classification"
)

// WasteModel is a bagged ensemble of regression trees over a
// fixed-width feature vector. Once fitted (or loaded) it is immutable;
// concurrent Predict calls need no synchronization. Retraining always
// produces a new artifact.
type WasteModel struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	FeatureNames []string  `json:"feature_names"`
	InputWidth   int       `json:"input_width"`
	Mode         Mode      `json:"mode"`
	// Threshold is the decision boundary baked in at training time for
	// classification mode. It is never re-derived at serving time.
	Threshold float64 `json:"threshold"`
	Trees     []*tree `json:"trees"`
}

// FitConfig controls training. Zero values fall back to defaults.
type FitConfig struct {
	Mode         Mode
	FeatureNames []string
	NumTrees     int
	MaxDepth     int
	MinLeaf      int
	Seed         int64
}

func (c *FitConfig) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeRegression
	}
	if c.NumTrees == 0 {
		c.NumTrees = 100
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 8
	}
	if c.MinLeaf == 0 {
		c.MinLeaf = 2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Fit trains a new model. Randomness (bootstrap sampling, feature
// subsetting) is driven entirely by cfg.Seed, so the same inputs and
// config always produce the same artifact.
func Fit(feats [][]float64, targets []float64, cfg FitConfig) (*WasteModel, error) {
	if len(feats) == 0 || len(feats) != len(targets) {
		return nil, fmt.Errorf("%w: %d feature rows, %d targets", ErrInsufficientData, len(feats), len(targets))
	}
	width := len(feats[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: empty feature vectors", ErrInsufficientData)
	}
	for i, row := range feats {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}

	cfg.applyDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &WasteModel{
		Version:      uuid.New().String(),
		TrainedAt:    time.Now().UTC(),
		FeatureNames: cfg.FeatureNames,
		InputWidth:   width,
		Mode:         cfg.Mode,
		Threshold:    0.5,
		Trees:        make([]*tree, 0, cfg.NumTrees),
	}

	for i := 0; i < cfg.NumTrees; i++ {
		sampleX, sampleY := bootstrap(feats, targets, rng)
		t := growTree(sampleX, sampleY, cfg.MaxDepth, cfg.MinLeaf, rng)
		m.Trees = append(m.Trees, t)
	}

	return m, nil
}

// bootstrap draws len(feats) rows with replacement.
func bootstrap(feats [][]float64, targets []float64, rng *rand.Rand) ([][]float64, []float64) {
	n := len(feats)
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		x[i] = feats[j]
		y[i] = targets[j]
	}
	return x, y
}

// Predict scores each vector, preserving input order. The output is
// deterministic for a given loaded artifact.
func (m *WasteModel) Predict(feats [][]float64) ([]float64, error) {
	out := make([]float64, len(feats))
	for i, row := range feats {
		if len(row) != m.InputWidth {
			return nil, fmt.Errorf("%w: got %d features, model trained on %d", ErrShapeMismatch, len(row), m.InputWidth)
		}
		sum := 0.0
		for _, t := range m.Trees {
			sum += t.predict(row)
		}
		score := sum / float64(len(m.Trees))
		if m.Mode == ModeClassification {
			if score >= m.Threshold {
				score = 1
			} else {
				score = 0
			}
		}
		out[i] = score
	}
	return out, nil
}

// PredictOne scores a single vector.
func (m *WasteModel) PredictOne(row []float64) (float64, error) {
	out, err := m.Predict([][]float64{row})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

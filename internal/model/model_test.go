package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trainingSet is a small synthetic dataset: target rises with usage
// frequency and falls with cost, the shape the waste score follows.
func trainingSet() ([][]float64, []float64) {
	feats := [][]float64{
		{10, 0.1, 500},
		{20, 0.2, 400},
		{30, 0.5, 300},
		{40, 1.0, 200},
		{50, 1.5, 150},
		{60, 2.0, 100},
		{70, 2.5, 80},
		{80, 3.0, 50},
		{90, 3.5, 40},
		{100, 4.0, 20},
		{15, 0.05, 600},
		{25, 0.3, 350},
		{55, 1.8, 120},
		{85, 3.2, 45},
	}
	targets := make([]float64, len(feats))
	for i, f := range feats {
		targets[i] = f[1] / f[2] * 100
	}
	return feats, targets
}

func TestFit_RejectsBadInput(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Fit(nil, nil, FitConfig{})
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := Fit([][]float64{{1, 2, 3}}, []float64{1, 2}, FitConfig{})
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("ragged rows", func(t *testing.T) {
		_, err := Fit([][]float64{{1, 2, 3}, {1, 2}}, []float64{1, 2}, FitConfig{})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestFit_IsDeterministicForSeed(t *testing.T) {
	feats, targets := trainingSet()

	m1, err := Fit(feats, targets, FitConfig{NumTrees: 20})
	require.NoError(t, err)
	m2, err := Fit(feats, targets, FitConfig{NumTrees: 20})
	require.NoError(t, err)

	probe := [][]float64{{10, 0.5, 100}, {45, 1.2, 180}}
	p1, err := m1.Predict(probe)
	require.NoError(t, err)
	p2, err := m2.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestPredict_DeterministicAndNonNegative(t *testing.T) {
	feats, targets := trainingSet()
	m, err := Fit(feats, targets, FitConfig{NumTrees: 20})
	require.NoError(t, err)

	probe := []float64{10, 0.5, 100}
	first, err := m.PredictOne(probe)
	require.NoError(t, err)
	second, err := m.PredictOne(probe)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0.0)
}

func TestPredict_ShapeMismatch(t *testing.T) {
	feats, targets := trainingSet()
	m, err := Fit(feats, targets, FitConfig{NumTrees: 5})
	require.NoError(t, err)

	_, err = m.Predict([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = m.Predict([][]float64{{1, 2, 3, 4}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestPredict_PreservesOrder(t *testing.T) {
	feats, targets := trainingSet()
	m, err := Fit(feats, targets, FitConfig{NumTrees: 10})
	require.NoError(t, err)

	batch := [][]float64{{10, 0.1, 500}, {80, 3.0, 50}, {10, 0.1, 500}}
	out, err := m.Predict(batch)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, out[0], out[2])
}

func TestFit_ClassificationMode(t *testing.T) {
	feats := [][]float64{
		{5, 0.01, 900}, {7, 0.02, 800}, {9, 0.03, 850}, {6, 0.01, 950},
		{90, 4.0, 30}, {85, 3.5, 40}, {95, 4.5, 25}, {80, 3.8, 35},
	}
	labels := []float64{1, 1, 1, 1, 0, 0, 0, 0}

	m, err := Fit(feats, labels, FitConfig{Mode: ModeClassification, NumTrees: 20})
	require.NoError(t, err)

	out, err := m.Predict([][]float64{{6, 0.015, 920}, {88, 4.1, 32}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out[0], "idle expensive license should classify as waste")
	assert.Equal(t, 0.0, out[1], "busy cheap license should classify as no waste")
}

func TestErrModelUnavailableIsDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrModelUnavailable, ErrShapeMismatch))
	assert.False(t, errors.Is(ErrInsufficientData, ErrModelUnavailable))
}

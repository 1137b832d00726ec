package training

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise/internal/features"
	"github.com/seatwise/seatwise/internal/model"
)

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const goodDataset = `license_id,service,cost,usage_count,start_date,last_used
lic-1,crm,500,2,01-01-2024,31-01-2024
lic-2,crm,400,15,01-01-2024,31-01-2024
lic-3,design,300,40,01-01-2024,31-01-2024
lic-4,design,200,80,01-01-2024,31-01-2024
lic-5,ide,150,90,01-01-2024,31-01-2024
lic-6,ide,100,120,01-01-2024,31-01-2024
lic-7,chat,80,150,01-01-2024,31-01-2024
lic-8,chat,50,200,01-01-2024,31-01-2024
`

func TestLoadDataset_MissingColumnsListedTogether(t *testing.T) {
	path := writeDataset(t, "bad.csv", "license_id,service,cost\nlic-1,crm,100\n")

	_, err := LoadDataset(path)
	require.Error(t, err)
	require.True(t, IsSchemaError(err))

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.ElementsMatch(t, []string{"usage_count", "start_date", "last_used"}, se.Missing)
}

func TestLoadDataset_EmptyFile(t *testing.T) {
	path := writeDataset(t, "empty.csv", "")
	_, err := LoadDataset(path)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestTrain_WritesArtifact(t *testing.T) {
	data := writeDataset(t, "usage.csv", goodDataset)
	artifact := filepath.Join(t.TempDir(), "waste_model.json")

	p := NewPipeline(zap.NewNop(), model.FitConfig{NumTrees: 10})
	result, err := p.Train(data, artifact)
	require.NoError(t, err)

	assert.Equal(t, 8, result.RowsUsed)
	assert.Equal(t, 0, result.RowsDropped)
	assert.False(t, result.Labeled)
	assert.NotEmpty(t, result.ArtifactVersion)

	m, err := model.Load(artifact)
	require.NoError(t, err)
	assert.Equal(t, result.ArtifactVersion, m.Version)
	assert.Equal(t, 3, m.InputWidth)
	assert.Equal(t, []string{"usage_days", "usage_frequency", "cost"}, m.FeatureNames)
}

func TestTrain_DropsBadRowsAndContinues(t *testing.T) {
	data := writeDataset(t, "partial.csv", goodDataset+
		"lic-9,chat,60,not-a-number,01-01-2024,31-01-2024\n"+
		"lic-10,chat,70,30,garbage,31-01-2024\n")
	artifact := filepath.Join(t.TempDir(), "waste_model.json")

	p := NewPipeline(zap.NewNop(), model.FitConfig{NumTrees: 5})
	result, err := p.Train(data, artifact)
	require.NoError(t, err)

	assert.Equal(t, 8, result.RowsUsed)
	assert.Equal(t, 2, result.RowsDropped)
}

func TestTrain_ZeroSurvivorsFails(t *testing.T) {
	data := writeDataset(t, "hopeless.csv",
		"license_id,service,cost,usage_count,start_date,last_used\n"+
			"lic-1,crm,100,5,garbage,also-garbage\n")
	artifact := filepath.Join(t.TempDir(), "waste_model.json")

	p := NewPipeline(zap.NewNop(), model.FitConfig{})
	_, err := p.Train(data, artifact)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, statErr := os.Stat(artifact)
	assert.True(t, os.IsNotExist(statErr), "failed run must not write an artifact")
}

func TestTrain_FailedRunKeepsPreviousArtifact(t *testing.T) {
	good := writeDataset(t, "usage.csv", goodDataset)
	bad := writeDataset(t, "bad.csv", "license_id,service,cost\nlic-1,crm,100\n")
	artifact := filepath.Join(t.TempDir(), "waste_model.json")

	p := NewPipeline(zap.NewNop(), model.FitConfig{NumTrees: 5})
	first, err := p.Train(good, artifact)
	require.NoError(t, err)

	_, err = p.Train(bad, artifact)
	require.Error(t, err)

	m, err := model.Load(artifact)
	require.NoError(t, err)
	assert.Equal(t, first.ArtifactVersion, m.Version)
}

func TestTrain_LabeledDatasetUsesLabelColumn(t *testing.T) {
	labeled := `license_id,service,cost,usage_count,start_date,last_used,waste_score
lic-1,crm,900,1,01-01-2024,31-01-2024,1
lic-2,crm,850,2,01-01-2024,31-01-2024,1
lic-3,crm,880,1,01-01-2024,31-01-2024,1
lic-4,ide,40,200,01-01-2024,31-01-2024,0
lic-5,ide,30,180,01-01-2024,31-01-2024,0
lic-6,ide,35,220,01-01-2024,31-01-2024,0
`
	data := writeDataset(t, "labeled.csv", labeled)
	artifact := filepath.Join(t.TempDir(), "waste_model.json")

	p := NewPipeline(zap.NewNop(), model.FitConfig{Mode: model.ModeClassification, NumTrees: 15})
	result, err := p.Train(data, artifact)
	require.NoError(t, err)
	assert.True(t, result.Labeled)

	m, err := model.Load(artifact)
	require.NoError(t, err)

	// Expensive-and-idle scores as waste, cheap-and-busy does not.
	out, err := m.Predict([][]float64{{30, 1.0 / 30.0, 870}, {30, 200.0 / 30.0, 32}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out[0])
	assert.Equal(t, 0.0, out[1])
}

func TestTrain_DropsRowsWithUnparseableLabels(t *testing.T) {
	labeled := `license_id,service,cost,usage_count,start_date,last_used,waste_score
lic-1,crm,900,1,01-01-2024,31-01-2024,1
lic-2,crm,850,2,01-01-2024,31-01-2024,not-a-number
lic-3,crm,880,1,01-01-2024,31-01-2024,1
lic-4,ide,40,200,01-01-2024,31-01-2024,0
lic-5,ide,30,180,01-01-2024,31-01-2024,0
lic-6,ide,35,220,01-01-2024,31-01-2024,0
`
	data := writeDataset(t, "labeled.csv", labeled)
	artifact := filepath.Join(t.TempDir(), "waste_model.json")

	p := NewPipeline(zap.NewNop(), model.FitConfig{Mode: model.ModeClassification, NumTrees: 10})
	result, err := p.Train(data, artifact)
	require.NoError(t, err)

	// The garbage label must not train as a fabricated 0.0 target.
	assert.Equal(t, 5, result.RowsUsed)
	assert.Equal(t, 1, result.RowsDropped)
	assert.True(t, result.Labeled)
}

func TestTarget_DerivedConvention(t *testing.T) {
	p := NewPipeline(zap.NewNop(), model.FitConfig{})
	ds := &Dataset{
		Records: []features.UsageRecord{
			{Cost: 200, UsageCount: 50},
			{Cost: 0.5, UsageCount: 10}, // cost floor-clamped to 1
		},
	}

	assert.Equal(t, 50.0/200.0, p.target(ds, 0, features.FeatureVector{}))
	assert.Equal(t, 10.0, p.target(ds, 1, features.FeatureVector{}))

	ds.Labels = []float64{0.7, 0.2}
	assert.Equal(t, 0.7, p.target(ds, 0, features.FeatureVector{}))
}

// internal/training/pipeline.go
package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/seatwise/seatwise/internal/features"
	"github.com/seatwise/seatwise/internal/model"
)

// Required dataset columns. The optional waste_score column switches
// the pipeline from derived targets to explicit labels.
var requiredColumns = []string{
	"license_id", "service", "cost", "usage_count", "start_date", "last_used",
}

const labelColumn = "waste_score"

// SchemaError lists every required column the dataset is missing.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "dataset missing required columns: " + strings.Join(e.Missing, ", ")
}

// Dataset is a parsed training dataset. Labels is nil for unlabeled
// datasets and row-aligned with Records otherwise.
type Dataset struct {
	Records []features.UsageRecord
	Labels  []float64
}

// Result summarizes one training run.
type Result struct {
	ArtifactVersion string
	RowsUsed        int
	RowsDropped     int
	Labeled         bool
}

// Pipeline trains a waste model from a CSV dataset and persists it.
type Pipeline struct {
	logger *zap.Logger
	cfg    model.FitConfig
}

// NewPipeline creates a training pipeline. cfg zero values use the
// model package defaults.
func NewPipeline(logger *zap.Logger, cfg model.FitConfig) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.FeatureNames = features.Names()
	return &Pipeline{logger: logger, cfg: cfg}
}

// LoadDataset reads and schema-checks a CSV dataset. Header names are
// matched case-insensitively. Rows with non-numeric cost or
// usage_count fail later, during derivation, under the
// drop-and-continue policy.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from operator input
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", model.ErrInsufficientData)
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	labelIdx, labeled := col[labelColumn]

	ds := &Dataset{}
	if labeled {
		ds.Labels = make([]float64, 0, len(rows)-1)
	}
	for _, row := range rows[1:] {
		rec := features.UsageRecord{
			LicenseID: row[col["license_id"]],
			Service:   row[col["service"]],
			StartDate: row[col["start_date"]],
			LastUsed:  row[col["last_used"]],
		}
		// Unparseable numerics become negative sentinels so the
		// deriver rejects the row instead of the loader aborting.
		rec.Cost = parseFloatOr(row[col["cost"]], -1)
		rec.UsageCount = parseIntOr(row[col["usage_count"]], -1)
		ds.Records = append(ds.Records, rec)

		if labeled {
			// An unparseable label is NaN so the row is dropped during
			// training instead of learning a fabricated target.
			ds.Labels = append(ds.Labels, parseFloatOr(row[labelIdx], math.NaN()))
		}
	}
	return ds, nil
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseIntOr(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return v
}

// Train runs the full pipeline: load, derive with drop-and-continue,
// fit, persist atomically. A failed run never disturbs a previously
// written artifact.
func (p *Pipeline) Train(datasetPath, artifactPath string) (*Result, error) {
	ds, err := LoadDataset(datasetPath)
	if err != nil {
		return nil, err
	}
	return p.TrainDataset(ds, artifactPath)
}

// TrainDataset fits and persists a model from an in-memory dataset.
func (p *Pipeline) TrainDataset(ds *Dataset, artifactPath string) (*Result, error) {
	vectors, errs := features.DeriveEach(ds.Records)

	var feats [][]float64
	var targets []float64
	dropped := 0
	for i := range ds.Records {
		if errs[i] != nil {
			dropped++
			p.logger.Warn("dropping dataset row",
				zap.Int("row", i),
				zap.String("license_id", ds.Records[i].LicenseID),
				zap.Error(errs[i]))
			continue
		}
		if ds.Labels != nil && math.IsNaN(ds.Labels[i]) {
			dropped++
			p.logger.Warn("dropping dataset row",
				zap.Int("row", i),
				zap.String("license_id", ds.Records[i].LicenseID),
				zap.String("reason", "unparseable waste_score label"))
			continue
		}
		feats = append(feats, vectors[i].Values())
		targets = append(targets, p.target(ds, i, vectors[i]))
	}

	if len(feats) == 0 {
		return nil, fmt.Errorf("%w: no rows survived derivation (%d dropped)", model.ErrInsufficientData, dropped)
	}

	m, err := model.Fit(feats, targets, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}
	if err := m.Save(artifactPath); err != nil {
		return nil, fmt.Errorf("persist artifact: %w", err)
	}

	p.logger.Info("trained waste model",
		zap.String("version", m.Version),
		zap.Int("rows", len(feats)),
		zap.Int("dropped", dropped),
		zap.Bool("labeled", ds.Labels != nil))

	return &Result{
		ArtifactVersion: m.Version,
		RowsUsed:        len(feats),
		RowsDropped:     dropped,
		Labeled:         ds.Labels != nil,
	}, nil
}

// target returns the training target for row i. Labeled datasets use
// the label column directly. Unlabeled datasets derive the canonical
// cost-normalized utilization signal:
//
//	waste_score = usage_count / max(cost, 1)
//
// The serving path never re-derives this; the convention lives here
// and only here.
func (p *Pipeline) target(ds *Dataset, i int, _ features.FeatureVector) float64 {
	if ds.Labels != nil {
		return ds.Labels[i]
	}
	cost := ds.Records[i].Cost
	if cost < 1 {
		cost = 1
	}
	return float64(ds.Records[i].UsageCount) / cost
}

// IsSchemaError reports whether err is a dataset schema failure.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

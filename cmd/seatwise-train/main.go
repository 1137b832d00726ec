// cmd/seatwise-train/main.go
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/seatwise/seatwise/internal/model"
	"github.com/seatwise/seatwise/internal/training"
)

func main() {
	dataPath := flag.String("data", "", "path to license usage CSV dataset")
	outPath := flag.String("out", "models_store/waste_model.json", "artifact output path")
	mode := flag.String("mode", "regression", "model mode: regression or classification")
	trees := flag.Int("trees", 0, "number of trees (0 = default)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if *dataPath == "" {
		logger.Error("-data is required")
		os.Exit(2)
	}

	cfg := model.FitConfig{
		Mode:     model.Mode(*mode),
		NumTrees: *trees,
	}
	if cfg.Mode != model.ModeRegression && cfg.Mode != model.ModeClassification {
		logger.Error("invalid mode", zap.String("mode", *mode))
		os.Exit(2)
	}

	pipeline := training.NewPipeline(logger, cfg)
	result, err := pipeline.Train(*dataPath, *outPath)
	if err != nil {
		logger.Error("training failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("artifact written",
		zap.String("path", *outPath),
		zap.String("version", result.ArtifactVersion),
		zap.Int("rows_used", result.RowsUsed),
		zap.Int("rows_dropped", result.RowsDropped),
		zap.Bool("labeled", result.Labeled))
}

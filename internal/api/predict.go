package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seatwise/seatwise/internal/predlog"
)

const maxBodyBytes = 1 << 20

// predictionEntry is one element of a batch response. Exactly one of
// WasteScore or Error is set.
type predictionEntry struct {
	WasteScore *float64 `json:"waste_score,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// handlePredict scores a single record or a batch. Single records
// fail fast with 400 on validation problems; batch elements fail
// individually so one malformed record never sinks its siblings.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if s.model == nil {
		writeError(w, http.StatusInternalServerError, "model unavailable")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		writeError(w, http.StatusBadRequest, "no input data provided")
		return
	}

	start := time.Now()
	defer func() { s.metrics.PredictLatency.Observe(time.Since(start).Seconds()) }()

	if trimmed[0] == '[' {
		s.predictBatch(w, trimmed)
		return
	}
	s.predictSingle(w, trimmed)
}

func (s *Server) predictSingle(w http.ResponseWriter, body []byte) {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object or array")
		return
	}

	in, err := parseInput(obj)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	score, err := s.model.PredictOne(in.Vector.Values())
	if err != nil {
		s.logger.Error("prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	s.metrics.PredictionsTotal.Inc()
	s.appendLog(in, score)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"waste_score": score,
		"features":    in.Vector,
		"input":       in.Echo,
	})
}

func (s *Server) predictBatch(w http.ResponseWriter, body []byte) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(body, &rawItems); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object or array")
		return
	}
	if len(rawItems) == 0 {
		writeError(w, http.StatusBadRequest, "no input data provided")
		return
	}

	entries := make([]predictionEntry, len(rawItems))
	for i, raw := range rawItems {
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			entries[i] = predictionEntry{Error: "element must be a JSON object"}
			continue
		}

		in, err := parseInput(obj)
		if err != nil {
			entries[i] = predictionEntry{Error: err.Error()}
			continue
		}

		score, err := s.model.PredictOne(in.Vector.Values())
		if err != nil {
			s.logger.Error("prediction failed", zap.Int("index", i), zap.Error(err))
			entries[i] = predictionEntry{Error: "prediction failed"}
			continue
		}

		s.metrics.PredictionsTotal.Inc()
		s.appendLog(in, score)
		v := score
		entries[i] = predictionEntry{WasteScore: &v}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": entries})
}

// appendLog records a scored prediction, fire-and-forget. Failures are
// counted and logged but never reach the caller.
func (s *Server) appendLog(in scoreInput, score float64) {
	if s.logs == nil {
		return
	}
	entry := predlog.Entry{
		Timestamp:    time.Now().UTC(),
		ServiceLabel: in.Service,
		Cost:         in.Vector.Cost,
		Prediction:   score,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.logs.Append(ctx, entry); err != nil {
			s.metrics.LogAppendFailures.Inc()
			s.logger.Warn("prediction log append failed", zap.Error(err))
		}
	}()
}

// handleRecentPredictions serves the audit/trend surface the
// reporting dashboard reads.
func (s *Server) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": []predlog.Entry{}})
		return
	}

	entries, err := s.logs.Recent(r.Context(), 100)
	if err != nil {
		s.logger.Error("prediction log read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prediction log unavailable")
		return
	}
	if entries == nil {
		entries = []predlog.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": entries})
}

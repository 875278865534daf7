package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"learnstyle-workers/internal/common/validation"
	"learnstyle-workers/internal/pipeline"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready runs every dependency check; any failure answers 503.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(s.opts.Checks))
	status := http.StatusOK

	for name, check := range s.opts.Checks {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.CheckTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			s.log.Warn("readiness check failed", map[string]interface{}{
				"check": name,
				"error": err,
			})
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Recommend classifies one student profile: 200 on success, 400 when the
// profile fails validation, 500 for every other failure.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	data, status, err := s.readBody(w, r)
	if err != nil {
		writeJSON(w, status, pipeline.Failure(err.Error()))
		return
	}

	record, err := pipeline.ParseRecord(data)
	if err != nil {
		s.respond(r.Context(), w, pipeline.Failure(err.Error()))
		return
	}

	if s.opts.ValidateInput {
		if err := validation.ValidateProfile(record); err != nil {
			writeJSON(w, http.StatusBadRequest, pipeline.Failure(err.Error()))
			return
		}
	}

	s.respond(r.Context(), w, s.opts.Pipeline.Run(record))
}

// RecommendRules runs only the rule engine on a standardized row.
func (s *Server) RecommendRules(w http.ResponseWriter, r *http.Request) {
	data, status, err := s.readBody(w, r)
	if err != nil {
		writeJSON(w, status, pipeline.Failure(err.Error()))
		return
	}

	var buf bytes.Buffer
	if err := pipeline.RecommendJSON(bytes.NewReader(data), &buf); err != nil {
		writeJSON(w, http.StatusInternalServerError, pipeline.Failure(err.Error()))
		return
	}

	var resp pipeline.Response
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil || !resp.Success {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxRequestBytes)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read input: %v", err)
	}
	return data, http.StatusOK, nil
}

func (s *Server) respond(ctx context.Context, w http.ResponseWriter, resp *pipeline.Response) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordPrediction(ctx, resp.ClusterName, resp.Success)
	}
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

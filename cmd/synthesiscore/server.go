package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/synthesiscore/core/pkg/models"
)

// ingestServer exposes the HTTP surface SynthesisCore needs to run as a
// service: a trajectory-ingestion endpoint, a health check, and a
// Prometheus metrics endpoint.
type ingestServer struct {
	pipe     *pipeline
	server   *http.Server
	listener net.Listener
}

func newIngestServer(pipe *pipeline) *ingestServer {
	mux := http.NewServeMux()
	s := &ingestServer{pipe: pipe}

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/v1/trajectories", s.handleIngestTrajectory)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *ingestServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.pipe.logger.Error("http server error", "error", err.Error())
		}
	}()
	return nil
}

func (s *ingestServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *ingestServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	priority, normal := s.pipe.trigger.QueueSizes()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"queue_priority": priority,
		"queue_normal":   normal,
		"llm_provider":   s.pipe.cfg.LLM.DefaultProvider,
	})
}

// handleIngestTrajectory accepts a completed agent trajectory and
// enqueues it for synthesis. The agent runtime that produces the
// trajectory lives outside SynthesisCore; this endpoint is the
// boundary between it and the pipeline.
func (s *ingestServer) handleIngestTrajectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var traj models.Trajectory
	if err := json.NewDecoder(r.Body).Decode(&traj); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("invalid trajectory: %v", err)})
		return
	}

	if err := s.pipe.trigger.OnTrajectoryCompleted(r.Context(), traj); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "trajectory_id": traj.ID})
}

func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// Package server exposes the planner over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rcarv/factory-planner/internal/planner"
	"github.com/rcarv/factory-planner/internal/render"
	"github.com/rcarv/factory-planner/pkg/factory"
)

// Server handles solve requests against a fixed game-data catalog.
type Server struct {
	planner *planner.Planner
	data    *factory.GameData
	names   *render.Names
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Server for the given planner and catalog.
func New(pl *planner.Planner, data *factory.GameData, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	s := &Server{
		planner: pl,
		data:    data,
		names:   render.NewNames(data),
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/solve", s.handleSolve)
	s.mux.HandleFunc("POST /api/flowchart", s.handleFlowChart)

	return s
}

// Handler returns the route handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("http server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSolve runs one planning pass. Request problems map to 400, engine
// failures to 500; an infeasible plan is a 200 with solved=false.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	report, ok := s.solve(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFlowChart(w http.ResponseWriter, r *http.Request) {
	report, ok := s.solve(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteFlowChartHTML(w, report, s.names); err != nil {
		s.logger.Error("writing flow chart", "error", err)
	}
}

func (s *Server) solve(w http.ResponseWriter, r *http.Request) (*factory.SolveReport, bool) {
	var req factory.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}

	start := time.Now()
	report, err := s.planner.Solve(&req, s.data)
	if err != nil {
		var reqErr *planner.RequestError
		if errors.As(err, &reqErr) {
			s.writeError(w, http.StatusBadRequest, err.Error())
		} else {
			s.logger.Error("solve failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "solve failed")
		}
		return nil, false
	}
	s.logger.Info("solve finished",
		"solved", report.Solved,
		"duration", time.Since(start),
		"outputs", len(req.Outputs),
	)
	return report, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

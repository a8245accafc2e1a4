// Package ops exposes the agent's operational HTTP surface: health,
// Prometheus metrics, the learned region table, and session stats.
package ops

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moltyroyale/agent/pkg/metrics"
)

// RegionView is the read side of the region value table.
type RegionView interface {
	Snapshot(ctx context.Context) map[string]float64
	Count(ctx context.Context) int
}

// StatsProvider reports agent session statistics.
type StatsProvider interface {
	Stats(ctx context.Context) map[string]any
}

// Server wires the operational HTTP routes.
type Server struct {
	regions RegionView
	stats   StatsProvider
}

// NewServer creates an ops server over the given views.
func NewServer(regions RegionView, stats StatsProvider) *Server {
	return &Server{regions: regions, stats: stats}
}

// Register attaches all routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/regions", MetricsMiddleware(s.handleRegions, "regions"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.handleStats, "stats"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegions dumps the learned region value scores.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  s.regions.Count(ctx),
		"scores": s.regions.Snapshot(ctx),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Stats(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

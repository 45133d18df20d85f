package session

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler returns the status API: client listing and removal, the
// stream summary, and Prometheus metrics from gatherer. A nil gatherer
// serves the default registry.
func (s *Server) APIHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/clients", s.handleListClients)
	mux.HandleFunc("DELETE /api/clients/{id}", s.handleKickClient)
	mux.HandleFunc("GET /api/stream", s.handleStream)

	if gatherer == nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	} else {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return corsMiddleware(mux)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients := s.registry.Snapshot()
	out := make([]ClientStats, len(clients))
	for i, c := range clients {
		out[i] = c.Stats()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleKickClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if !s.Kick(id) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.StreamInfo())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

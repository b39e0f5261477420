// Package api provides the controller's ops HTTP surface: a liveness
// check and the Prometheus scrape endpoint, built on the same chi router
// stack the teacher's own API server uses.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdgyun/lare-hpa-go/internal/infra/controller"
)

// Server is the controller's ops HTTP server: /healthz and /metrics, plus a
// small read-only status endpoint exposing the shared control state.
type Server struct {
	ctrl *controller.Controller
}

// NewServer builds a Server bound to a running Controller.
func NewServer(ctrl *controller.Controller) *Server {
	return &Server{ctrl: ctrl}
}

// Handler returns the chi router with all routes mounted, using the same
// middleware stack (RequestID, RealIP, Recoverer, Timeout) as the teacher's
// own API server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.ctrl.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"target_cpu":  state.TargetCPU(),
		"current_cdt": state.CurrentCDT(),
		"desired_cdt": state.DesiredCDT(),
		"active":      state.Active(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const transportLabelREST = "rest"

func (s *Server) registerREST(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", s.handleProducts).Methods(http.MethodGet)
	api.HandleFunc("/packages", s.handlePackages).Methods(http.MethodGet)
	api.HandleFunc("/resellers", s.handleResellers).Methods(http.MethodGet)
	api.HandleFunc("/resellers/limited", s.handleLimitedResellers).Methods(http.MethodGet)
	api.HandleFunc("/resellers/search/name/{query}", s.handleSearchByName).Methods(http.MethodGet)
	api.HandleFunc("/resellers/search/city/{query}", s.handleSearchByCity).Methods(http.MethodGet)
}

// parseLimit returns 0 (no limit) for a missing or unparsable limit.
func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	products, err := s.service.Products(r.Context(), parseLimit(r))
	s.metrics.observe(transportLabelREST, "products", start, err)
	s.respond(w, "products", map[string]any{"products": products}, err)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	packages, err := s.service.Packages(r.Context(), parseLimit(r))
	s.metrics.observe(transportLabelREST, "packages", start, err)
	s.respond(w, "packages", map[string]any{"packages": packages}, err)
}

func (s *Server) handleResellers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resellers, err := s.service.Resellers(r.Context())
	s.metrics.observe(transportLabelREST, "resellers", start, err)
	s.respond(w, "resellers", map[string]any{"resellers": resellers}, err)
}

func (s *Server) handleLimitedResellers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resellers, err := s.service.LimitedResellers(r.Context())
	s.metrics.observe(transportLabelREST, "limited_resellers", start, err)
	s.respond(w, "limited resellers", map[string]any{"resellers": resellers}, err)
}

func (s *Server) handleSearchByName(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resellers, err := s.service.SearchResellersByName(r.Context(), mux.Vars(r)["query"])
	s.metrics.observe(transportLabelREST, "search_by_name", start, err)
	s.respond(w, "resellers by name", map[string]any{"resellers": resellers}, err)
}

func (s *Server) handleSearchByCity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resellers, err := s.service.SearchResellersByCity(r.Context(), mux.Vars(r)["query"])
	s.metrics.observe(transportLabelREST, "search_by_city", start, err)
	s.respond(w, "resellers by city", map[string]any{"resellers": resellers}, err)
}

func (s *Server) respond(w http.ResponseWriter, what string, body any, err error) {
	if err != nil {
		s.logger.Error().Err(err).Str("operation", what).Msg("Failed to fetch")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

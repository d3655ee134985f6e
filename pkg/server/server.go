package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/SHASHWATSINHA024/insighty/internal/dashboard"
	"github.com/SHASHWATSINHA024/insighty/internal/refresh"
	"github.com/SHASHWATSINHA024/insighty/internal/store"
	"github.com/SHASHWATSINHA024/insighty/internal/user"
	"github.com/SHASHWATSINHA024/insighty/pkg/source"
)

// Refresher triggers one refresh cycle, subject to single-flight.
type Refresher interface {
	Run(ctx context.Context) (*refresh.Result, error)
}

// Server provides the HTTP API.
type Server struct {
	store     store.Store
	assembler *dashboard.Assembler
	refresher Refresher
	port      int
}

// New creates a new HTTP server.
func New(st store.Store, assembler *dashboard.Assembler, refresher Refresher, port int) *Server {
	if port == 0 {
		port = 5000
	}
	return &Server{
		store:     st,
		assembler: assembler,
		refresher: refresher,
		port:      port,
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/trends/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/trends/source/", s.handleSource)
	mux.HandleFunc("/api/trends/stats", s.handleStats)
	mux.HandleFunc("/api/trends/refresh", s.handleRefresh)
	mux.HandleFunc("/api/user/preferences", s.handlePreferences)
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("insighty server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDashboard returns the merged per-user view. It always responds with
// a structurally valid payload; empty sections are the only symptom of an
// upstream or storage fault.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	userID := r.URL.Query().Get("user")
	payload := s.assembler.Build(r.Context(), userID)
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	src := strings.TrimPrefix(r.URL.Path, "/api/trends/source/")
	opts := store.ListOpts{
		Source:     source.SourceType(src),
		ActiveOnly: true,
		Limit:      10,
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if topic := r.URL.Query().Get("topic"); topic != "" {
		opts.Topic = topic
	}

	trends, err := s.store.List(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  trends,
		"count": len(trends),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := s.store.CountBySource(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	res, err := s.refresher.Run(r.Context())
	if errors.Is(err, refresh.ErrCycleRunning) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "refresh already in progress"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "trends refreshed successfully",
		"counts":  res,
	})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user parameter required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := s.store.GetUser(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"preferences": u.Preferences})

	case http.MethodPut:
		var body struct {
			Preferences []string `json:"preferences"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := user.ValidatePreferences(body.Preferences); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := s.store.UpdatePreferences(r.Context(), userID, body.Preferences); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "preferences updated successfully",
			"preferences": body.Preferences,
		})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
